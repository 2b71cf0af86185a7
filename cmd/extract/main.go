package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/config"
	"github.com/garyjia/gst-invoice-extractor/internal/container"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML configuration file")
	outDir := pflag.StringP("out", "o", ".", "directory for the generated workbooks")
	consolidatedName := pflag.String("consolidated", "consolidated.xlsx", "file name of the consolidated workbook")
	logLevel := pflag.String("log-level", "warn", "log level written to stderr")
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] invoice.pdf [more.pdf ...]\n", filepath.Base(os.Args[0]))
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() == 0 {
		pflag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	if err := run(*configPath, *outDir, *consolidatedName, *logLevel, pflag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "extract: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, outDir, consolidatedName, logLevel string, inputs []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := utils.NewStderrLogger(logLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	// Workbooks go straight to outDir; no temporary storage is kept
	cfg.Storage.UploadDir = outDir
	cfg.Storage.ProcessedDir = outDir

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	if err := c.Build(); err != nil {
		return err
	}
	defer c.Close()

	var paths []string
	for _, in := range inputs {
		if _, err := utils.ValidatePDF(in, cfg.Upload.MaxFileSize); err != nil {
			if !errors.Is(err, utils.ErrMalformedPDF) {
				fmt.Fprintf(os.Stderr, "skipping %s: %v\n", in, err)
				continue
			}
			logger.Warn("PDF failed structural validation", zap.String("path", in), zap.Error(err))
		}
		paths = append(paths, in)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no readable PDF inputs")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := c.Pipeline()
	result, err := pipeline.Batch.Run(ctx, paths)
	if err != nil {
		return err
	}

	names := outputNames(paths)
	for i, doc := range result.Documents {
		out := filepath.Join(outDir, names[i])
		if err := pipeline.Exporter.WriteDocument(doc, out); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Printf("%s -> %s (%d rows, %d tables)\n", doc.Path, out, len(doc.Rows), len(doc.Tables))
	}

	consolidated := filepath.Join(outDir, consolidatedName)
	if err := pipeline.Exporter.WriteConsolidated(result.Consolidated.Rows, consolidated); err != nil {
		return fmt.Errorf("failed to write %s: %w", consolidated, err)
	}
	fmt.Printf("consolidated -> %s (%d rows)\n", consolidated, len(result.Consolidated.Rows))

	return nil
}

// outputNames returns one workbook name per input, "<base>_extracted.xlsx".
// Inputs sharing a base name get their 1-based position appended so no
// workbook overwrites another.
func outputNames(paths []string) []string {
	bases := make([]string, len(paths))
	seen := make(map[string]int)
	for i, p := range paths {
		bases[i] = strings.TrimSuffix(filepath.Base(p), filepath.Ext(p))
		seen[strings.ToLower(bases[i])]++
	}

	names := make([]string, len(paths))
	for i, base := range bases {
		if seen[strings.ToLower(base)] > 1 {
			base = fmt.Sprintf("%s_%d", base, i+1)
		}
		names[i] = base + "_extracted.xlsx"
	}
	return names
}
