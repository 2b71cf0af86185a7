package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Runner executes an external command and returns its stdout and stderr.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// lookPath resolves the tesseract binary; replaced in tests.
var lookPath = exec.LookPath

// TesseractConfig configures the local tesseract engine.
type TesseractConfig struct {
	Binary string // name or absolute path, "tesseract" when empty
	Lang   string // "eng" when empty
	PSM    int    // page segmentation mode, tesseract default when zero
	DPI    int    // resolution the page was rendered at
}

// TesseractEngine recognizes page images with the tesseract command line tool.
type TesseractEngine struct {
	cfg    TesseractConfig
	runner Runner
	logger *zap.Logger
}

// NewTesseractEngine creates a new tesseract engine running the real binary
func NewTesseractEngine(cfg TesseractConfig, logger *zap.Logger) *TesseractEngine {
	return newTesseractEngine(execRunner{}, cfg, logger)
}

func newTesseractEngine(runner Runner, cfg TesseractConfig, logger *zap.Logger) *TesseractEngine {
	if cfg.Binary == "" {
		cfg.Binary = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &TesseractEngine{
		cfg:    cfg,
		runner: runner,
		logger: logger.Named("tesseract"),
	}
}

// Name returns the engine tag
func (e *TesseractEngine) Name() string {
	return EngineTesseract
}

// Recognize writes img to a temporary PNG and reads tesseract's stdout.
func (e *TesseractEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	f, err := os.CreateTemp("", "gst-ocr-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create page image: %w", err)
	}
	defer os.Remove(f.Name())

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write page image: %w", err)
	}

	stdout, stderr, err := e.runner.Run(ctx, e.cfg.Binary, e.args(f.Name())...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", fmt.Errorf("tesseract failed: %w: %s", err, strings.TrimSpace(string(stderr)))
	}

	e.logger.Debug("Page recognized", zap.Int("chars", len(stdout)))
	return strings.TrimSpace(string(stdout)), nil
}

func (e *TesseractEngine) args(imagePath string) []string {
	// tesseract <image> stdout -l <lang> [--dpi N] [--psm N]
	args := []string{imagePath, "stdout", "-l", e.cfg.Lang}
	if e.cfg.DPI > 0 {
		args = append(args, "--dpi", strconv.Itoa(e.cfg.DPI))
	}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	return args
}

// TesseractAvailable reports whether the configured binary can be found.
func TesseractAvailable(binary string) bool {
	if binary == "" {
		binary = "tesseract"
	}
	_, err := lookPath(binary)
	return err == nil
}
