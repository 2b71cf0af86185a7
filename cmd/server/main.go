package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/config"
	"github.com/garyjia/gst-invoice-extractor/internal/container"
	httpapi "github.com/garyjia/gst-invoice-extractor/internal/interfaces/http"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

func main() {
	configPath := pflag.StringP("config", "c", "configs/config.yaml", "path to the YAML configuration file")
	pflag.Parse()

	// Environment file is optional
	envErr := godotenv.Load()

	// Load configuration
	cfg, err := config.Load(existingPath(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := utils.NewLogger(cfg.ToLoggerConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if envErr != nil {
		logger.Debug("No .env file found, using environment only")
	}

	logger.Info("Starting GST invoice extractor",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port),
		zap.String("ocr_engine", cfg.OCR.Engine),
		zap.Int("concurrency", cfg.Processing.Concurrency))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Start(ctx); err != nil {
		logger.Fatal("Failed to start container", zap.Error(err))
	}
	defer c.Close()

	pipeline := c.Pipeline()
	handlers := httpapi.NewHandlers(
		pipeline.Batch,
		pipeline.Exporter,
		c.Storage().Folders,
		httpapi.UploadConfig{
			MaxFileSize: cfg.Upload.MaxFileSize,
			FormField:   cfg.Upload.FormField,
		},
		logger,
	)
	handlers.SetHealthFunc(func() (bool, interface{}) {
		health := c.Health()
		return health.Overall, health.Components
	})

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		Mode:            cfg.Server.Mode,
	}, handlers, cfg.Upload.MaxFileSize, logger)

	// Blocks until SIGINT/SIGTERM
	if err := server.Start(ctx); err != nil {
		logger.Error("HTTP server exited with error", zap.Error(err))
	}

	logger.Info("Server exited")
}

// existingPath returns path if the file exists, otherwise "" so that
// configuration falls back to defaults and environment.
func existingPath(path string) string {
	if path == "" {
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}
