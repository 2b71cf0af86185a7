package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/config"
	"github.com/garyjia/gst-invoice-extractor/internal/container"
	"github.com/garyjia/gst-invoice-extractor/internal/interfaces/mcp"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

const (
	serverName    = "gst-invoice-extractor"
	serverVersion = "1.0.0"
)

func main() {
	configPath := pflag.StringP("config", "c", "", "path to the YAML configuration file")
	logLevel := pflag.String("log-level", "info", "log level written to stderr")
	pflag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Keep the working directory of the MCP host clean
	if *configPath == "" {
		cfg.Storage.UploadDir = filepath.Join(os.TempDir(), serverName, "uploads")
		cfg.Storage.ProcessedDir = filepath.Join(os.TempDir(), serverName, "processed")
	}

	// stdout carries protocol traffic
	logger, err := utils.NewStderrLogger(*logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to create container", zap.Error(err))
	}
	if err := c.Build(); err != nil {
		logger.Fatal("Failed to build pipeline", zap.Error(err))
	}
	defer c.Close()

	server, err := mcp.NewServer(serverName, serverVersion, c.Pipeline().Processor, cfg.Upload.MaxFileSize, logger)
	if err != nil {
		logger.Fatal("Failed to create MCP server", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil {
		logger.Error("MCP server exited with error", zap.Error(err))
	}
}
