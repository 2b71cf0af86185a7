// Package container wires the extraction pipeline, storage and background
// workers from configuration.
package container

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/acquire"
	"github.com/garyjia/gst-invoice-extractor/internal/acquire/ocr"
	"github.com/garyjia/gst-invoice-extractor/internal/config"
	"github.com/garyjia/gst-invoice-extractor/internal/export"
	"github.com/garyjia/gst-invoice-extractor/internal/invoice"
	"github.com/garyjia/gst-invoice-extractor/internal/storage"
)

// PipelineBundle holds the extraction components.
type PipelineBundle struct {
	Engine    ocr.Engine
	Acquirer  *acquire.Acquirer
	Processor *invoice.Processor
	Batch     *invoice.Batch
	Exporter  *export.Exporter
}

// StorageBundle holds storage-related components.
type StorageBundle struct {
	Folders *storage.FolderManager
	Janitor *storage.Janitor
}

// ProvideOCREngine creates the configured OCR fallback engine.
func ProvideOCREngine(cfg *config.Config, logger *zap.Logger) (ocr.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	engine, err := ocr.New(cfg.ToOCRConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR engine: %w", err)
	}
	return engine, nil
}

// ProvidePipeline creates the acquirer, processor, batch runner and exporter
// around an OCR engine.
func ProvidePipeline(cfg *config.Config, engine ocr.Engine, logger *zap.Logger) (*PipelineBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("OCR engine is required")
	}

	acquirer := acquire.NewDefaultAcquirer(cfg.ToAcquireConfig(), engine, logger)
	processor := invoice.NewProcessor(acquirer, logger)

	return &PipelineBundle{
		Engine:    engine,
		Acquirer:  acquirer,
		Processor: processor,
		Batch:     invoice.NewBatch(processor, cfg.Processing.Concurrency, logger),
		Exporter:  export.NewExporter(logger),
	}, nil
}

// ProvideStorage creates the temporary directories and their janitor.
func ProvideStorage(cfg *config.Config, logger *zap.Logger) (*StorageBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	folders := storage.NewFolderManager(cfg.Storage.UploadDir, cfg.Storage.ProcessedDir, logger)
	if err := folders.EnsureFolders(); err != nil {
		return nil, err
	}

	return &StorageBundle{
		Folders: folders,
		Janitor: storage.NewJanitor(cfg.Storage.TTL, logger, folders.Dirs()...),
	}, nil
}
