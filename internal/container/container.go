package container

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/acquire/ocr"
	"github.com/garyjia/gst-invoice-extractor/internal/config"
	"github.com/garyjia/gst-invoice-extractor/internal/worker"
)

// Container manages application dependencies and lifecycle with ordered
// initialization and reverse-order teardown.
type Container struct {
	config *config.Config
	logger *zap.Logger

	pipeline *PipelineBundle
	storage  *StorageBundle
	workers  []worker.Worker

	// Lifecycle
	mu     sync.Mutex
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents the health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger.Named("container"),
	}, nil
}

// Build initializes storage and the extraction pipeline without starting
// background workers. Used directly by the CLI and MCP entry points.
func (c *Container) Build() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.build()
}

func (c *Container) build() error {
	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}
	if c.pipeline != nil {
		return nil
	}

	// Step 1: Initialize storage
	storageBundle, err := ProvideStorage(c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	c.logger.Info("Storage initialized",
		zap.Strings("dirs", storageBundle.Folders.Dirs()))

	// Step 2: Initialize OCR engine
	engine, err := ProvideOCREngine(c.config, c.logger)
	if err != nil {
		return err
	}
	c.logger.Info("OCR engine initialized", zap.String("engine", engine.Name()))

	// Step 3: Initialize pipeline
	pipeline, err := ProvidePipeline(c.config, engine, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	c.storage = storageBundle
	c.pipeline = pipeline
	return nil
}

// Start builds all components and starts background workers.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	if err := c.build(); err != nil {
		return err
	}

	workerCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	// Step 4: Start workers
	workers := []worker.Worker{
		worker.NewCleanupWorker(c.storage.Janitor, c.config.Storage.CleanupInterval, c.logger),
	}
	if err := c.startWorkers(workerCtx, workers); err != nil {
		cancel()
		return fmt.Errorf("failed to start workers: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully", zap.Int("workers", len(c.workers)))
	return nil
}

// startWorkers starts workers in order. On failure the ones already running
// are stopped again and nothing is kept.
func (c *Container) startWorkers(ctx context.Context, workers []worker.Worker) error {
	for i, w := range workers {
		if err := w.Start(ctx); err != nil {
			c.logger.Error("Failed to start worker", zap.String("name", w.Name()), zap.Error(err))
			stopWorkers(workers[:i], c.logger)
			return fmt.Errorf("%s: %w", w.Name(), err)
		}
		c.logger.Info("Worker started", zap.String("name", w.Name()))
	}
	c.workers = workers
	return nil
}

// stopWorkers stops workers in reverse start order.
func stopWorkers(workers []worker.Worker, logger *zap.Logger) {
	for i := len(workers) - 1; i >= 0; i-- {
		workers[i].Stop()
		logger.Info("Worker stopped", zap.String("name", workers[i].Name()))
	}
}

// Close shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	// Step 1: Stop workers (reverse of step 4)
	stopWorkers(c.workers, c.logger)
	c.workers = nil
	if c.cancel != nil {
		c.cancel()
	}

	// Pipeline and storage hold no open resources

	c.closed.Store(true)
	c.ready.Store(false)
	c.logger.Info("Container closed")
	return nil
}

// Ready returns true when workers are running.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Pipeline returns the extraction components, nil before Build.
func (c *Container) Pipeline() *PipelineBundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pipeline
}

// Storage returns the storage components, nil before Build.
func (c *Container) Storage() *StorageBundle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.storage
}

// Health returns health status of all components.
func (c *Container) Health() *HealthStatus {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	fail := func(name, msg string) {
		status.Components[name] = ComponentHealth{Healthy: false, Message: msg}
		status.Overall = false
	}

	// Check storage
	if c.storage == nil {
		fail("storage", "not initialized")
	} else {
		healthy := true
		for _, dir := range c.storage.Folders.Dirs() {
			if info, err := os.Stat(dir); err != nil || !info.IsDir() {
				fail("storage", fmt.Sprintf("missing directory: %s", dir))
				healthy = false
				break
			}
		}
		if healthy {
			status.Components["storage"] = ComponentHealth{Healthy: true}
		}
	}

	// Check OCR
	if c.pipeline == nil {
		fail("ocr", "not initialized")
	} else {
		msg := c.pipeline.Engine.Name()
		if ocr.IsDisabled(c.pipeline.Engine) {
			msg = "disabled"
		}
		status.Components["ocr"] = ComponentHealth{Healthy: true, Message: msg}
	}

	// Check workers
	if len(c.workers) == 0 {
		status.Components["workers"] = ComponentHealth{Healthy: true, Message: "not started"}
	} else {
		names := make([]string, len(c.workers))
		for i, w := range c.workers {
			names[i] = w.Name()
		}
		status.Components["workers"] = ComponentHealth{
			Healthy: c.ready.Load(),
			Message: strings.Join(names, ", "),
		}
		if !c.ready.Load() {
			status.Overall = false
		}
	}

	return status
}
