package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Worker defines the common contract for all background workers
type Worker interface {
	Start(ctx context.Context) error
	Stop()
	Name() string
}

// Sweeper removes expired artifacts
type Sweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// CleanupWorker periodically sweeps the temporary upload and processed
// directories
type CleanupWorker struct {
	sweeper  Sweeper
	interval time.Duration
	logger   *zap.Logger

	// State
	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewCleanupWorker creates a new cleanup worker
func NewCleanupWorker(sweeper Sweeper, interval time.Duration, logger *zap.Logger) *CleanupWorker {
	if interval <= 0 {
		interval = time.Hour
	}
	return &CleanupWorker{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger.Named("cleanup_worker"),
	}
}

// Start starts the sweep loop
func (w *CleanupWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.isRunning {
		return fmt.Errorf("cleanup worker is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.done = make(chan struct{})
	w.isRunning = true

	w.logger.Info("CleanupWorker started", zap.Duration("interval", w.interval))

	go w.loop(loopCtx, w.done)

	return nil
}

// Stop stops the sweep loop and waits for an in-flight sweep to finish
func (w *CleanupWorker) Stop() {
	w.mu.Lock()
	if !w.isRunning {
		w.mu.Unlock()
		return
	}
	w.isRunning = false
	w.cancel()
	done := w.done
	w.mu.Unlock()

	<-done
	w.logger.Info("CleanupWorker stopped")
}

// Name returns the worker name for identification
func (w *CleanupWorker) Name() string {
	return "CleanupWorker"
}

func (w *CleanupWorker) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Sweep immediately on start
	w.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Debug("Cleanup loop context cancelled")
			return

		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

func (w *CleanupWorker) sweep(ctx context.Context) {
	removed, err := w.sweeper.Sweep(ctx)
	if err != nil && ctx.Err() == nil {
		w.logger.Warn("Sweep finished with errors",
			zap.Int("removed", removed),
			zap.Error(err))
		return
	}
	if removed > 0 {
		w.logger.Debug("Sweep completed", zap.Int("removed", removed))
	}
}
