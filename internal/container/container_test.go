package container

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/config"
	"github.com/garyjia/gst-invoice-extractor/internal/worker"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		Server:     config.ServerConfig{Port: 5000},
		Upload:     config.UploadConfig{MaxFileSize: 1 << 20, FormField: "files"},
		Storage:    config.StorageConfig{UploadDir: filepath.Join(root, "uploads"), ProcessedDir: filepath.Join(root, "processed"), TTL: time.Hour, CleanupInterval: time.Hour},
		Processing: config.ProcessingConfig{Concurrency: 2},
		OCR:        config.OCRConfig{Engine: "none", DPI: 300, MinTextLength: 100},
	}
}

func TestNewContainer(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	bad := testConfig(t)
	bad.Processing.Concurrency = 0
	_, err = NewContainer(bad, zap.NewNop())
	assert.Error(t, err)
}

func TestContainer_Build(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)

	assert.Nil(t, c.Pipeline())
	assert.False(t, c.Health().Overall)

	require.NoError(t, c.Build())
	require.NotNil(t, c.Pipeline())
	assert.NotNil(t, c.Pipeline().Processor)
	assert.NotNil(t, c.Pipeline().Batch)
	assert.DirExists(t, cfg.Storage.UploadDir)
	assert.DirExists(t, cfg.Storage.ProcessedDir)

	health := c.Health()
	assert.True(t, health.Overall)
	assert.Equal(t, "disabled", health.Components["ocr"].Message)
	assert.False(t, c.Ready())

	// Build is idempotent
	pipeline := c.Pipeline()
	require.NoError(t, c.Build())
	assert.Same(t, pipeline, c.Pipeline())
}

func TestContainer_StartAndClose(t *testing.T) {
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, c.Start(context.Background()))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(context.Background()))
	health := c.Health()
	assert.True(t, health.Overall)
	assert.Equal(t, "CleanupWorker", health.Components["workers"].Message)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Build())
}

func TestContainer_HealthReportsMissingStorage(t *testing.T) {
	cfg := testConfig(t)
	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, c.Build())

	require.NoError(t, os.RemoveAll(cfg.Storage.ProcessedDir))

	health := c.Health()
	assert.False(t, health.Overall)
	assert.False(t, health.Components["storage"].Healthy)
}

func TestProvideOCREngine_InvalidEngine(t *testing.T) {
	cfg := testConfig(t)
	cfg.OCR.Engine = "openai"

	_, err := ProvideOCREngine(cfg, zap.NewNop())
	assert.Error(t, err)
}

type recordingWorker struct {
	name     string
	startErr error
	mu       *sync.Mutex
	events   *[]string
}

func (r *recordingWorker) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.events = append(*r.events, "start:"+r.name)
	return r.startErr
}

func (r *recordingWorker) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.events = append(*r.events, "stop:"+r.name)
}

func (r *recordingWorker) Name() string { return r.name }

func TestContainer_WorkerOrder(t *testing.T) {
	var mu sync.Mutex
	var events []string

	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	workers := []worker.Worker{
		&recordingWorker{name: "a", mu: &mu, events: &events},
		&recordingWorker{name: "b", mu: &mu, events: &events},
	}
	require.NoError(t, c.startWorkers(context.Background(), workers))
	require.NoError(t, c.Close())

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a"}, events)
}

func TestContainer_WorkerStartFailureRollsBack(t *testing.T) {
	var mu sync.Mutex
	var events []string

	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)

	workers := []worker.Worker{
		&recordingWorker{name: "ok", mu: &mu, events: &events},
		&recordingWorker{name: "bad", startErr: errors.New("boom"), mu: &mu, events: &events},
		&recordingWorker{name: "never", mu: &mu, events: &events},
	}
	err = c.startWorkers(context.Background(), workers)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	assert.Equal(t, []string{"start:ok", "start:bad", "stop:ok"}, events)
	assert.Empty(t, c.workers)
}
