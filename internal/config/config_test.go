package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, int64(50*1024*1024), cfg.Upload.MaxFileSize)
	assert.Equal(t, "files", cfg.Upload.FormField)
	assert.Equal(t, "uploads", cfg.Storage.UploadDir)
	assert.Equal(t, "processed", cfg.Storage.ProcessedDir)
	assert.Equal(t, 24*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, 1, cfg.Processing.Concurrency)
	assert.Equal(t, "auto", cfg.OCR.Engine)
	assert.Equal(t, "tesseract", cfg.OCR.Tesseract.Binary)
	assert.Equal(t, "eng", cfg.OCR.Tesseract.Lang)
	assert.Equal(t, 100, cfg.OCR.MinTextLength)
	assert.Equal(t, float64(300), cfg.OCR.DPI)
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  port: 8088
processing:
  concurrency: 4
ocr:
  engine: openai
  min_text_length: 50
storage:
  ttl: 2h
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 4, cfg.Processing.Concurrency)
	assert.Equal(t, "openai", cfg.OCR.Engine)
	assert.Equal(t, "sk-test", cfg.OCR.OpenAI.APIKey)
	assert.Equal(t, 50, cfg.OCR.MinTextLength)
	assert.Equal(t, 2*time.Hour, cfg.Storage.TTL)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:     ServerConfig{Port: 5000},
			Upload:     UploadConfig{MaxFileSize: 1},
			Storage:    StorageConfig{UploadDir: "u", ProcessedDir: "p"},
			Processing: ProcessingConfig{Concurrency: 1},
			OCR:        OCRConfig{Engine: "none", DPI: 300},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"bad port", func(c *Config) { c.Server.Port = 0 }, true},
		{"no size limit", func(c *Config) { c.Upload.MaxFileSize = 0 }, true},
		{"no upload dir", func(c *Config) { c.Storage.UploadDir = "" }, true},
		{"no processed dir", func(c *Config) { c.Storage.ProcessedDir = "" }, true},
		{"zero concurrency", func(c *Config) { c.Processing.Concurrency = 0 }, true},
		{"openai without key", func(c *Config) { c.OCR.Engine = "openai" }, true},
		{"azure without endpoint", func(c *Config) { c.OCR.Engine = "azure"; c.OCR.Azure.APIKey = "k" }, true},
		{"azure complete", func(c *Config) {
			c.OCR.Engine = "azure"
			c.OCR.Azure.APIKey = "k"
			c.OCR.Azure.Endpoint = "https://example.cognitiveservices.azure.com/"
		}, false},
		{"tesseract engine", func(c *Config) { c.OCR.Engine = "tesseract" }, false},
		{"auto engine", func(c *Config) { c.OCR.Engine = "auto" }, false},
		{"unknown engine", func(c *Config) { c.OCR.Engine = "paddle" }, true},
		{"zero dpi", func(c *Config) { c.OCR.DPI = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestAdapters(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	ocrCfg := cfg.ToOCRConfig()
	assert.Equal(t, "auto", ocrCfg.Engine)
	assert.Equal(t, "gpt-4o", ocrCfg.OpenAI.Model)
	assert.Equal(t, "tesseract", ocrCfg.Tesseract.Binary)
	assert.Equal(t, 300, ocrCfg.Tesseract.DPI)

	acq := cfg.ToAcquireConfig()
	assert.Equal(t, 100, acq.MinTextLength)
	assert.Equal(t, float64(300), acq.OCRDPI)

	assert.Equal(t, "info", cfg.ToLoggerConfig().Level)
}
