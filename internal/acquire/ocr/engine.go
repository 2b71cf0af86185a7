// Package ocr recognizes text on rendered page images.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Engine names accepted in configuration.
const (
	EngineAuto      = "auto" // tesseract when installed, otherwise none
	EngineNone      = "none"
	EngineTesseract = "tesseract"
	EngineOpenAI    = "openai"
	EngineAzure     = "azure"
)

// ErrDisabled is returned by the none engine.
var ErrDisabled = errors.New("ocr engine disabled")

// Engine recognizes the text printed on one page image.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Config selects and configures an engine.
type Config struct {
	Engine     string
	Preprocess bool
	Tesseract  TesseractConfig
	OpenAI     OpenAIConfig
	Azure      AzureConfig
}

// OpenAIConfig configures the vision model engine.
type OpenAIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// AzureConfig configures the Computer Vision engine.
type AzureConfig struct {
	Endpoint string
	APIKey   string
	Timeout  time.Duration
}

// New builds the engine named in cfg. When cfg.Preprocess is set, page images
// are cleaned up before they reach the engine.
func New(cfg Config, logger *zap.Logger) (Engine, error) {
	var engine Engine
	switch strings.ToLower(cfg.Engine) {
	case "", EngineAuto:
		if !TesseractAvailable(cfg.Tesseract.Binary) {
			logger.Warn("Tesseract not found, OCR fallback disabled")
			return noneEngine{}, nil
		}
		engine = NewTesseractEngine(cfg.Tesseract, logger)
	case EngineNone:
		return noneEngine{}, nil
	case EngineTesseract:
		if !TesseractAvailable(cfg.Tesseract.Binary) {
			return nil, fmt.Errorf("tesseract ocr engine requires the tesseract binary on PATH")
		}
		engine = NewTesseractEngine(cfg.Tesseract, logger)
	case EngineOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai ocr engine requires an api key")
		}
		engine = NewOpenAIEngine(cfg.OpenAI, logger)
	case EngineAzure:
		if cfg.Azure.Endpoint == "" || cfg.Azure.APIKey == "" {
			return nil, fmt.Errorf("azure ocr engine requires endpoint and api key")
		}
		engine = NewAzureEngine(cfg.Azure, logger)
	default:
		return nil, fmt.Errorf("unknown ocr engine: %s", cfg.Engine)
	}

	if cfg.Preprocess {
		engine = WithPreprocessing(engine)
	}
	return engine, nil
}

type noneEngine struct{}

func (noneEngine) Name() string { return EngineNone }

func (noneEngine) Recognize(context.Context, image.Image) (string, error) {
	return "", ErrDisabled
}

// IsDisabled reports whether e is the none engine.
func IsDisabled(e Engine) bool {
	_, ok := e.(noneEngine)
	return ok
}
