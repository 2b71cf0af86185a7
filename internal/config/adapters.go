package config

import (
	"github.com/garyjia/gst-invoice-extractor/internal/acquire"
	"github.com/garyjia/gst-invoice-extractor/internal/acquire/ocr"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

// ToOCRConfig converts the file-based OCR section into the engine factory's
// configuration.
func (c *Config) ToOCRConfig() ocr.Config {
	return ocr.Config{
		Engine:     c.OCR.Engine,
		Preprocess: c.OCR.Preprocess,
		Tesseract: ocr.TesseractConfig{
			Binary: c.OCR.Tesseract.Binary,
			Lang:   c.OCR.Tesseract.Lang,
			PSM:    c.OCR.Tesseract.PSM,
			DPI:    int(c.OCR.DPI),
		},
		OpenAI: ocr.OpenAIConfig{
			APIKey:    c.OCR.OpenAI.APIKey,
			BaseURL:   c.OCR.OpenAI.BaseURL,
			Model:     c.OCR.OpenAI.Model,
			MaxTokens: c.OCR.OpenAI.MaxTokens,
			Timeout:   c.OCR.OpenAI.Timeout,
		},
		Azure: ocr.AzureConfig{
			Endpoint: c.OCR.Azure.Endpoint,
			APIKey:   c.OCR.Azure.APIKey,
			Timeout:  c.OCR.Azure.Timeout,
		},
	}
}

// ToAcquireConfig returns the acquisition thresholds.
func (c *Config) ToAcquireConfig() acquire.Config {
	return acquire.Config{
		MinTextLength: c.OCR.MinTextLength,
		OCRDPI:        c.OCR.DPI,
	}
}

// ToLoggerConfig returns the logger settings.
func (c *Config) ToLoggerConfig() utils.LoggerConfig {
	return utils.LoggerConfig{
		Level:      c.Logger.Level,
		OutputPath: c.Logger.OutputPath,
		Format:     c.Logger.Format,
	}
}
