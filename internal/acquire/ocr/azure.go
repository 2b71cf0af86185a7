package ocr

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	"github.com/Azure/azure-sdk-for-go/services/cognitiveservices/v3.0/computervision"
	"github.com/Azure/go-autorest/autorest"
	"go.uber.org/zap"
)

// printedTextRecognizer is the subset of the Computer Vision client used here.
type printedTextRecognizer interface {
	RecognizePrintedTextInStream(ctx context.Context, detectOrientation bool, image io.ReadCloser, language computervision.OcrLanguages) (computervision.OcrResult, error)
}

// AzureEngine runs Azure Computer Vision printed-text OCR.
type AzureEngine struct {
	client printedTextRecognizer
	logger *zap.Logger
}

// NewAzureEngine creates a new Computer Vision OCR engine
func NewAzureEngine(cfg AzureConfig, logger *zap.Logger) *AzureEngine {
	client := computervision.New(cfg.Endpoint)
	client.Authorizer = autorest.NewCognitiveServicesAuthorizer(cfg.APIKey)
	if cfg.Timeout > 0 {
		client.RetryDuration = cfg.Timeout
	}
	return &AzureEngine{client: &client, logger: logger}
}

// Name returns the engine name
func (e *AzureEngine) Name() string {
	return EngineAzure
}

// Recognize uploads the page as PNG and flattens the recognized regions into
// lines of text.
func (e *AzureEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("failed to encode page image: %w", err)
	}

	result, err := e.client.RecognizePrintedTextInStream(
		ctx,
		true,
		io.NopCloser(bytes.NewReader(buf.Bytes())),
		computervision.OcrLanguages(computervision.En),
	)
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}

	text := flattenOCRResult(result)
	e.logger.Debug("Azure OCR page recognized", zap.Int("text_length", len(text)))
	return text, nil
}

// flattenOCRResult joins words with spaces and lines with newlines, region by
// region.
func flattenOCRResult(result computervision.OcrResult) string {
	if result.Regions == nil {
		return ""
	}

	var lines []string
	for _, region := range *result.Regions {
		if region.Lines == nil {
			continue
		}
		for _, line := range *region.Lines {
			if line.Words == nil {
				continue
			}
			var words []string
			for _, word := range *line.Words {
				if word.Text != nil && *word.Text != "" {
					words = append(words, *word.Text)
				}
			}
			if len(words) > 0 {
				lines = append(lines, strings.Join(words, " "))
			}
		}
	}
	return strings.Join(lines, "\n")
}
