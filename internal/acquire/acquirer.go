// Package acquire pulls raw text and raw tables out of PDF documents.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/acquire/ocr"
	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// Config holds acquisition thresholds
type Config struct {
	MinTextLength int     // stripped text shorter than this triggers OCR
	OCRDPI        float64 // render resolution for OCR
}

// DefaultConfig returns the standard thresholds
func DefaultConfig() Config {
	return Config{MinTextLength: 100, OCRDPI: 300}
}

// Acquirer extracts text and tables from a PDF. Text sources are tried in
// order and the first non-empty result wins; OCR replaces the text when it is
// too short to hold an invoice.
type Acquirer struct {
	cfg         Config
	textSources []TextSourceInterface
	tables      TableSourceInterface
	renderer    PageRendererInterface
	engine      ocr.Engine
	logger      *zap.Logger
}

// NewAcquirer creates a new acquirer from explicit parts
func NewAcquirer(
	cfg Config,
	textSources []TextSourceInterface,
	tables TableSourceInterface,
	renderer PageRendererInterface,
	engine ocr.Engine,
	logger *zap.Logger,
) *Acquirer {
	if cfg.MinTextLength <= 0 {
		cfg.MinTextLength = DefaultConfig().MinTextLength
	}
	if cfg.OCRDPI <= 0 {
		cfg.OCRDPI = DefaultConfig().OCRDPI
	}
	return &Acquirer{
		cfg:         cfg,
		textSources: textSources,
		tables:      tables,
		renderer:    renderer,
		engine:      engine,
		logger:      logger.Named("acquire"),
	}
}

// NewDefaultAcquirer wires MuPDF text, pure Go fallback text, glyph layout
// tables and MuPDF page rendering around the given OCR engine.
func NewDefaultAcquirer(cfg Config, engine ocr.Engine, logger *zap.Logger) *Acquirer {
	fitzSource := NewFitzSource()
	return NewAcquirer(
		cfg,
		[]TextSourceInterface{fitzSource, NewPlainTextSource()},
		NewLayoutTableSource(DefaultLayoutConfig()),
		fitzSource,
		engine,
		logger,
	)
}

// Acquire returns the document text and its raw tables. Failures never
// escape: a failed stage contributes empty output and a warning.
func (a *Acquirer) Acquire(ctx context.Context, path string) (string, []models.RawTable) {
	text, method := a.directText(ctx, path)

	if utf8.RuneCountInString(strings.TrimSpace(text)) < a.cfg.MinTextLength {
		a.logger.Info("Text layer too short, running OCR",
			zap.String("path", path),
			zap.Int("text_length", utf8.RuneCountInString(strings.TrimSpace(text))))

		ocrText, err := safely(func() (string, error) {
			return a.ocrText(ctx, path)
		})
		if err != nil {
			a.logger.Warn("OCR failed", zap.String("path", path), zap.Error(err))
		}
		if err == nil || strings.TrimSpace(ocrText) != "" {
			text, method = ocrText, "ocr"
		}
	}

	tables, err := safely(func() ([]models.RawTable, error) {
		return a.tables.Tables(ctx, path)
	})
	if err != nil {
		a.logger.Warn("Table extraction failed", zap.String("path", path), zap.Error(err))
		tables = nil
	}

	a.logger.Debug("Document acquired",
		zap.String("path", path),
		zap.String("method", method),
		zap.Int("text_length", len(text)),
		zap.Int("tables", len(tables)))

	return text, tables
}

func (a *Acquirer) directText(ctx context.Context, path string) (string, string) {
	for _, source := range a.textSources {
		text, err := safely(func() (string, error) {
			return source.Text(ctx, path)
		})
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrNoText
		}
		if err != nil {
			a.logger.Warn("Text strategy failed",
				zap.String("path", path),
				zap.String("strategy", source.Name()),
				zap.Error(err))
			continue
		}
		return text, source.Name()
	}
	return "", "none"
}

// ocrText renders every page and concatenates the recognized text behind page
// markers. A page that fails to recognize contributes an empty body.
func (a *Acquirer) ocrText(ctx context.Context, path string) (string, error) {
	if a.engine == nil || ocr.IsDisabled(a.engine) {
		return "", ErrOCRDisabled
	}

	var sb strings.Builder
	err := a.renderer.RenderPages(ctx, path, a.cfg.OCRDPI, func(page int, img image.Image) error {
		pageText, err := a.engine.Recognize(ctx, img)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.logger.Warn("OCR failed for page",
				zap.String("path", path),
				zap.Int("page", page),
				zap.String("engine", a.engine.Name()),
				zap.Error(err))
			pageText = ""
		}
		fmt.Fprintf(&sb, "\n--- Page %d ---\n", page)
		sb.WriteString(pageText)
		return nil
	})
	if err != nil {
		return sb.String(), fmt.Errorf("failed to render pages: %w", err)
	}
	return sb.String(), nil
}

// safely converts a panic raised by a PDF library into an error.
func safely[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn()
}
