package acquire

import (
	"context"
	"image"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// TextSourceInterface defines one way of pulling the text layer out of a PDF
type TextSourceInterface interface {
	Name() string
	Text(ctx context.Context, path string) (string, error)
}

// TableSourceInterface defines how raw tables are pulled out of a PDF
type TableSourceInterface interface {
	Tables(ctx context.Context, path string) ([]models.RawTable, error)
}

// PageRendererInterface defines how PDF pages are rasterized for OCR. visit is
// called once per page with a 1-based page number.
type PageRendererInterface interface {
	RenderPages(ctx context.Context, path string, dpi float64, visit func(page int, img image.Image) error) error
}
