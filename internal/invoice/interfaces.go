package invoice

import (
	"context"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// AcquirerInterface defines how raw text and tables are obtained for a document
type AcquirerInterface interface {
	Acquire(ctx context.Context, path string) (string, []models.RawTable)
}

// ProcessorInterface defines a single document pipeline run
type ProcessorInterface interface {
	Process(ctx context.Context, path string) models.DocumentResult
}
