package invoice

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// Consolidated accumulates the rows of every document in a batch, in the
// order the documents were submitted.
type Consolidated struct {
	Rows []models.InvoiceRow
}

// Add appends one document's rows
func (c *Consolidated) Add(rows []models.InvoiceRow) {
	c.Rows = append(c.Rows, rows...)
}

// BatchResult holds the per-document results and the consolidated rows
type BatchResult struct {
	Documents    []models.DocumentResult
	Consolidated Consolidated
}

// Batch processes several documents, optionally in parallel
type Batch struct {
	processor   ProcessorInterface
	concurrency int
	logger      *zap.Logger
}

// NewBatch creates a new batch runner. concurrency below 2 means sequential.
func NewBatch(processor ProcessorInterface, concurrency int, logger *zap.Logger) *Batch {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Batch{
		processor:   processor,
		concurrency: concurrency,
		logger:      logger.Named("batch"),
	}
}

// Run processes paths and returns results in input order regardless of the
// order in which documents finish. The only error is context cancellation.
func (b *Batch) Run(ctx context.Context, paths []string) (*BatchResult, error) {
	docs := make([]models.DocumentResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs[i] = b.processor.Process(gctx, path)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		b.logger.Warn("Batch interrupted", zap.Error(err))
		return nil, err
	}

	result := &BatchResult{Documents: docs}
	for _, doc := range docs {
		result.Consolidated.Add(doc.Rows)
	}

	b.logger.Info("Batch processed",
		zap.Int("documents", len(docs)),
		zap.Int("rows", len(result.Consolidated.Rows)),
		zap.Int("concurrency", b.concurrency))

	return result, nil
}
