// Package invoice turns acquired PDF text and tables into invoice rows.
package invoice

import (
	"context"

	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
	"github.com/garyjia/gst-invoice-extractor/pkg/utils"
)

// Processor runs the full extraction pipeline for one document
type Processor struct {
	acquirer   AcquirerInterface
	header     *HeaderExtractor
	columns    *ColumnResolver
	items      *ItemExtractor
	aggregator *Aggregator
	composer   *Composer
	logger     *zap.Logger
}

// NewProcessor creates a new document processor
func NewProcessor(acquirer AcquirerInterface, logger *zap.Logger) *Processor {
	return &Processor{
		acquirer:   acquirer,
		header:     NewHeaderExtractor(),
		columns:    NewColumnResolver(),
		items:      NewItemExtractor(),
		aggregator: NewAggregator(),
		composer:   NewComposer(),
		logger:     logger.Named("processor"),
	}
}

// Process acquires the document and extracts its rows. Extraction problems
// never surface as errors; at worst the result holds a placeholder row and a
// total row with empty fields.
func (p *Processor) Process(ctx context.Context, path string) models.DocumentResult {
	p.logger.Info("Processing invoice", zap.String("path", path))

	text, tables := p.acquirer.Acquire(ctx, path)
	header, rows := p.Extract(text, tables)

	// Best-effort heuristic; flagged, never corrected
	if header.ReceiverGST != "" {
		if err := utils.ValidateGSTIN(header.ReceiverGST); err != nil {
			p.logger.Warn("Receiver GSTIN looks malformed",
				zap.String("path", path),
				zap.Error(err))
		}
	}

	p.logger.Info("Invoice processed",
		zap.String("path", path),
		zap.String("invoice_no", header.InvoiceNo),
		zap.Int("tables", len(tables)),
		zap.Int("rows", len(rows)))

	return models.DocumentResult{
		Path:   path,
		Text:   text,
		Tables: tables,
		Header: header,
		Rows:   rows,
	}
}

// Extract runs the pure part of the pipeline on already acquired content.
func (p *Processor) Extract(text string, tables []models.RawTable) (models.InvoiceHeader, []models.InvoiceRow) {
	header := p.header.Extract(text)

	var items []models.LineItem
	for i := range tables {
		table := &tables[i]
		cols, headerIdx := p.columns.Resolve(table)
		found := p.items.Extract(table, cols, headerIdx)

		p.logger.Debug("Table scanned",
			zap.Int("page", table.Page),
			zap.Int("index", table.Index),
			zap.Int("header_row", headerIdx),
			zap.Bool("legacy_layout", cols.Legacy),
			zap.Int("items", len(found)))

		items = append(items, found...)
	}

	return header, p.composer.Compose(header, p.aggregator.Aggregate(items))
}
