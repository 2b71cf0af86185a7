package invoice

import (
	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// Composer merges header fields and aggregated items into output rows.
type Composer struct{}

// NewComposer creates a new row composer
func NewComposer() *Composer {
	return &Composer{}
}

// Compose returns one row per item followed by a trailing total row. Only the
// first item row carries the header fields and only the trailing row carries
// the grand total. With no items a placeholder row numbered "1" is used.
func (c *Composer) Compose(header models.InvoiceHeader, items []models.AggregatedItem) []models.InvoiceRow {
	if len(items) == 0 {
		items = []models.AggregatedItem{{SerialNo: "1"}}
	}

	rows := make([]models.InvoiceRow, 0, len(items)+1)
	for i, item := range items {
		row := models.InvoiceRow{
			SerialNo:      item.SerialNo,
			HSN:           item.HSN,
			Quantity:      item.Quantity,
			TaxableAmount: item.TaxableAmount,
			TaxRate:       item.TaxRate,
			CGST:          item.CGST,
			SGST:          item.SGST,
			InvoiceValue:  item.InvoiceValue,
		}
		if i == 0 {
			row.InvoiceNo = header.InvoiceNo
			row.Date = header.Date
			row.ReceiverName = header.ReceiverName
			row.ReceiverGST = header.ReceiverGST
		}
		rows = append(rows, row)
	}

	rows = append(rows, models.InvoiceRow{TotalInvoiceValue: header.TotalInvoiceValue})
	return rows
}
