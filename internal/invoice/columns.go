package invoice

import (
	"strings"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// headerScanDepth is how many leading rows are searched for the header row.
const headerScanDepth = 10

// Keywords that identify each column role in a header row.
var (
	serialKeywords   = []string{"s.no", "serial", "sr.", "no."}
	hsnKeywords      = []string{"hsn", "sac", "code"}
	quantityKeywords = []string{"qty", "quantity", "unit"}
	rateKeywords     = []string{"rate", "taxable", "price"}
	discountKeywords = []string{"disc", "less"}
	cgstKeywords     = []string{"cgst"}
	sgstKeywords     = []string{"sgst"}
	amountKeywords   = []string{"amount", "total", "value"}
	taxAmtKeywords   = []string{"amt", "amount"}
)

// legacyColumns is the fixed layout of the one invoice family whose tables
// carry no recognizable HSN header.
var legacyColumns = models.ColumnMap{
	SerialNo: models.At(1),
	HSN:      models.At(3),
	Quantity: models.At(4),
	Rate:     models.At(5),
	Discount: models.At(6),
	CGST:     models.At(10),
	SGST:     models.At(12),
	Amount:   models.At(13),
	Legacy:   true,
}

// ColumnResolver infers the column role layout of a raw table.
type ColumnResolver struct{}

// NewColumnResolver creates a new column resolver
func NewColumnResolver() *ColumnResolver {
	return &ColumnResolver{}
}

// Resolve returns the column map of table together with the index of its
// header row.
func (r *ColumnResolver) Resolve(table *models.RawTable) (models.ColumnMap, int) {
	headerIdx := findHeaderRow(table)

	var header []*string
	if headerIdx < len(table.Rows) {
		header = table.Rows[headerIdx]
	}

	cols := models.ColumnMap{
		SerialNo: findColumn(header, serialKeywords),
		HSN:      findColumn(header, hsnKeywords),
		Quantity: findColumn(header, quantityKeywords),
		Rate:     findColumn(header, rateKeywords),
		Discount: findColumn(header, discountKeywords),
		CGST:     findColumn(header, cgstKeywords),
		SGST:     findColumn(header, sgstKeywords),
		Amount:   findColumn(header, amountKeywords),
	}

	if headerIdx+1 < len(table.Rows) {
		sub := table.Rows[headerIdx+1]
		cols.CGSTAmountOverride = findTaxAmountColumn(sub, cols.CGST)
		cols.SGSTAmountOverride = findTaxAmountColumn(sub, cols.SGST)
	}

	if !cols.HSN.OK {
		return legacyColumns, headerIdx
	}
	return cols, headerIdx
}

// findHeaderRow returns the first of the leading rows that names a
// description, a quantity, or an HSN/SAC column. Row 0 is the default.
func findHeaderRow(table *models.RawTable) int {
	for i := 0; i < len(table.Rows) && i < headerScanDepth; i++ {
		row := strings.ToLower(table.RowText(i))
		if strings.Contains(row, "description") || strings.Contains(row, "qty") ||
			(strings.Contains(row, "hsn") && strings.Contains(row, "sac")) {
			return i
		}
	}
	return 0
}

func findColumn(header []*string, keywords []string) models.Column {
	for i, cell := range header {
		if cell == nil || *cell == "" {
			continue
		}
		if containsAny(strings.ToLower(*cell), keywords) {
			return models.At(i)
		}
	}
	return models.Column{}
}

// findTaxAmountColumn checks the tax column and the two after it in the
// sub-header row for an amount label.
func findTaxAmountColumn(sub []*string, tax models.Column) models.Column {
	if !tax.OK {
		return models.Column{}
	}
	for offset := 0; offset < 3; offset++ {
		idx := tax.Index + offset
		if idx >= len(sub) || sub[idx] == nil {
			continue
		}
		if containsAny(strings.ToLower(*sub[idx]), taxAmtKeywords) {
			return models.At(idx)
		}
	}
	return models.Column{}
}
