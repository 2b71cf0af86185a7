package invoice

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// DefaultTaxRate is assigned to every line item; tables rarely carry a
// reliable per-row rate.
const DefaultTaxRate = "18%"

var (
	hsnDigitsRe   = regexp.MustCompile(`\d{2,8}`)
	numberRunRe   = regexp.MustCompile(`[\d,]+\.?\d*`)
	bareRateRe    = regexp.MustCompile(`^\d+(\.\d+)?\s*%?$`)
	taxAmountRe   = regexp.MustCompile(`^[\d,]+\.\d{2}`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// ItemExtractor turns qualifying table rows into line items.
type ItemExtractor struct{}

// NewItemExtractor creates a new line item extractor
func NewItemExtractor() *ItemExtractor {
	return &ItemExtractor{}
}

// Extract reads the rows below headerIdx using cols. A row becomes an item
// only when its HSN cell holds a run of 2 to 8 digits.
func (e *ItemExtractor) Extract(table *models.RawTable, cols models.ColumnMap, headerIdx int) []models.LineItem {
	var items []models.LineItem

	for rowIdx := range table.Rows {
		if rowIdx <= headerIdx {
			continue
		}
		if rowIdx == headerIdx+1 && isTaxSubHeader(table.RowText(rowIdx)) {
			continue
		}

		cell := func(c models.Column) string {
			if !c.OK {
				return ""
			}
			return table.Cell(rowIdx, c.Index)
		}

		hsn := cell(cols.HSN)
		if !hsnDigitsRe.MatchString(whitespaceRun.ReplaceAllString(hsn, "")) {
			continue
		}

		serial := strings.TrimSpace(cell(cols.SerialNo))
		if serial == "" {
			serial = strconv.Itoa(len(items) + 1)
		}

		items = append(items, models.LineItem{
			SerialNo:      serial,
			HSN:           strings.TrimSpace(hsn),
			Quantity:      firstNumber(cell(cols.Quantity)),
			TaxableAmount: firstNumber(cell(cols.Rate)),
			Discount:      strings.TrimSpace(cell(cols.Discount)),
			TaxRate:       DefaultTaxRate,
			CGST:          firstNumber(taxAmount(table, rowIdx, cols.CGST, cols.CGSTAmountOverride)),
			SGST:          firstNumber(taxAmount(table, rowIdx, cols.SGST, cols.SGSTAmountOverride)),
			InvoiceValue:  firstNumber(cell(cols.Amount)),
		})
	}

	return items
}

func isTaxSubHeader(rowText string) bool {
	lower := strings.ToLower(rowText)
	return strings.Contains(lower, "amt") || strings.Contains(lower, "%")
}

// taxAmount returns the tax amount cell of a row. With a sub-header override
// the override column wins. Otherwise, when the tax column holds what looks
// like a bare rate ("9", "9%"), the next two columns are checked for a
// two-decimal amount.
func taxAmount(table *models.RawTable, rowIdx int, base, override models.Column) string {
	if override.OK {
		return table.Cell(rowIdx, override.Index)
	}
	if !base.OK {
		return ""
	}

	val := table.Cell(rowIdx, base.Index)
	if val == "" || !bareRateRe.MatchString(strings.TrimSpace(val)) {
		return val
	}

	for offset := 1; offset <= 2; offset++ {
		next := table.Cell(rowIdx, base.Index+offset)
		if next != "" && taxAmountRe.MatchString(strings.TrimSpace(next)) {
			return next
		}
	}
	return val
}

// firstNumber returns the first digit/comma/decimal run in s, or "".
func firstNumber(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return numberRunRe.FindString(s)
}
