package invoice

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// hsnBucket accumulates every line item sharing one HSN code.
type hsnBucket struct {
	hsn           string
	serialNo      string
	taxRate       string
	quantity      decimal.Decimal
	taxableAmount decimal.Decimal
	cgst          decimal.Decimal
	sgst          decimal.Decimal
	invoiceValue  decimal.Decimal
}

func (b *hsnBucket) add(item models.LineItem) {
	b.quantity = b.quantity.Add(parseAmount(item.Quantity))
	b.taxableAmount = b.taxableAmount.Add(parseAmount(item.TaxableAmount))
	b.cgst = b.cgst.Add(parseAmount(item.CGST))
	b.sgst = b.sgst.Add(parseAmount(item.SGST))
	b.invoiceValue = b.invoiceValue.Add(parseAmount(item.InvoiceValue))
}

// Aggregator folds line items into one row per HSN code.
type Aggregator struct{}

// NewAggregator creates a new HSN aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Aggregate sums items by HSN in first-seen order. Items without an HSN are
// dropped. Tax rate comes from the first item of each code, and serial
// numbers are renumbered 1..N in output order.
func (a *Aggregator) Aggregate(items []models.LineItem) []models.AggregatedItem {
	var order []*hsnBucket
	byHSN := make(map[string]*hsnBucket)

	for _, item := range items {
		if item.HSN == "" {
			continue
		}
		b, ok := byHSN[item.HSN]
		if !ok {
			b = &hsnBucket{hsn: item.HSN, serialNo: item.SerialNo, taxRate: item.TaxRate}
			byHSN[item.HSN] = b
			order = append(order, b)
		}
		b.add(item)
	}

	// StringFixed rounds half away from zero on the exact decimal sum
	out := make([]models.AggregatedItem, 0, len(order))
	for i, b := range order {
		out = append(out, models.AggregatedItem{
			SerialNo:      strconv.Itoa(i + 1),
			HSN:           b.hsn,
			Quantity:      b.quantity.StringFixed(2),
			TaxableAmount: b.taxableAmount.StringFixed(2),
			TaxRate:       b.taxRate,
			CGST:          b.cgst.StringFixed(2),
			SGST:          b.sgst.StringFixed(2),
			InvoiceValue:  b.invoiceValue.StringFixed(2),
		})
	}
	return out
}

// parseAmount reads a display number such as "1,234.50". Anything that does
// not parse counts as zero.
func parseAmount(s string) decimal.Decimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
