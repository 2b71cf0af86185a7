package invoice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

func extractItems(t *testing.T, table models.RawTable) []models.LineItem {
	t.Helper()
	cols, headerIdx := NewColumnResolver().Resolve(&table)
	return NewItemExtractor().Extract(&table, cols, headerIdx)
}

func TestItemExtractor_Scenario(t *testing.T) {
	items := extractItems(t, scenarioTable())

	require.Len(t, items, 1)
	assert.Equal(t, models.LineItem{
		SerialNo:      "1",
		HSN:           "850410",
		Quantity:      "5",
		TaxableAmount: "100.00",
		TaxRate:       DefaultTaxRate,
		CGST:          "9.00",
		SGST:          "9.00",
		InvoiceValue:  "118.00",
	}, items[0])
}

func TestItemExtractor_SubHeaderOverrides(t *testing.T) {
	items := extractItems(t, subHeaderTable())

	require.Len(t, items, 1)
	assert.Equal(t, "8504 10", items[0].HSN)
	assert.Equal(t, "2", items[0].Quantity)
	assert.Equal(t, "500.00", items[0].TaxableAmount)
	assert.Equal(t, "45.00", items[0].CGST)
	assert.Equal(t, "45.00", items[0].SGST)
	assert.Equal(t, "590.00", items[0].InvoiceValue)
}

func TestItemExtractor_Legacy(t *testing.T) {
	items := extractItems(t, legacyTable())

	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].SerialNo)
	assert.Equal(t, "3004", items[0].HSN)
	assert.Equal(t, "10", items[0].Quantity)
	assert.Equal(t, "25.00", items[0].TaxableAmount)
	assert.Equal(t, "0", items[0].Discount)
	assert.Equal(t, "22.50", items[0].CGST)
	assert.Equal(t, "22.50", items[0].SGST)
	assert.Equal(t, "295.00", items[0].InvoiceValue)
}

func TestItemExtractor_RateLookAhead(t *testing.T) {
	table := models.NewRawTable(1, 1, [][]string{
		{"HSN", "Qty", "Rate", "CGST", "", "SGST", "", "Amount"},
		{"", "", "", "Rate", "", "Rate", "", ""},
		{"9983", "1", "1,000.00", "9%", "90.00", "9 %", "90.00", "1,180.00"},
		{"9984", "1", "500.00", "6", "", "6", "", "560"},
	})

	items := extractItems(t, table)

	require.Len(t, items, 2)
	assert.Equal(t, "1,000.00", items[0].TaxableAmount)
	assert.Equal(t, "90.00", items[0].CGST)
	assert.Equal(t, "90.00", items[0].SGST)
	assert.Equal(t, "1,180.00", items[0].InvoiceValue)

	// no amount next to the rate: the rate itself is kept
	assert.Equal(t, "6", items[1].CGST)
	assert.Equal(t, "6", items[1].SGST)
}

func TestItemExtractor_QualifyingRows(t *testing.T) {
	table := models.NewRawTable(1, 1, [][]string{
		{"S.No", "HSN", "Qty", "Rate", "CGST", "SGST", "Amount"},
		{"", "850410", "5 Nos", "100.00", "9.00", "9.00", "118.00"},
		{"", "Total", "", "", "", "", "118.00"},
		{"", "", "", "", "", "", ""},
		{"", "8 4 7 1", "1", "50", "4.50", "4.50", "Rs. 59.00"},
		{"", "N/A", "1", "1", "1", "1", "1"},
	})

	items := extractItems(t, table)

	require.Len(t, items, 2)
	for _, item := range items {
		assert.Regexp(t, `\d{2,8}`, whitespaceRun.ReplaceAllString(item.HSN, ""))
	}
	assert.Equal(t, "1", items[0].SerialNo)
	assert.Equal(t, "5", items[0].Quantity)
	assert.Equal(t, "2", items[1].SerialNo)
	assert.Equal(t, "59.00", items[1].InvoiceValue)
}

func TestItemExtractor_SkipsPercentRowAfterHeader(t *testing.T) {
	table := models.NewRawTable(1, 1, [][]string{
		{"HSN", "Qty", "Amount"},
		{"8504", "1", "18%"},
		{"8505", "2", "200.00"},
	})

	items := extractItems(t, table)

	require.Len(t, items, 1)
	assert.Equal(t, "8505", items[0].HSN)
}

func TestItemExtractor_NoRows(t *testing.T) {
	assert.Empty(t, extractItems(t, models.NewRawTable(1, 1, [][]string{{"HSN", "Qty"}})))
	assert.Empty(t, extractItems(t, models.RawTable{Page: 1, Index: 1}))
}

func TestFirstNumber(t *testing.T) {
	assert.Equal(t, "1,234.50", firstNumber(" Rs. 1,234.50 "))
	assert.Equal(t, "", firstNumber(""))
	assert.Equal(t, "", firstNumber("n/a"))
}
