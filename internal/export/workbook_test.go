package export

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

func sampleRows() []models.InvoiceRow {
	return []models.InvoiceRow{
		{
			SerialNo:      "1",
			InvoiceNo:     "INV-2024-001",
			Date:          "12/01/2024",
			ReceiverName:  "Acme Traders",
			ReceiverGST:   "29ABCDE1234F1Z5",
			HSN:           "850410",
			Quantity:      "5.00",
			TaxableAmount: "100.00",
			TaxRate:       "18%",
			CGST:          "9.00",
			SGST:          "9.00",
			InvoiceValue:  "118.00",
		},
		{TotalInvoiceValue: "118.00"},
	}
}

func openWorkbook(t *testing.T, path string) *excelize.File {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })
	return f
}

func TestExporter_WriteDocument(t *testing.T) {
	out := filepath.Join(t.TempDir(), "doc_extracted.xlsx")
	doc := models.DocumentResult{
		Path: "inv.pdf",
		Text: "Invoice # : INV-2024-001",
		Tables: []models.RawTable{
			models.NewRawTable(1, 1, [][]string{{"HSN", "Qty"}, {"850410", ""}}),
			models.NewRawTable(2, 1, [][]string{{"Terms"}}),
		},
		Rows: sampleRows(),
	}

	require.NoError(t, NewExporter(zap.NewNop()).WriteDocument(doc, out))

	f := openWorkbook(t, out)
	assert.Equal(t, []string{"Parsed_Data", "Table_1_1", "Table_2_2", "Raw_Text"}, f.GetSheetList())

	rows, err := f.GetRows(SheetParsedData)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, models.RowFields, rows[0])
	assert.Equal(t, "INV-2024-001", rows[1][1])
	assert.Equal(t, "118.00", rows[2][12])

	table, err := f.GetRows("Table_1_1")
	require.NoError(t, err)
	assert.Equal(t, []string{"0", "1"}, table[0])
	assert.Equal(t, []string{"HSN", "Qty"}, table[1])
	assert.Equal(t, "850410", table[2][0])

	header, _ := f.GetCellValue(SheetRawText, "A1")
	text, _ := f.GetCellValue(SheetRawText, "A2")
	assert.Equal(t, "Raw_Text", header)
	assert.Equal(t, doc.Text, text)
}

func TestExporter_WriteDocument_NoData(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.xlsx")

	require.NoError(t, NewExporter(zap.NewNop()).WriteDocument(models.DocumentResult{Text: "  \n"}, out))

	f := openWorkbook(t, out)
	assert.Equal(t, []string{SheetNoData}, f.GetSheetList())
	msg, _ := f.GetCellValue(SheetNoData, "A2")
	assert.Equal(t, "No data could be extracted from this PDF", msg)
}

func TestExporter_WriteDocument_LongText(t *testing.T) {
	out := filepath.Join(t.TempDir(), "long.xlsx")
	doc := models.DocumentResult{Text: strings.Repeat("x", maxCellChars+10)}

	require.NoError(t, NewExporter(zap.NewNop()).WriteDocument(doc, out))

	f := openWorkbook(t, out)
	text, _ := f.GetCellValue(SheetRawText, "A2")
	assert.Len(t, text, maxCellChars)
}

func TestExporter_WriteConsolidated(t *testing.T) {
	out := filepath.Join(t.TempDir(), "consolidated.xlsx")
	rows := append(sampleRows(), sampleRows()...)

	require.NoError(t, NewExporter(zap.NewNop()).WriteConsolidated(rows, out))

	f := openWorkbook(t, out)
	got, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, got, 5)
	assert.Equal(t, DisplayLabels, got[0])
	assert.Equal(t, "RECEIVER GST", got[0][4])
	assert.Equal(t, "29ABCDE1234F1Z5", got[3][4])
}

func TestExporter_WriteConsolidated_Empty(t *testing.T) {
	out := filepath.Join(t.TempDir(), "consolidated.xlsx")

	require.NoError(t, NewExporter(zap.NewNop()).WriteConsolidated(nil, out))

	f := openWorkbook(t, out)
	got, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0], len(models.RowFields))
}

func TestExporter_SaveFailure(t *testing.T) {
	out := filepath.Join(t.TempDir(), "missing", "dir", "out.xlsx")
	err := NewExporter(zap.NewNop()).WriteConsolidated(sampleRows(), out)
	assert.Error(t, err)
}
