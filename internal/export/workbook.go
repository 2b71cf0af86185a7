// Package export writes extraction results to xlsx workbooks.
package export

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// Sheet names of the per-document workbook
const (
	SheetParsedData = "Parsed_Data"
	SheetRawText    = "Raw_Text"
	SheetNoData     = "No_Data"

	noDataMessage = "No data could be extracted from this PDF"

	// excel rejects longer cell values
	maxCellChars = 32767
)

// DisplayLabels are the consolidated column headings, in models.RowFields order.
var DisplayLabels = []string{
	"SNO", "INVOICE NO", "DATE", "RECEIVER NAME", "RECEIVER GST", "HSN",
	"QUANTITY", "TAXABLE AMOUNT", "TAXRATE", "CGST", "SGST",
	"INVOICE VALUE", "TOTAL INVOICE VALUE",
}

// Exporter writes per-document and consolidated workbooks
type Exporter struct {
	logger *zap.Logger
}

// NewExporter creates a new workbook exporter
func NewExporter(logger *zap.Logger) *Exporter {
	return &Exporter{logger: logger.Named("export")}
}

// TableSheetName names the sheet of the n-th (1-based) table of a document.
func TableSheetName(table models.RawTable, n int) string {
	return fmt.Sprintf("Table_%d_%d", table.Page, n)
}

// WriteDocument saves one document's rows, raw tables and raw text. A
// workbook with nothing to show gets a single No_Data sheet.
func (e *Exporter) WriteDocument(doc models.DocumentResult, outputPath string) error {
	w := newWorkbook(e.logger)
	defer w.close()

	if len(doc.Rows) > 0 {
		if err := w.writeRows(SheetParsedData, models.RowFields, doc.Rows); err != nil {
			return err
		}
	}

	for i, table := range doc.Tables {
		if err := w.writeTable(TableSheetName(table, i+1), table); err != nil {
			return err
		}
	}

	if strings.TrimSpace(doc.Text) != "" {
		if err := w.writeText(SheetRawText, SheetRawText, doc.Text); err != nil {
			return err
		}
	}

	if w.sheets == 0 {
		if err := w.writeText(SheetNoData, "Message", noDataMessage); err != nil {
			return err
		}
	}

	if err := w.saveAs(outputPath); err != nil {
		return err
	}

	e.logger.Info("Document workbook written",
		zap.String("path", outputPath),
		zap.Int("sheets", w.sheets))
	return nil
}

// WriteConsolidated saves the rows of a whole batch under display labels.
func (e *Exporter) WriteConsolidated(rows []models.InvoiceRow, outputPath string) error {
	w := newWorkbook(e.logger)
	defer w.close()

	if err := w.writeRows("Sheet1", DisplayLabels, rows); err != nil {
		return err
	}
	if err := w.saveAs(outputPath); err != nil {
		return err
	}

	e.logger.Info("Consolidated workbook written",
		zap.String("path", outputPath),
		zap.Int("rows", len(rows)))
	return nil
}

type workbook struct {
	f           *excelize.File
	sheets      int
	headerStyle int
	logger      *zap.Logger
}

func newWorkbook(logger *zap.Logger) *workbook {
	f := excelize.NewFile()
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		logger.Warn("Failed to create header style", zap.Error(err))
	}
	return &workbook{f: f, headerStyle: style, logger: logger}
}

func (w *workbook) close() {
	if err := w.f.Close(); err != nil {
		w.logger.Warn("Failed to close workbook", zap.Error(err))
	}
}

// addSheet reuses the default sheet for the first one written.
func (w *workbook) addSheet(name string) error {
	if w.sheets == 0 {
		if err := w.f.SetSheetName(w.f.GetSheetName(0), name); err != nil {
			return fmt.Errorf("failed to rename sheet to %s: %w", name, err)
		}
	} else if _, err := w.f.NewSheet(name); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", name, err)
	}
	w.sheets++
	return nil
}

func (w *workbook) setRow(sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := w.f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", row, sheet, err)
	}
	return nil
}

func (w *workbook) setHeader(sheet string, labels []string) error {
	values := make([]interface{}, len(labels))
	for i, l := range labels {
		values[i] = l
	}
	if err := w.setRow(sheet, 1, values); err != nil {
		return err
	}

	if w.headerStyle != 0 && len(labels) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(labels), 1)
		if err := w.f.SetCellStyle(sheet, "A1", last, w.headerStyle); err != nil {
			w.logger.Warn("Failed to style header", zap.String("sheet", sheet), zap.Error(err))
		}
	}
	return nil
}

func (w *workbook) writeRows(sheet string, labels []string, rows []models.InvoiceRow) error {
	if err := w.addSheet(sheet); err != nil {
		return err
	}
	if err := w.setHeader(sheet, labels); err != nil {
		return err
	}
	for i, r := range rows {
		vals := r.Values()
		values := make([]interface{}, len(vals))
		for j, v := range vals {
			values[j] = v
		}
		if err := w.setRow(sheet, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

// writeTable writes a raw grid under a header of column positions.
func (w *workbook) writeTable(sheet string, table models.RawTable) error {
	if err := w.addSheet(sheet); err != nil {
		return err
	}

	width := 0
	for _, row := range table.Rows {
		width = max(width, len(row))
	}
	labels := make([]string, width)
	for i := range labels {
		labels[i] = strconv.Itoa(i)
	}
	if err := w.setHeader(sheet, labels); err != nil {
		return err
	}

	for r, row := range table.Rows {
		values := make([]interface{}, len(row))
		for c, cell := range row {
			if cell != nil {
				values[c] = *cell
			}
		}
		if err := w.setRow(sheet, r+2, values); err != nil {
			return err
		}
	}
	return nil
}

func (w *workbook) writeText(sheet, label, text string) error {
	if err := w.addSheet(sheet); err != nil {
		return err
	}
	if err := w.setHeader(sheet, []string{label}); err != nil {
		return err
	}
	return w.setRow(sheet, 2, []interface{}{truncate(text, maxCellChars)})
}

func (w *workbook) saveAs(path string) error {
	if err := w.f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
