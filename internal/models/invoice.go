package models

// RawTable is a page-indexed grid of cell strings as produced by table
// acquisition. A nil cell means the extractor found nothing at that position.
type RawTable struct {
	Page  int         `json:"page"`  // 1-based page number
	Index int         `json:"index"` // 1-based index within the page
	Rows  [][]*string `json:"rows"`
}

// Cell returns the text at (row, col), or "" when out of range or nil.
func (t *RawTable) Cell(row, col int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	cells := t.Rows[row]
	if col < 0 || col >= len(cells) || cells[col] == nil {
		return ""
	}
	return *cells[col]
}

// RowText joins the non-nil cells of a row with a single space.
func (t *RawTable) RowText(row int) string {
	if row < 0 || row >= len(t.Rows) {
		return ""
	}
	out := ""
	for _, c := range t.Rows[row] {
		if c == nil {
			continue
		}
		if out != "" {
			out += " "
		}
		out += *c
	}
	return out
}

// NewRawTable builds a RawTable from plain strings; empty strings become nil cells.
func NewRawTable(page, index int, rows [][]string) RawTable {
	grid := make([][]*string, len(rows))
	for i, row := range rows {
		grid[i] = make([]*string, len(row))
		for j := range row {
			if row[j] == "" {
				continue
			}
			v := row[j]
			grid[i][j] = &v
		}
	}
	return RawTable{Page: page, Index: index, Rows: grid}
}

// Column is an optional column index.
type Column struct {
	Index int
	OK    bool
}

// At returns a resolved column.
func At(index int) Column {
	return Column{Index: index, OK: true}
}

// ColumnMap assigns semantic roles to column indices of one table.
type ColumnMap struct {
	SerialNo            Column
	HSN                 Column
	Quantity            Column
	Rate                Column
	Discount            Column
	CGST                Column
	SGST                Column
	CGSTAmountOverride  Column
	SGSTAmountOverride  Column
	Amount              Column
	Legacy              bool // true when the fixed fallback layout was used
}

// LineItem is one qualifying table row. Numeric fields keep the text as
// found in the cell until aggregation.
type LineItem struct {
	SerialNo      string `json:"sno"`
	HSN           string `json:"hsn"`
	Quantity      string `json:"quantity"`
	TaxableAmount string `json:"taxable_amount"`
	Discount      string `json:"discount"`
	TaxRate       string `json:"taxrate"`
	CGST          string `json:"cgst"`
	SGST          string `json:"sgst"`
	InvoiceValue  string `json:"invoice_value"`
}

// AggregatedItem is the per-HSN sum of line items, formatted for display.
type AggregatedItem struct {
	SerialNo      string `json:"sno"`
	HSN           string `json:"hsn"`
	Quantity      string `json:"quantity"`
	TaxableAmount string `json:"taxable_amount"`
	TaxRate       string `json:"taxrate"`
	CGST          string `json:"cgst"`
	SGST          string `json:"sgst"`
	InvoiceValue  string `json:"invoice_value"`
}

// InvoiceHeader holds invoice-level scalar fields. An empty string means the
// field was not found.
type InvoiceHeader struct {
	InvoiceNo         string `json:"invoice_no"`
	Date              string `json:"date"`
	ReceiverName      string `json:"receiver_name"`
	ReceiverGST       string `json:"receiver_gst"`
	TaxRate           string `json:"taxrate"`
	CGST              string `json:"cgst"`
	SGST              string `json:"sgst"`
	InvoiceValue      string `json:"invoice_value"`
	TotalInvoiceValue string `json:"total_invoice_value"`
}

// InvoiceRow is the flat record consumed by the exporters.
type InvoiceRow struct {
	SerialNo          string `json:"sno"`
	InvoiceNo         string `json:"invoice_no"`
	Date              string `json:"date"`
	ReceiverName      string `json:"receiver_name"`
	ReceiverGST       string `json:"receiver_gst"`
	HSN               string `json:"hsn"`
	Quantity          string `json:"quantity"`
	TaxableAmount     string `json:"taxable_amount"`
	TaxRate           string `json:"taxrate"`
	CGST              string `json:"cgst"`
	SGST              string `json:"sgst"`
	InvoiceValue      string `json:"invoice_value"`
	TotalInvoiceValue string `json:"total_invoice_value"`
}

// RowFields lists the canonical field names in output order.
var RowFields = []string{
	"sno", "invoice_no", "date", "receiver_name", "receiver_gst", "hsn",
	"quantity", "taxable_amount", "taxrate", "cgst", "sgst",
	"invoice_value", "total_invoice_value",
}

// Values returns the row's fields in RowFields order.
func (r InvoiceRow) Values() []string {
	return []string{
		r.SerialNo, r.InvoiceNo, r.Date, r.ReceiverName, r.ReceiverGST, r.HSN,
		r.Quantity, r.TaxableAmount, r.TaxRate, r.CGST, r.SGST,
		r.InvoiceValue, r.TotalInvoiceValue,
	}
}

// HasHeader reports whether any invoice-level field is set on the row.
func (r InvoiceRow) HasHeader() bool {
	return r.InvoiceNo != "" || r.Date != "" || r.ReceiverName != "" || r.ReceiverGST != ""
}

// DocumentResult is the full output of one pipeline run.
type DocumentResult struct {
	Path   string        `json:"path"`
	Text   string        `json:"text"`
	Tables []RawTable    `json:"tables"`
	Header InvoiceHeader `json:"header"`
	Rows   []InvoiceRow  `json:"rows"`
}
