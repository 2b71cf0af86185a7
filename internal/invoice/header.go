package invoice

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/garyjia/gst-invoice-extractor/internal/models"
)

// headerPattern binds one invoice-level field to the regex that captures it.
// Patterns are tried in declaration order; each field takes its first match.
type headerPattern struct {
	field string
	re    *regexp.Regexp
	set   func(h *models.InvoiceHeader, v string)
}

var headerPatterns = []headerPattern{
	{
		field: "invoice_no",
		re:    regexp.MustCompile(`(?im)(?:#\s*:?\s*|Invoice\s*#?\s*:?\s*|INVOICE\s*NO\.?\s*:?\s*)([A-Z0-9\-/]+)`),
		set:   func(h *models.InvoiceHeader, v string) { h.InvoiceNo = v },
	},
	{
		field: "date",
		re:    regexp.MustCompile(`(?im)(?:Invoice\s*Date\s*:?\s*|DATE\s*:?\s*|Date\s*:?\s*)([\d/.\-]+)`),
		set:   func(h *models.InvoiceHeader, v string) { h.Date = v },
	},
	{
		field: "taxrate",
		re:    regexp.MustCompile(`(?im)(?:CGST|SGST)\s*(\d+(?:\.\d+)?)\s*%`),
		set:   func(h *models.InvoiceHeader, v string) { h.TaxRate = v },
	},
	{
		field: "cgst",
		re:    regexp.MustCompile(`(?im)CGST\d*\s*\(\d+%\)\s*([\d,]+\.?\d*)`),
		set:   func(h *models.InvoiceHeader, v string) { h.CGST = v },
	},
	{
		field: "sgst",
		re:    regexp.MustCompile(`(?im)SGST\d*\s*\(\d+%\)\s*([\d,]+\.?\d*)`),
		set:   func(h *models.InvoiceHeader, v string) { h.SGST = v },
	},
	{
		field: "invoice_value",
		re:    regexp.MustCompile(`(?im)(?:Total\s*:?\s*|TOTAL\s*:?\s*)(?:Rs\.?|INR|₹)?\s*([\d,]+\.?\d*)`),
		set:   func(h *models.InvoiceHeader, v string) { h.InvoiceValue = v },
	},
	{
		field: "total_invoice_value",
		re:    regexp.MustCompile(`(?im)(?:Balance\s*Due\s*:?\s*|GRAND\s*TOTAL\s*:?\s*|FINAL\s*TOTAL\s*:?\s*)(?:Rs\.?|INR|₹)?\s*([\d,]+\.?\d*)`),
		set:   func(h *models.InvoiceHeader, v string) { h.TotalInvoiceValue = v },
	},
}

var (
	sanitizeRe = regexp.MustCompile(`[^\w\s.,/-]`)

	receiverBlockRe = regexp.MustCompile(`(?i)(?:Bill\s*To|Receiver|Billed\s*to)\s*[:.]?\s*((?:[^\r\n]+[\r\n]*){1,4})`)
	honorificRe     = regexp.MustCompile(`(?i)^(?:M/s|Mr\.|Mrs\.|Dr\.)\s*`)

	receiverGSTRe = regexp.MustCompile(`(?im)(?:Bill\s*To|Receiver|Billed\s*to)[\s\S]{0,500}?(?:GSTIN|GST\s*#?)[\s.:]*([A-Z0-9]{15})`)
	anyGSTRe      = regexp.MustCompile(`(?i)(?:GSTIN\s*:?\s*|GST\s*#?\s*:?\s*)([A-Z0-9]{15})`)
)

// receiverStoplist marks lines under a "Bill To" label that are other labels,
// not the receiver's name.
var receiverStoplist = []string{"gstin", "invoice", "date", "ship to", "shipment", "place of supply", "terms"}

// HeaderExtractor pulls invoice-level fields out of raw document text.
type HeaderExtractor struct{}

// NewHeaderExtractor creates a new header extractor
func NewHeaderExtractor() *HeaderExtractor {
	return &HeaderExtractor{}
}

// Extract applies every header rule to text. Fields without a match stay empty.
func (e *HeaderExtractor) Extract(text string) models.InvoiceHeader {
	var h models.InvoiceHeader

	for _, p := range headerPatterns {
		m := p.re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}
		p.set(&h, sanitize(m[1]))
	}

	h.ReceiverName = extractReceiverName(text)
	h.ReceiverGST = extractReceiverGST(text)

	return h
}

func sanitize(v string) string {
	return sanitizeRe.ReplaceAllString(strings.TrimSpace(v), "")
}

func extractReceiverName(text string) string {
	m := receiverBlockRe.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}

	lines := strings.FieldsFunc(m[1], func(r rune) bool { return r == '\n' || r == '\r' })
	for _, line := range lines {
		name := strings.TrimSpace(line)
		if utf8.RuneCountInString(name) <= 2 || containsAny(strings.ToLower(name), receiverStoplist) {
			continue
		}
		return honorificRe.ReplaceAllString(name, "")
	}
	return ""
}

// extractReceiverGST prefers a GSTIN printed under the receiver label. Without
// one, the first labelled GSTIN in the document is taken to be the sender's and
// the second the receiver's.
func extractReceiverGST(text string) string {
	if m := receiverGSTRe.FindStringSubmatch(text); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}

	all := anyGSTRe.FindAllStringSubmatch(text, -1)
	switch {
	case len(all) > 1:
		return all[1][1]
	case len(all) == 1:
		return all[0][1]
	}
	return ""
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
