package acquire

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// PlainTextSource reads the text layer with the pure Go PDF parser. It copes
// with some files MuPDF rejects, which makes it the fallback strategy.
type PlainTextSource struct{}

// NewPlainTextSource creates a new pure Go text source
func NewPlainTextSource() *PlainTextSource {
	return &PlainTextSource{}
}

// Name returns the strategy tag
func (s *PlainTextSource) Name() string {
	return "plain"
}

// Text returns the plain text of the whole document.
func (s *PlainTextSource) Text(ctx context.Context, path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	if err := ctx.Err(); err != nil {
		return "", err
	}

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract plain text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read plain text: %w", err)
	}
	return buf.String(), nil
}
