package acquire

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/gen2brain/go-fitz"
)

// FitzSource reads PDFs through MuPDF. It serves both as the primary text
// source and as the page rasterizer for OCR.
type FitzSource struct{}

// NewFitzSource creates a new MuPDF backed source
func NewFitzSource() *FitzSource {
	return &FitzSource{}
}

// Name returns the strategy tag
func (s *FitzSource) Name() string {
	return "fitz"
}

// Text concatenates the text layer of every page, one newline between pages.
func (s *FitzSource) Text(ctx context.Context, path string) (string, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var sb strings.Builder
	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		pageText, err := doc.Text(pageNum)
		if err != nil {
			return "", fmt.Errorf("failed to read text of page %d: %w", pageNum+1, err)
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// RenderPages rasterizes each page at dpi and hands it to visit.
func (s *FitzSource) RenderPages(ctx context.Context, path string, dpi float64, visit func(page int, img image.Image) error) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	for pageNum := 0; pageNum < doc.NumPage(); pageNum++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := doc.ImageDPI(pageNum, dpi)
		if err != nil {
			return fmt.Errorf("failed to render page %d: %w", pageNum+1, err)
		}
		if err := visit(pageNum+1, img); err != nil {
			return err
		}
	}
	return nil
}
