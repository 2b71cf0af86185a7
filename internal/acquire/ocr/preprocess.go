package ocr

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
)

// Enhance converts a page render into a high-contrast grayscale image, which
// OCR services read more reliably than colored scans.
func Enhance(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 30)
	out = imaging.Sharpen(out, 1.5)
	out = imaging.AdjustBrightness(out, 10)
	return imaging.AdjustGamma(out, 1.2)
}

type preprocessingEngine struct {
	next Engine
}

// WithPreprocessing wraps an engine so every image is enhanced first.
func WithPreprocessing(next Engine) Engine {
	return &preprocessingEngine{next: next}
}

func (p *preprocessingEngine) Name() string {
	return p.next.Name() + "+enhance"
}

func (p *preprocessingEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	return p.next.Recognize(ctx, Enhance(img))
}
