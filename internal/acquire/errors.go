package acquire

import "errors"

var (
	// ErrNoText is returned by a text strategy that ran but found nothing
	ErrNoText = errors.New("no text extracted")

	// ErrOCRDisabled is returned when OCR is needed but no engine is configured
	ErrOCRDisabled = errors.New("ocr disabled")

	// ErrPanic wraps a panic recovered from a PDF library
	ErrPanic = errors.New("pdf library panic")
)
