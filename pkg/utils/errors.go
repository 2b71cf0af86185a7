package utils

import "errors"

var (
	// ErrNotPDF is returned for files without a .pdf extension
	ErrNotPDF = errors.New("not a PDF file")

	// ErrFileTooLarge is returned for files above the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrMalformedPDF is returned when the PDF structure fails validation
	ErrMalformedPDF = errors.New("malformed PDF")

	// ErrInvalidGSTIN is returned for identifiers that are not 15-character GSTINs
	ErrInvalidGSTIN = errors.New("invalid GSTIN")
)
