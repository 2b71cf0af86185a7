package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"golang.org/x/text/unicode/norm"
)

var (
	// state code, PAN, entity number, "Z", checksum
	gstinRegex = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// PDFInfo describes a validated PDF
type PDFInfo struct {
	Size  int64
	Pages int
}

// IsPDFName reports whether name carries a .pdf extension
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// ValidateUpload checks the name and size of an incoming file
func ValidateUpload(name string, size, maxSize int64) error {
	if !IsPDFName(name) {
		return fmt.Errorf("%w: %s", ErrNotPDF, name)
	}
	if maxSize > 0 && size > maxSize {
		return fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, name, size, maxSize)
	}
	return nil
}

// ValidatePDF checks a PDF on disk: extension, size and document structure.
// Structural problems are reported as ErrMalformedPDF alongside the file size
// so callers may still attempt extraction.
func ValidatePDF(path string, maxSize int64) (*PDFInfo, error) {
	stat, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}
	if err := ValidateUpload(filepath.Base(path), stat.Size(), maxSize); err != nil {
		return nil, err
	}

	info := &PDFInfo{Size: stat.Size()}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	pages, err := readPageCount(f)
	if err != nil {
		return info, fmt.Errorf("%w: %v", ErrMalformedPDF, err)
	}

	info.Pages = pages
	return info, nil
}

// readPageCount parses and validates the document in relaxed mode
func readPageCount(rs io.ReadSeeker) (pages int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parser panic: %v", r)
		}
	}()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return 0, err
	}
	if err := api.ValidateContext(ctx); err != nil {
		return 0, err
	}
	return ctx.PageCount, nil
}

// ValidateGSTIN validates an Indian GST identification number
func ValidateGSTIN(gstin string) error {
	if len(gstin) != 15 {
		return fmt.Errorf("%w: must be 15 characters: %s", ErrInvalidGSTIN, gstin)
	}
	if !gstinRegex.MatchString(strings.ToUpper(gstin)) {
		return fmt.Errorf("%w: %s", ErrInvalidGSTIN, gstin)
	}
	return nil
}

// SecureFilename reduces an uploaded file name to a safe ASCII base name.
// Path separators become underscores, other unsafe characters are dropped and
// the result may be empty.
func SecureFilename(name string) string {
	var sb strings.Builder
	for _, r := range norm.NFKD.String(name) {
		if r < 128 {
			sb.WriteRune(r)
		}
	}
	name = sb.String()

	for _, sep := range []string{"/", "\\"} {
		name = strings.ReplaceAll(name, sep, " ")
	}
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	return strings.Trim(name, "._")
}
