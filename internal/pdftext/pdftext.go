// Package pdftext is the extraction boundary in front of the parser: it pulls
// the first page's text lines out of a receipt PDF in reading order. It knows
// nothing about the receipt layout beyond "one visual row per line".
package pdftext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNoText indicates the PDF yielded no extractable text; the document
// cannot be processed (scanned images are out of scope).
var ErrNoText = errors.New("no text extracted from first page")

// FirstPageLines returns the trimmed, non-empty text lines of the PDF's first
// page, top to bottom. Multi-page receipts are not supported; only page one
// carries the invoice table.
func FirstPageLines(path string) ([]string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf %s: %w", path, err)
	}
	defer f.Close()

	if r.NumPage() < 1 {
		return nil, ErrNoText
	}
	page := r.Page(1)
	if page.V.IsNull() {
		return nil, ErrNoText
	}

	rows, err := page.GetTextByRow()
	if err != nil {
		return nil, fmt.Errorf("extracting text rows: %w", err)
	}

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		var sb strings.Builder
		for _, word := range row.Content {
			sb.WriteString(word.S)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return nil, ErrNoText
	}
	return lines, nil
}
