// Package archive persists processed receipts on the local filesystem: the
// source PDF and the parsed record JSON, partitioned by reconciliation
// outcome and by year. Layout:
//
//	<root>/pdfs/<year>/<name>.pdf
//	<root>/jsons/correctly matched/<year>/<name>.json
//	<root>/jsons/mismatched/<year>/<name>.json
//
// Names derive from the invoice date (MM-DD-YYYY_HHMMSS); dateless invoices
// fall back to a random suffix. Collisions get a numeric suffix rather than
// overwriting.
package archive

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
)

// Partition separates reconciled records from those awaiting repair.
type Partition string

const (
	PartitionMatched    Partition = "correctly matched"
	PartitionMismatched Partition = "mismatched"
)

// partitionFor picks the JSON partition from the record's verdict.
func partitionFor(inv *invoice.Invoice) Partition {
	if inv.TotalMatch {
		return PartitionMatched
	}
	return PartitionMismatched
}

// Archive is a local filesystem store for receipt artifacts.
type Archive struct {
	root   string
	logger *slog.Logger
}

// New creates the archive root if needed.
func New(root string, logger *slog.Logger) (*Archive, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive root: %w", err)
	}
	return &Archive{root: root, logger: logger}, nil
}

// baseName derives the artifact name from the invoice date, falling back to a
// random name when no date was extracted.
func baseName(inv *invoice.Invoice) string {
	if inv.Date != nil {
		t := time.Time(*inv.Date)
		return t.Format("01-02-2006_150405")
	}
	return "invoice_" + uuid.NewString()[:8]
}

// year returns the directory year: the invoice date's year, or the parse
// year for dateless records.
func year(inv *invoice.Invoice) string {
	if inv.Date != nil {
		return strconv.Itoa(time.Time(*inv.Date).Year())
	}
	return strconv.Itoa(inv.ParsedAt.Year())
}

// uniquePath appends _N to the stem until the path is free.
func uniquePath(path string) string {
	ext := filepath.Ext(path)
	stem := path[:len(path)-len(ext)]
	candidate := path
	for n := 0; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, n, ext)
	}
}

// SavePDF stores the source PDF bytes and returns the stored path.
func (a *Archive) SavePDF(inv *invoice.Invoice, data []byte) (string, error) {
	dir := filepath.Join(a.root, "pdfs", year(inv))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating pdf directory: %w", err)
	}
	path := uniquePath(filepath.Join(dir, baseName(inv)+".pdf"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing pdf: %w", err)
	}
	a.logger.Debug("pdf archived", slog.String("path", path))
	return path, nil
}

// SaveRecord stores the record JSON in the partition matching its verdict and
// returns the stored path.
func (a *Archive) SaveRecord(inv *invoice.Invoice) (string, error) {
	dir := filepath.Join(a.root, "jsons", string(partitionFor(inv)), year(inv))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating record directory: %w", err)
	}
	path := uniquePath(filepath.Join(dir, baseName(inv)+".json"))
	if err := writeRecord(path, inv); err != nil {
		return "", err
	}
	a.logger.Debug("record archived", slog.String("path", path))
	return path, nil
}

// LoadRecord reads one archived record.
func (a *Archive) LoadRecord(path string) (*invoice.Invoice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading record: %w", err)
	}
	var inv invoice.Invoice
	if err := json.Unmarshal(data, &inv); err != nil {
		return nil, fmt.Errorf("decoding record %s: %w", path, err)
	}
	return &inv, nil
}

// Rewrite overwrites an archived record in place.
func (a *Archive) Rewrite(path string, inv *invoice.Invoice) error {
	return writeRecord(path, inv)
}

// ListRecords returns the paths of all record JSONs in a partition, across
// all years.
func (a *Archive) ListRecords(p Partition) ([]string, error) {
	dir := filepath.Join(a.root, "jsons", string(p))
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s partition: %w", p, err)
	}
	return paths, nil
}

// MoveToMatched relocates a repaired record from the mismatched partition to
// the matched one, preserving its year directory and name. Returns the new
// path.
func (a *Archive) MoveToMatched(path string) (string, error) {
	yearDir := filepath.Base(filepath.Dir(path))
	dir := filepath.Join(a.root, "jsons", string(PartitionMatched), yearDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating matched directory: %w", err)
	}
	dest := uniquePath(filepath.Join(dir, filepath.Base(path)))
	if err := os.Rename(path, dest); err != nil {
		return "", fmt.Errorf("moving record to matched partition: %w", err)
	}
	a.logger.Info("record moved to matched partition", slog.String("path", dest))
	return dest, nil
}

func writeRecord(path string, inv *invoice.Invoice) error {
	data, err := json.MarshalIndent(inv, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing record: %w", err)
	}
	return nil
}
