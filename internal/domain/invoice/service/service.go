// Package service orchestrates the receipt pipeline: download the PDF,
// extract its text lines, parse and reconcile the record, archive the
// artifacts, and relay the result to the backend. The parsing core stays
// synchronous and stateless; everything blocking lives here at the boundary.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/parser"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/reconcile"
	"github.com/OsaidB/Invoices-Convertor/internal/pdftext"
	"github.com/OsaidB/Invoices-Convertor/internal/relay"
	"github.com/OsaidB/Invoices-Convertor/pkg/archive"
	"github.com/OsaidB/Invoices-Convertor/pkg/metrics"
)

// maxPDFBytes caps downloads; receipts are single-page documents and anything
// bigger is not one of ours.
const maxPDFBytes = 10 << 20

// ErrDownload marks failures fetching the source PDF, so the HTTP layer can
// blame the caller's URL rather than the pipeline.
var ErrDownload = errors.New("pdf download failed")

// Relayer delivers a finished record downstream.
type Relayer interface {
	Send(ctx context.Context, inv *invoice.Invoice, pdfURL string) error
}

// Service wires the pipeline stages together.
type Service struct {
	parser  *parser.Parser
	archive *archive.Archive
	relay   Relayer
	http    *http.Client
	logger  *slog.Logger

	// extract is the PDF text boundary, injectable for tests.
	extract func(path string) ([]string, error)
}

var _ Relayer = (*relay.Client)(nil)

// New builds the pipeline service. httpClient bounds PDF downloads.
func New(p *parser.Parser, a *archive.Archive, r Relayer, httpClient *http.Client, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{
		parser:  p,
		archive: a,
		relay:   r,
		http:    httpClient,
		logger:  logger,
		extract: pdftext.FirstPageLines,
	}
}

// WithExtractor swaps the PDF text boundary. Tests and callers that already
// hold extracted lines use this to bypass the PDF reader.
func (s *Service) WithExtractor(fn func(path string) ([]string, error)) *Service {
	s.extract = fn
	return s
}

// Result is one processed receipt plus its diagnostics.
type Result struct {
	Invoice    *invoice.Invoice
	Mismatches []invoice.Mismatch
	// Repaired is set when the repair pass ran and resolved the mismatch.
	Repaired bool
	// RecordPath is where the archived JSON landed.
	RecordPath string
}

// ProcessURL downloads and processes one receipt PDF. With repair enabled, a
// total mismatch triggers the quantity-repair pass before archiving and
// relaying. Archive and relay failures are returned after the record is as
// far along as it could get; parse diagnostics never fail the call.
func (s *Service) ProcessURL(ctx context.Context, url string, repair bool) (*Result, error) {
	pdfData, err := s.download(ctx, url)
	if err != nil {
		metrics.InvoicesProcessed.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	res, err := s.processBytes(pdfData, repair)
	if err != nil {
		metrics.InvoicesProcessed.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.InvoicesProcessed.WithLabelValues("ok").Inc()

	if _, err := s.archive.SavePDF(res.Invoice, pdfData); err != nil {
		return res, err
	}
	if res.RecordPath, err = s.archive.SaveRecord(res.Invoice); err != nil {
		return res, err
	}

	if err := s.relay.Send(ctx, res.Invoice, url); err != nil {
		metrics.RelayFailures.Inc()
		return res, fmt.Errorf("relaying invoice: %w", err)
	}
	return res, nil
}

// processBytes runs extraction, parsing and (optionally) repair over raw PDF
// bytes.
func (s *Service) processBytes(pdfData []byte, repair bool) (*Result, error) {
	tmp, err := os.CreateTemp("", "receipt-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("creating temp pdf: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdfData); err != nil {
		tmp.Close()
		return nil, fmt.Errorf("writing temp pdf: %w", err)
	}
	tmp.Close()

	lines, err := s.extract(tmp.Name())
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	inv, mismatches, err := s.parser.Parse(lines)
	if err != nil {
		return nil, fmt.Errorf("parsing invoice: %w", err)
	}

	res := &Result{Invoice: inv, Mismatches: mismatches}
	if !inv.TotalMatch {
		metrics.InvoicesMismatched.Inc()
		if repair {
			if reconcile.Repair(inv).Match {
				res.Repaired = true
				metrics.InvoicesRepaired.Inc()
			}
		}
	}
	for _, m := range mismatches {
		s.logger.Warn("line item mismatch", slog.String("detail", m.String()))
	}
	return res, nil
}

// SweepMismatched re-runs repair over every archived mismatched record,
// rewriting and relocating the ones it resolves and relaying them downstream.
// Returns the number of resolved records. Used by the nightly job.
func (s *Service) SweepMismatched(ctx context.Context) (int, error) {
	paths, err := s.archive.ListRecords(archive.PartitionMismatched)
	if err != nil {
		return 0, err
	}

	resolved := 0
	for _, path := range paths {
		inv, err := s.archive.LoadRecord(path)
		if err != nil {
			s.logger.Error("unreadable archived record", slog.String("path", path), slog.Any("error", err))
			continue
		}

		if !reconcile.Repair(inv).Match {
			continue
		}

		if err := s.archive.Rewrite(path, inv); err != nil {
			s.logger.Error("rewriting repaired record", slog.String("path", path), slog.Any("error", err))
			continue
		}
		if _, err := s.archive.MoveToMatched(path); err != nil {
			s.logger.Error("relocating repaired record", slog.String("path", path), slog.Any("error", err))
			continue
		}
		resolved++
		metrics.InvoicesRepaired.Inc()

		if err := s.relay.Send(ctx, inv, ""); err != nil {
			metrics.RelayFailures.Inc()
			s.logger.Error("relaying repaired record", slog.String("path", path), slog.Any("error", err))
		}
	}

	s.logger.Info("mismatch sweep finished",
		slog.Int("examined", len(paths)),
		slog.Int("resolved", resolved),
	)
	return resolved, nil
}

func (s *Service) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building download request: %w", err)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading pdf: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading pdf: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, fmt.Errorf("reading pdf body: %w", err)
	}
	return data, nil
}
