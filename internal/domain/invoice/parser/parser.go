// Package parser reconstructs structured invoice records from the raw text
// lines of a bilingual (Arabic/Latin) point-of-sale receipt. The layout has
// no field delimiters: item boundaries are inferred from a price-shaped line
// heuristic, and quantities are disambiguated among three competing
// encodings. Per-line anomalies are absorbed; only a whole-document failure
// surfaces to the caller.
package parser

import (
	"errors"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice/reconcile"
)

// ErrNoLines indicates the document produced no text at all; no record can be
// meaningfully built from it.
var ErrNoLines = errors.New("document has no text lines")

// Parser turns an ordered line sequence into an invoice record. It is
// stateless across documents: one Parse call consumes one document, and
// separate documents may be parsed concurrently on the same Parser.
type Parser struct {
	cfg    Config
	skip   *skipFilter
	logger *slog.Logger

	// stemQtyRe matches a quantity keyword stem immediately followed by
	// digits; nil when the config carries no stems.
	stemQtyRe *regexp.Regexp
	// weightRe matches the weight keyword followed by digits (the kilo
	// guard); nil when the config carries no weight keyword.
	weightRe *regexp.Regexp
}

// New builds a parser for the given vocabulary.
func New(cfg Config, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}

	p := &Parser{
		cfg:    cfg,
		skip:   newSkipFilter(cfg.SkipWords),
		logger: logger,
	}

	if len(cfg.QuantityStems) > 0 {
		quoted := make([]string, len(cfg.QuantityStems))
		for i, stem := range cfg.QuantityStems {
			quoted[i] = regexp.QuoteMeta(stem)
		}
		p.stemQtyRe = regexp.MustCompile(`(` + strings.Join(quoted, "|") + `)(\d+)`)
	}
	if cfg.WeightKeyword != "" {
		p.weightRe = regexp.MustCompile(regexp.QuoteMeta(cfg.WeightKeyword) + `\d+`)
	}

	return p
}

// Parse walks the document's ordered text lines and assembles the invoice
// record: date, worksite, line items, printed totals, and the reconciliation
// verdict. The returned mismatch list is diagnostic only and not part of the
// record.
func (p *Parser) Parse(lines []string) (*invoice.Invoice, []invoice.Mismatch, error) {
	if len(lines) == 0 {
		return nil, nil, ErrNoLines
	}

	inv := &invoice.Invoice{
		Date:         extractDate(lines),
		WorksiteName: p.extractWorksite(lines),
		Items:        p.segmentItems(lines),
		ParsedAt:     time.Now().UTC(),
	}
	inv.Total, inv.NetTotal = p.extractTotals(lines)

	result := reconcile.Reconcile(inv)

	p.logger.Info("invoice parsed",
		slog.String("worksite", inv.WorksiteName),
		slog.Int("items", len(inv.Items)),
		slog.Bool("total_match", inv.TotalMatch),
		slog.Int("item_mismatches", len(result.Mismatches)),
	)

	return inv, result.Mismatches, nil
}
