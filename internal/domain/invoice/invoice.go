// Package invoice defines the record types produced by parsing a point-of-sale
// receipt PDF: the invoice itself, its line items, and the per-item mismatch
// diagnostics emitted by reconciliation.
package invoice

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend contract is plain JSON numbers, not quoted decimals.
	decimal.MarshalJSONWithoutQuotes = true
}

// TimeLayout is the wire format for invoice timestamps: ISO-8601 without a
// zone, matching the receipt's local wall-clock time.
const TimeLayout = "2006-01-02T15:04:05"

// DefaultWorksite is the sentinel used when no remarks line names a worksite.
const DefaultWorksite = "other"

// LocalTime marshals as ISO-8601 without a zone offset.
type LocalTime time.Time

func (t LocalTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(TimeLayout) + `"`), nil
}

func (t *LocalTime) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return nil
	}
	parsed, err := time.Parse(TimeLayout, s)
	if err != nil {
		return fmt.Errorf("invalid invoice timestamp %q: %w", s, err)
	}
	*t = LocalTime(parsed)
	return nil
}

// LineItem is a single reconstructed receipt row. Quantity is heuristically
// inferred and may be rewritten once by the disambiguation pass and once more
// by repair; the two price columns are read verbatim off the page.
type LineItem struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalPrice  decimal.Decimal `json:"total_price"`
	// MaterialID is always nil at parse time; a downstream enrichment step
	// owns it.
	MaterialID *int64 `json:"materialId"`
}

// Invoice is the sole externally visible artifact of a parse. Ownership
// passes to the caller on return; the parser holds no state across documents.
type Invoice struct {
	Date         *LocalTime       `json:"date"`
	WorksiteName string           `json:"worksiteName"`
	Total        *decimal.Decimal `json:"total"`
	NetTotal     *decimal.Decimal `json:"netTotal"`
	Items        []LineItem       `json:"items"`
	TotalMatch   bool             `json:"totalMatch"`
	ParsedAt     time.Time        `json:"parsedAt"`
	Confirmed    bool             `json:"confirmed"`
}

// Mismatch records one line item whose printed total disagrees with
// quantity × unit price. Diagnostic only; never persisted with the record.
type Mismatch struct {
	Description string          `json:"description"`
	Expected    decimal.Decimal `json:"expected"`
	Actual      decimal.Decimal `json:"actual"`
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %s, got %s", m.Description, m.Expected, m.Actual)
}
