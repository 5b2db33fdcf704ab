// Package reconcile checks a parsed invoice's arithmetic: it recomputes the
// sum of line-item totals with fixed-point round-half-up semantics, compares
// it against the printed grand total, and can repair quantity misreads when
// the comparison fails. All arithmetic is exact decimal; binary floating
// point would flag spurious mismatches.
package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
)

// Result reports one reconciliation pass.
type Result struct {
	// CalculatedTotal is the sum of round2(quantity × unit price) over all
	// items.
	CalculatedTotal decimal.Decimal
	// Mismatches lists items whose printed total disagrees with the computed
	// one. Diagnostic; mismatched items are kept, not rejected.
	Mismatches []invoice.Mismatch
	// Match is the derived totalMatch verdict.
	Match bool
}

// round2 rounds to two decimal places, half away from zero. Amounts in this
// domain are non-negative, so this is ROUND_HALF_UP.
func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Reconcile recomputes the invoice total from its items, records per-item
// mismatches, and sets TotalMatch on the record. A missing printed total
// forces TotalMatch to false; it is data, not an error.
func Reconcile(inv *invoice.Invoice) Result {
	res := sumItems(inv.Items)
	res.Match = matchesTotal(res.CalculatedTotal, inv.Total)
	inv.TotalMatch = res.Match
	return res
}

// Repair resolves a total mismatch by recomputing each quantity as
// round2(total price / unit price): the two price columns are typographically
// unambiguous decimal tokens and are trusted over the heuristically inferred
// quantity. Running Repair on an already-matched record is a no-op.
func Repair(inv *invoice.Invoice) Result {
	if inv.TotalMatch {
		return Result{CalculatedTotal: sumItems(inv.Items).CalculatedTotal, Match: true}
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		if item.UnitPrice.IsZero() {
			continue
		}
		corrected := round2(item.TotalPrice.Div(item.UnitPrice))
		if !corrected.Equal(item.Quantity) {
			item.Quantity = corrected
		}
	}

	res := sumItems(inv.Items)
	res.Match = matchesTotal(res.CalculatedTotal, inv.Total)
	inv.TotalMatch = res.Match
	return res
}

func sumItems(items []invoice.LineItem) Result {
	res := Result{CalculatedTotal: decimal.Zero}
	for _, item := range items {
		expected := round2(item.Quantity.Mul(item.UnitPrice))
		actual := round2(item.TotalPrice)
		if !expected.Equal(actual) {
			res.Mismatches = append(res.Mismatches, invoice.Mismatch{
				Description: item.Description,
				Expected:    expected,
				Actual:      actual,
			})
		}
		res.CalculatedTotal = res.CalculatedTotal.Add(expected)
	}
	return res
}

func matchesTotal(calculated decimal.Decimal, total *decimal.Decimal) bool {
	if total == nil {
		return false
	}
	return calculated.Equal(round2(*total))
}
