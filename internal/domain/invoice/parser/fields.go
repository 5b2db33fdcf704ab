package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
)

var (
	// dateTimeRe matches the printed timestamp, day/month/year order.
	dateTimeRe = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{2}):(\d{2}):(\d{2})`)

	// moneyRe extracts the first monetary-shaped substring from a labeled
	// line: digits with optional thousands commas, dot, two decimals.
	moneyRe = regexp.MustCompile(`([\d,]+\.\d{2})`)
)

// extractDate returns the timestamp from the first line shaped like
// "D/M/YYYY HH:MM:SS", or nil when the receipt carries none. The source
// prints day before month; that order is preserved, not re-guessed.
func extractDate(lines []string) *invoice.LocalTime {
	for _, line := range lines {
		m := dateTimeRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		year, _ := strconv.Atoi(m[3])
		hour, _ := strconv.Atoi(m[4])
		minute, _ := strconv.Atoi(m[5])
		second, _ := strconv.Atoi(m[6])
		t := invoice.LocalTime(time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC))
		return &t
	}
	return nil
}

// extractWorksite returns the worksite name from the LAST remarks line —
// later remarks override earlier placeholder ones in this vendor's layout.
// The marker substring is stripped and the remainder trimmed; no remarks line
// (or an empty remainder) yields the "other" sentinel.
func (p *Parser) extractWorksite(lines []string) string {
	marker := Normalize(p.cfg.RemarksKeyword)
	name := ""
	found := false
	for _, line := range lines {
		normLine := Normalize(line)
		if !strings.Contains(normLine, marker) {
			continue
		}
		found = true
		name = strings.TrimSpace(strings.ReplaceAll(normLine, marker, ""))
	}
	if !found || name == "" {
		return invoice.DefaultWorksite
	}
	return name
}

// extractTotals scans for the grand total and net total lines. Only the first
// qualifying line per keyword is honored — the marker keywords re-appear in
// footer boilerplate. A missing net total defaults to the grand total.
func (p *Parser) extractTotals(lines []string) (total, net *decimal.Decimal) {
	totalKw := Normalize(p.cfg.TotalKeyword)
	netKw := Normalize(p.cfg.NetKeyword)
	for _, line := range lines {
		normLine := Normalize(line)
		if total == nil && strings.Contains(normLine, totalKw) {
			if v, ok := parseMoney(line); ok {
				total = &v
			}
		}
		if net == nil && strings.Contains(normLine, netKw) {
			if v, ok := parseMoney(line); ok {
				net = &v
			}
		}
	}
	if net == nil && total != nil {
		v := *total
		net = &v
	}
	return total, net
}

// parseMoney extracts the first monetary-shaped substring of a line and
// parses it as a decimal, stripping thousands separators.
func parseMoney(line string) (decimal.Decimal, bool) {
	m := moneyRe.FindStringSubmatch(line)
	if m == nil {
		return decimal.Decimal{}, false
	}
	v, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Decimal{}, false
	}
	return v, true
}

// parseAmount parses a full price line as a decimal after stripping
// thousands separators.
func parseAmount(line string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(line), ",", ""))
}
