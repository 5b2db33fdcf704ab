package parser

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/OsaidB/Invoices-Convertor/internal/domain/invoice"
)

// lineClass tags one payload line for the segmentation state machine.
type lineClass int

const (
	classPayload lineClass = iota
	classNoise
	classPriceBoundary
)

var (
	// barePriceRe is the price-pair boundary: a stand-alone decimal with
	// exactly two places ends description accumulation.
	barePriceRe = regexp.MustCompile(`^\d+\.\d{2}$`)

	// standaloneIntRe marks a quantity-only line inside a description group.
	standaloneIntRe = regexp.MustCompile(`^\d+$`)

	// leadingDigitsRe strips leftover row-number artifacts from an assembled
	// description.
	leadingDigitsRe = regexp.MustCompile(`^\d+\s*`)

	// trailingDigitsRe captures a generic trailing digit run as a last-resort
	// quantity encoding.
	trailingDigitsRe = regexp.MustCompile(`(\d+)$`)

	// trailingOneRe strips the common leftover filler " 1" that is not a
	// quantity.
	trailingOneRe = regexp.MustCompile(`\s*1$`)
)

// classify tags a normalized line. A bare price always wins over the noise
// rules: numerals never carry skip words, and the grouped-amount shape cannot
// match a bare price.
func (p *Parser) classify(normLine string) lineClass {
	if barePriceRe.MatchString(normLine) {
		return classPriceBoundary
	}
	if p.skip.isSkippable(normLine) {
		return classNoise
	}
	return classPayload
}

// itemStart returns one past the last occurrence of the unit-price column
// header, or 0 when the header never appears.
func (p *Parser) itemStart(lines []string) int {
	header := Normalize(p.cfg.PriceHeader)
	start := 0
	for i, line := range lines {
		if strings.Contains(Normalize(line), header) {
			start = i + 1
		}
	}
	return start
}

// segmentItems walks the line list and reconstructs line items. Description
// lines accumulate until a price boundary; the boundary line and its
// successor form the (unit price, total price) pair. Malformed groups are
// recoverable: the walk advances one line and resumes, it never fails.
func (p *Parser) segmentItems(lines []string) []invoice.LineItem {
	items := make([]invoice.LineItem, 0, 8)

	i := p.itemStart(lines)
	for i < len(lines) {
		var descLines []string

	accumulate:
		for i < len(lines) {
			switch p.classify(Normalize(lines[i])) {
			case classPriceBoundary:
				break accumulate
			case classNoise:
				p.logger.Debug("skipping noise line", slog.String("line", lines[i]))
				i++
			default:
				descLines = append(descLines, lines[i])
				i++
			}
		}

		// A price pair needs two lines; exhaustion here ends segmentation
		// without a partial item.
		if i+1 >= len(lines) {
			break
		}

		unitPrice, errUnit := parseAmount(lines[i])
		totalPrice, errTotal := parseAmount(lines[i+1])
		if errUnit != nil || errTotal != nil {
			p.logger.Debug("unparsable price pair, resuming one line later",
				slog.String("unit", lines[i]), slog.String("total", lines[i+1]))
			i++
			continue
		}
		i += 2

		if item, ok := p.buildItem(descLines, unitPrice, totalPrice); ok {
			items = append(items, item)
		}
	}

	return items
}

// buildItem derives description and quantity from the buffered description
// lines and emits the item, or reports the group as unrecoverable noise.
func (p *Parser) buildItem(descLines []string, unitPrice, totalPrice decimal.Decimal) (invoice.LineItem, bool) {
	one := decimal.NewFromInt(1)
	quantity := one

	// Rule 1: a line that is purely digits (and not itself a skip word) is a
	// standalone quantity, excluded from the description.
	kept := make([]string, 0, len(descLines))
	for _, line := range descLines {
		if standaloneIntRe.MatchString(line) && !p.skip.containsSkipWord(Normalize(line)) {
			if q, err := decimal.NewFromString(line); err == nil {
				quantity = q
				continue
			}
		}
		kept = append(kept, line)
	}

	description := strings.TrimSpace(strings.Join(kept, " "))
	description = strings.TrimSpace(leadingDigitsRe.ReplaceAllString(description, ""))
	for typo, fix := range p.cfg.TypoFixes {
		description = strings.ReplaceAll(description, typo, fix)
	}

	// The emission guard judges the description as assembled, before the
	// suffix quantity rules below strip digits from it.
	normDesc := Normalize(description)

	// Rules 2 and 3 are fallbacks: they fire only while the quantity is still
	// the default 1, in strict priority order.
	if quantity.Equal(one) && description != "" {
		// Rule 2: keyword-suffixed quantity (stem immediately followed by
		// digits); the stem stays in the description.
		if m := p.stemQuantity(description); m != nil {
			if q, err := decimal.NewFromString(m[2]); err == nil {
				quantity = q
				description = strings.TrimSpace(strings.ReplaceAll(description, m[0], m[1]))
			}
		} else if m := trailingDigitsRe.FindStringSubmatch(description); m != nil && !p.hasWeightSpec(description) {
			// Rule 3: generic trailing digit run, unless the description
			// carries a weight spec (the kilo guard).
			if q, err := decimal.NewFromString(m[1]); err == nil {
				quantity = q
				description = strings.TrimSpace(strings.ReplaceAll(description, m[1], ""))
			}
		}
	}

	description = strings.TrimSpace(trailingOneRe.ReplaceAllString(description, ""))

	if utf8.RuneCountInString(normDesc) <= 2 || p.skip.containsSkipWord(normDesc) {
		p.logger.Debug("discarding noise group", slog.String("description", description))
		return invoice.LineItem{}, false
	}

	return invoice.LineItem{
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		TotalPrice:  totalPrice,
	}, true
}

func (p *Parser) stemQuantity(description string) []string {
	if p.stemQtyRe == nil {
		return nil
	}
	return p.stemQtyRe.FindStringSubmatch(description)
}

func (p *Parser) hasWeightSpec(description string) bool {
	return p.weightRe != nil && p.weightRe.MatchString(description)
}
