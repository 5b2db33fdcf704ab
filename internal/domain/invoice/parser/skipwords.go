package parser

import (
	"regexp"

	"github.com/cloudflare/ahocorasick"
)

// Config is the compiled-in domain vocabulary of one receipt vendor. It is an
// immutable value built once at startup and injected into the parser; tests
// substitute alternates.
type Config struct {
	// SkipWords are substrings whose presence anywhere in a normalized line
	// marks it as noise: currency markers, column headers, footer boilerplate
	// and the fixed customer name. Substring (not token) matching is
	// deliberate — the list mixes words and multi-word phrases, and the
	// extraction gives no reliable token boundaries in Arabic.
	SkipWords []string

	// QuantityStems are the keyword stems ("ground-level", "pole", "corners")
	// that may carry an embedded quantity suffix, e.g. عمود40 = 40 poles.
	QuantityStems []string

	// WeightKeyword guards the trailing-digit quantity rule: a digit run
	// after this keyword ("kilo") is a weight, never a quantity.
	WeightKeyword string

	// PriceHeader is the unit-price column header; item rows start after its
	// last occurrence.
	PriceHeader string

	// TotalKeyword and NetKeyword label the grand total and net total lines.
	TotalKeyword string
	NetKeyword   string

	// RemarksKeyword labels the worksite-name line.
	RemarksKeyword string

	// TypoFixes corrects known data-entry typos verbatim in assembled
	// descriptions.
	TypoFixes map[string]string
}

// DefaultConfig returns the production vocabulary for the AL-Eatimad POS
// layout.
func DefaultConfig() Config {
	return Config{
		SkipWords: []string{
			"المبلغ", "الصافي", "المجموع", "ILS",
			"شكرا", "Debit", "قرب", "النقدي", "رقم", "null", "Systems", "المستخدم",
			"مبيعات", "التاريخ", "الزبون", "الخص#البيان", "الكمي", "السعر", "جمال البابا",
		},
		QuantityStems:  []string{"ارضي", "عمود", "زوايا"},
		WeightKeyword:  "كيلو",
		PriceHeader:    "السعر",
		TotalKeyword:   "المجموع",
		NetKeyword:     "الصافي",
		RemarksKeyword: "ملاحظات",
		TypoFixes:      map[string]string{"كيلو5": "كيلو25"},
	}
}

// groupedAmountRe matches a thousands-grouped monetary figure. Such figures
// appear as running-balance noise between item rows and must not be mistaken
// for a unit price.
var groupedAmountRe = regexp.MustCompile(`^\d{1,3},\d{3}\.\d{2}$`)

// skipFilter answers "is this normalized line noise" using an Aho-Corasick
// matcher over the normalized skip words, one pass per line regardless of
// vocabulary size.
type skipFilter struct {
	matcher *ahocorasick.Matcher
	words   []string
}

func newSkipFilter(words []string) *skipFilter {
	normalized := make([]string, 0, len(words))
	patterns := make([][]byte, 0, len(words))
	for _, w := range words {
		nw := Normalize(w)
		if nw == "" {
			continue
		}
		normalized = append(normalized, nw)
		patterns = append(patterns, []byte(nw))
	}
	f := &skipFilter{words: normalized}
	if len(patterns) > 0 {
		f.matcher = ahocorasick.NewMatcher(patterns)
	}
	return f
}

// containsSkipWord reports whether any skip word occurs anywhere in the
// normalized line.
func (f *skipFilter) containsSkipWord(normLine string) bool {
	if f.matcher == nil {
		return false
	}
	return len(f.matcher.Match([]byte(normLine))) > 0
}

// isSkippable reports whether a normalized line is noise: it carries a skip
// word, or it has the shape of a grouped running-balance amount.
func (f *skipFilter) isSkippable(normLine string) bool {
	return f.containsSkipWord(normLine) || groupedAmountRe.MatchString(normLine)
}
