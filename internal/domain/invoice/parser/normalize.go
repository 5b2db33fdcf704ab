package parser

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// tatweel is the Arabic kashida joiner (U+0640). The receipt font pads
// keywords with it, so it must not survive into keyword matching.
const tatweel = "ـ"

// Normalize canonicalizes extracted text for matching: Unicode NFKC
// composition, kashida removal, whitespace trim. Pure and idempotent; the
// original line text is kept for output, normalization is compare-only.
func Normalize(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(norm.NFKC.String(s), tatweel, ""))
}
