// Package pdfimport validates and maps statement field dictionaries produced
// by the external OCR/LLM extraction step. The extraction itself (PDF text,
// table geometry, model calls) happens upstream; this package is the last
// defense before an unbalanced or misread statement reaches the store.
package pdfimport

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseItalianNumber converts Italian-formatted numeral text into an exact
// decimal: "." as thousands separator, "," as decimal separator,
// parenthesization for negatives, dash or blank for zero. OCR sometimes
// merges two adjacent cells into one string; in that case only the first
// number is returned.
func ParseItalianNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" || s == "–" || s == "—" {
		return decimal.Zero, nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.Contains(s, ")") {
		negative = true
		s = s[1:strings.Index(s, ")")]
		s = strings.TrimSpace(s)
	}
	if strings.HasPrefix(s, "-") {
		negative = true
		s = strings.TrimSpace(s[1:])
	}

	// Currency symbols vanish before any tokenization, so "€ 950,00" stays
	// one number rather than a symbol token plus a numeric token.
	s = strings.TrimSpace(strings.ReplaceAll(s, "€", ""))

	// Merged-cell heuristic: keep the first whitespace-separated token that
	// parses as a numeral.
	if fields := strings.Fields(s); len(fields) > 1 {
		s = fields[0]
		for _, tok := range fields {
			if _, err := decimal.NewFromString(normalizeNumeral(tok)); err == nil {
				s = tok
				break
			}
		}
	}

	v, err := decimal.NewFromString(normalizeNumeral(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("pdfimport: unparseable numeral %q: %w", s, err)
	}
	if negative {
		v = v.Neg()
	}
	return v, nil
}

// normalizeNumeral rewrites Italian separators into decimal syntax: "." as
// thousands grouping drops, "," becomes the decimal point.
func normalizeNumeral(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	return strings.TrimSpace(s)
}
