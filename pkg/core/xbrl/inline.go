package xbrl

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

// ParseInlineInstance extracts facts from an inline-XBRL (xHTML) document.
// Chamber of commerce distributions increasingly ship the statement as xHTML
// with ix:nonFraction elements instead of a plain instance; the output is
// identical to ParseInstance.
func ParseInlineInstance(r io.Reader) (*Document, error) {
	sel, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("xbrl: decoding inline document: %w", err)
	}

	ctxYears := make(map[string]int)
	sel.Find("context, xbrli\\:context").Each(func(_ int, s *goquery.Selection) {
		id, ok := s.Attr("id")
		if !ok {
			return
		}
		p := period{
			Instant: s.Find("instant, xbrli\\:instant").First().Text(),
			EndDate: s.Find("enddate, xbrli\\:enddate").First().Text(),
		}
		if y, okY := p.year(); okY {
			ctxYears[id] = y
		}
	})
	if len(ctxYears) == 0 {
		return nil, ErrMissingContexts
	}

	doc := &Document{Years: make(map[int]Facts), ContextYears: ctxYears}
	sel.Find("ix\\:nonfraction, nonfraction").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("name")
		ctxRef, _ := s.Attr("contextref")
		year, ok := ctxYears[ctxRef]
		if !ok || name == "" {
			return
		}
		v, okV := parseInlineNumber(s)
		if !okV {
			return
		}
		doc.addFact(year, localName(name), v)
	})
	return doc, nil
}

// parseInlineNumber applies the ix transformation attributes: sign flips the
// value, scale shifts the decimal point, and the Italian comma-decimal
// format is normalized before parsing.
func parseInlineNumber(s *goquery.Selection) (decimal.Decimal, bool) {
	text := strings.TrimSpace(s.Text())
	if text == "" || text == "-" {
		return decimal.Zero, true
	}

	text = strings.ReplaceAll(text, ".", "")
	text = strings.ReplaceAll(text, ",", ".")
	v, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, false
	}

	if scale, ok := s.Attr("scale"); ok && scale != "" && scale != "0" {
		if exp, errS := decimal.NewFromString(scale); errS == nil {
			v = v.Shift(int32(exp.IntPart()))
		}
	}
	if sign, ok := s.Attr("sign"); ok && sign == "-" {
		v = v.Neg()
	}
	return v, true
}
