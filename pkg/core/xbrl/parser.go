// Package xbrl maps Italian statutory XBRL filings (itcc-ci taxonomies)
// onto the canonical statement schema. Tag sets vary by taxonomy version and
// filing software, so mapping is driven by priority-ordered rule tables and
// reconciled against the aggregate anchor totals the filing itself carries.
package xbrl

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrMissingContexts is returned when no context in the instance resolves to
// a calendar year; facts cannot be attributed and the import aborts.
var ErrMissingContexts = errors.New("xbrl: no dated contexts in instance")

// instance mirrors the subset of an XBRL instance document we read:
// contexts for period resolution and every remaining element as a fact.
type instance struct {
	XMLName  xml.Name  `xml:"xbrl"`
	Contexts []context `xml:"context"`
	Facts    []rawFact `xml:",any"`
}

type context struct {
	ID     string `xml:"id,attr"`
	Period period `xml:"period"`
}

type period struct {
	Instant   string `xml:"instant"`
	StartDate string `xml:"startDate"`
	EndDate   string `xml:"endDate"`
}

type rawFact struct {
	XMLName    xml.Name
	Value      string `xml:",chardata"`
	ContextRef string `xml:"contextRef,attr"`
}

// Facts is a flat tag -> value mapping for one fiscal year. Tags are local
// names with the namespace prefix stripped; a tag reported under several
// contexts of the same year is summed across its occurrences.
type Facts map[string]decimal.Decimal

// Document is the parsed form of one instance: per-year fact sets plus the
// resolved context years.
type Document struct {
	Years        map[int]Facts
	ContextYears map[string]int
}

// LatestYear returns the most recent year present in the document.
func (d *Document) LatestYear() (int, bool) {
	latest, found := 0, false
	for y := range d.Years {
		if !found || y > latest {
			latest, found = y, true
		}
	}
	return latest, found
}

// ParseInstance decodes a plain-XML XBRL instance. Malformed XML surfaces as
// an error with no partial state; an instance without dated contexts fails
// with ErrMissingContexts.
func ParseInstance(r io.Reader) (*Document, error) {
	var inst instance
	if err := xml.NewDecoder(r).Decode(&inst); err != nil {
		return nil, fmt.Errorf("xbrl: decoding instance: %w", err)
	}
	return buildDocument(&inst)
}

func buildDocument(inst *instance) (*Document, error) {
	ctxYears := make(map[string]int)
	for _, c := range inst.Contexts {
		if y, ok := c.Period.year(); ok {
			ctxYears[c.ID] = y
		}
	}
	if len(ctxYears) == 0 {
		return nil, ErrMissingContexts
	}

	doc := &Document{Years: make(map[int]Facts), ContextYears: ctxYears}
	for _, f := range inst.Facts {
		year, ok := ctxYears[f.ContextRef]
		if !ok {
			continue // dimensional or undated context
		}
		v, err := decimal.NewFromString(strings.TrimSpace(f.Value))
		if err != nil {
			continue // non-numeric fact (text blocks, identifiers)
		}
		doc.addFact(year, localName(f.XMLName.Local), v)
	}
	return doc, nil
}

func (d *Document) addFact(year int, tag string, v decimal.Decimal) {
	facts, ok := d.Years[year]
	if !ok {
		facts = make(Facts)
		d.Years[year] = facts
	}
	facts[tag] = facts[tag].Add(v)
}

// year resolves a context period to a calendar year: the instant date for
// balance-sheet facts, the duration end date for flow facts.
func (p period) year() (int, bool) {
	for _, s := range []string{p.Instant, p.EndDate} {
		if s == "" {
			continue
		}
		if t, err := time.Parse("2006-01-02", strings.TrimSpace(s)); err == nil {
			return t.Year(), true
		}
	}
	return 0, false
}

// localName strips any namespace prefix (itcc-ci:Rimanenze -> Rimanenze).
func localName(tag string) string {
	if i := strings.LastIndex(tag, ":"); i >= 0 {
		return tag[i+1:]
	}
	return tag
}
