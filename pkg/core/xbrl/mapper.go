package xbrl

import (
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
)

// Adjustment records one anchor reconciliation applied by the mapper.
type Adjustment struct {
	Anchor      string          `json:"anchor"`
	XBRLTotal   decimal.Decimal `json:"xbrl_total"`
	ImportedSum decimal.Decimal `json:"imported_sum"`
	Adjustment  decimal.Decimal `json:"adjustment"`
	TargetField string          `json:"target_field"`
}

// UnmappedTag is a nonzero fact no rule consumed, surfaced for operator
// review. It never blocks the import.
type UnmappedTag struct {
	Tag   string          `json:"tag"`
	Value decimal.Decimal `json:"value"`
}

// Report is the reconciliation/diagnostic output of one mapping run.
type Report struct {
	Adjustments []Adjustment  `json:"adjustments,omitempty"`
	Unmapped    []UnmappedTag `json:"unmapped,omitempty"`
	Warnings    []string      `json:"warnings,omitempty"`
}

// Mapper maps one year's facts onto the canonical schema.
type Mapper struct {
	rules RuleSet
}

// NewMapper builds a mapper over the given rule set.
func NewMapper(rules RuleSet) *Mapper {
	return &Mapper{rules: rules}
}

// DefaultMapper uses the built-in itcc-ci rule tables.
func DefaultMapper() *Mapper {
	return NewMapper(defaultRules)
}

// MapFacts produces the balance-sheet and income-statement dictionaries for
// one fiscal year plus the reconciliation report. Matching is deterministic:
// fields and fact tags are always visited in sorted order.
func (m *Mapper) MapFacts(facts Facts) (schema.FieldMap, schema.FieldMap, *Report) {
	bs := schema.FieldMap{}
	is := schema.FieldMap{}
	report := &Report{}

	consumed := make(map[string]bool)
	populated := make(map[string]bool)
	tags := sortedTags(facts)

	put := func(field string, v decimal.Decimal) {
		populated[field] = true
		if balanceSheetFields[field] || strings.HasPrefix(field, "sp") {
			bs.Put(field, v)
		} else {
			is.Put(field, v)
		}
	}

	// Pass 1: priority rules, in deterministic field order.
	for _, field := range sortedFields(m.rules) {
		rule := m.rules[field]

		if rule.AccumulateAll {
			total := decimal.Zero
			matched := false
			for _, dt := range rule.DetailTags {
				if v, ok := facts[dt]; ok {
					total = total.Add(v)
					consumed[dt] = true
					matched = true
				}
			}
			if matched {
				put(field, total)
			}
			m.routeDetails(rule, facts, consumed, put)
			continue
		}

		matched := false
		for _, candidate := range rule.Priorities {
			tag, v, ok := findTag(facts, tags, candidate)
			if !ok {
				continue
			}
			put(field, v)
			consumed[tag] = true
			matched = true
			break
		}

		// Fallback: sum whatever detail tags are present.
		if !matched && len(rule.DetailTags) > 0 {
			total := decimal.Zero
			found := false
			for _, dt := range rule.DetailTags {
				if v, ok := facts[dt]; ok {
					total = total.Add(v)
					consumed[dt] = true
					found = true
				}
			}
			if found {
				put(field, total)
			}
		}

		m.routeDetails(rule, facts, consumed, put)
	}

	// Pass 2: aggregate anchors. The anchor value itself is never written to
	// the output; the mapped short+long split is reconciled against it and
	// the residual lands in the short-term bucket.
	for _, ar := range anchorRules {
		anchor, ok := m.captureAnchor(facts, ar, consumed)
		if !ok {
			continue
		}
		mapped := bs.Get(ar.shortField).Add(bs.Get(ar.longField))
		delta := anchor.Sub(mapped)
		if delta.Abs().Cmp(numeric.CentTolerance) <= 0 {
			continue
		}
		bs.Put(ar.shortField, bs.Get(ar.shortField).Add(delta))
		populated[ar.shortField] = true
		report.Adjustments = append(report.Adjustments, Adjustment{
			Anchor:      ar.name,
			XBRLTotal:   anchor,
			ImportedSum: mapped,
			Adjustment:  delta,
			TargetField: ar.shortField,
		})
		log.Warn().
			Str("anchor", ar.name).
			Str("xbrl_total", anchor.String()).
			Str("imported_sum", mapped.String()).
			Str("adjustment", delta.String()).
			Msg("anchor reconciliation applied")
	}

	// Pass 3: legacy table for older taxonomy variants. Only tags the
	// priority system left alone, and never overwriting a populated field.
	for _, tag := range tags {
		if consumed[tag] {
			continue
		}
		field, ok := legacyRules[tag]
		if !ok || populated[field] {
			continue
		}
		put(field, facts[tag])
		consumed[tag] = true
	}

	// Diagnostics: nonzero facts nothing claimed.
	for _, tag := range tags {
		if consumed[tag] || facts[tag].IsZero() {
			continue
		}
		report.Unmapped = append(report.Unmapped, UnmappedTag{Tag: tag, Value: facts[tag]})
	}
	if n := len(report.Unmapped); n > 0 {
		log.Debug().Int("count", n).Msg("unmapped nonzero tags")
	}

	return bs, is, report
}

// routeDetails copies known detail tags into their schema sub-detail fields.
func (m *Mapper) routeDetails(rule FieldRule, facts Facts, consumed map[string]bool, put func(string, decimal.Decimal)) {
	for _, dt := range rule.DetailTags {
		detailField, ok := detailFieldTags[dt]
		if !ok {
			continue
		}
		if v, present := facts[dt]; present {
			put(detailField, v)
			consumed[dt] = true
		}
	}
}

// captureAnchor finds the authoritative total for an anchor rule. Anchors
// are grand totals, so only an exact local-name match qualifies — the loose
// Totale-prefix matching of field rules would let a maturity subtotal pose
// as the anchor. A tag a field rule already claimed never doubles as one.
func (m *Mapper) captureAnchor(facts Facts, ar anchorRule, consumed map[string]bool) (decimal.Decimal, bool) {
	for _, candidate := range ar.anchorTags {
		if v, ok := facts[candidate]; ok && !consumed[candidate] {
			consumed[candidate] = true
			return v, true
		}
	}
	return decimal.Zero, false
}

// findTag resolves one candidate against the fact set: an exact local-name
// match wins, otherwise a "Totale"-prefixed tag containing the candidate as
// a substring. Tags are scanned in sorted order so the same fact set always
// selects the same tag.
func findTag(facts Facts, tags []string, candidate string) (string, decimal.Decimal, bool) {
	if v, ok := facts[candidate]; ok {
		return candidate, v, true
	}
	for _, tag := range tags {
		if strings.HasPrefix(tag, "Totale") && strings.Contains(tag, candidate) {
			return tag, facts[tag], true
		}
	}
	return "", decimal.Zero, false
}

func sortedTags(facts Facts) []string {
	tags := make([]string, 0, len(facts))
	for t := range facts {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	return tags
}

func sortedFields(rules RuleSet) []string {
	fields := make([]string, 0, len(rules))
	for f := range rules {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
