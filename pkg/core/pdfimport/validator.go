package pdfimport

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
)

// BalanceError is the hard-gate failure: the statement's two sides disagree
// beyond the euro tolerance. Callers must reject the import; the upstream
// extraction is assumed unreliable and this is the only defense against
// silently persisting an unbalanced statement.
type BalanceError struct {
	TotalAssets            decimal.Decimal
	TotalLiabilitiesEquity decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf("pdfimport: statement does not balance: attivo %s vs passivo %s",
		e.TotalAssets.StringFixed(2), e.TotalLiabilitiesEquity.StringFixed(2))
}

// statedOrComputed prefers the document's authoritative total, falling back
// to the component sum when the extraction missed the total row.
func statedOrComputed(fields schema.FieldMap, key string, computed decimal.Decimal) decimal.Decimal {
	if v, ok := fields[key]; ok {
		return v
	}
	return computed
}

// ValidateBalance checks the fundamental accounting identity on the stated
// totals. Returns nil when |attivo - passivo| <= EUR 1, a *BalanceError
// otherwise.
func ValidateBalance(fields schema.FieldMap) error {
	bs := schema.BalanceSheetFromMap(fields)
	attivo := statedOrComputed(fields, KeyTotaleAttivo, bs.TotalAssets())
	passivo := statedOrComputed(fields, KeyTotalePassivo, bs.TotalLiabilitiesEquity())
	if !numeric.Within(attivo, passivo, numeric.EuroTolerance) {
		return &BalanceError{TotalAssets: attivo, TotalLiabilitiesEquity: passivo}
	}
	return nil
}

// ValidateHierarchy recomputes each side from its components and compares
// against the stated totals. Mismatches flag sub-item misclassification even
// when the top-level identity happens to hold; they are warnings, never
// fatal.
func ValidateHierarchy(fields schema.FieldMap) []string {
	bs := schema.BalanceSheetFromMap(fields)
	var warnings []string

	if stated, ok := fields[KeyTotaleAttivo]; ok {
		if computed := bs.TotalAssets(); !numeric.Within(stated, computed, numeric.EuroTolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"totale attivo %s differs from component sum %s",
				stated.StringFixed(2), computed.StringFixed(2)))
		}
	}
	if stated, ok := fields[KeyTotalePassivo]; ok {
		if computed := bs.TotalLiabilitiesEquity(); !numeric.Within(stated, computed, numeric.EuroTolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"totale passivo %s differs from component sum %s",
				stated.StringFixed(2), computed.StringFixed(2)))
		}
	}
	warnings = append(warnings, bs.DetailChecks()...)
	return warnings
}

// CorrectEquity reconciles the equity block against the stated liabilities
// total. Expected equity is what remains of the stated total after the
// non-equity blocks; when it disagrees with capital+reserves+profit beyond
// the euro tolerance the reserves field is overwritten so that equity
// reconciles exactly. The correction keeps automation unblocked on
// borderline extractions and is always logged. Returns true when a
// correction was applied.
func CorrectEquity(fields schema.FieldMap) bool {
	stated, ok := fields[KeyTotalePassivo]
	if !ok {
		return false
	}

	nonEquity := numeric.Sum(
		fields.Get(schema.SP14FondiRischi),
		fields.Get(schema.SP15TFR),
		fields.Get(schema.SP16DebitiBreve),
		fields.Get(schema.SP17DebitiOltre),
		fields.Get(schema.SP18RateiPassivi),
	)
	expected := stated.Sub(nonEquity)
	actual := numeric.Sum(
		fields.Get(schema.SP11Capitale),
		fields.Get(schema.SP12Riserve),
		fields.Get(schema.SP13UtileEsercizio),
	)
	if numeric.Within(expected, actual, numeric.EuroTolerance) {
		return false
	}

	corrected := expected.
		Sub(fields.Get(schema.SP11Capitale)).
		Sub(fields.Get(schema.SP13UtileEsercizio))
	log.Warn().
		Str("old_riserve", fields.Get(schema.SP12Riserve).String()).
		Str("new_riserve", corrected.String()).
		Str("expected_equity", expected.String()).
		Str("actual_equity", actual.String()).
		Msg("equity auto-correction: overwriting reserves")
	fields.Put(schema.SP12Riserve, corrected)
	return true
}

// Result is the outcome of a validated PDF import for one fiscal year.
type Result struct {
	BalanceSheet    schema.FieldMap
	IncomeStatement schema.FieldMap
	Warnings        []string
	EquityAdjusted  bool
}

// ImportYear maps one year's extracted lines and runs the full validation
// sequence: equity correction first (it may repair the identity), then the
// balance hard gate, then hierarchy warnings.
func ImportYear(lines []Line) (*Result, error) {
	bs, is, warnings := MapLines(lines)

	adjusted := CorrectEquity(bs)
	if err := ValidateBalance(bs); err != nil {
		return nil, err
	}
	warnings = append(warnings, ValidateHierarchy(bs)...)

	return &Result{
		BalanceSheet:    bs,
		IncomeStatement: is,
		Warnings:        warnings,
		EquityAdjusted:  adjusted,
	}, nil
}
