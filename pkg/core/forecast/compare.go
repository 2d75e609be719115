package forecast

import (
	"sort"

	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
)

// FieldComparison puts a partial-year figure next to its full-year reference.
// Annualized is the naive 12/m scale-up, shown so a user can judge whether a
// line is on track before committing to an intra-year projection.
type FieldComparison struct {
	Field          string          `json:"field"`
	Partial        decimal.Decimal `json:"partial"`
	Reference      decimal.Decimal `json:"reference"`
	PctOfReference decimal.Decimal `json:"pct_of_reference"`
	Annualized     decimal.Decimal `json:"annualized"`
}

// Compare lines up a partial-year statement pair against a reference full
// year, field by field. Fields zero in both years are omitted. Results are
// sorted by field key so output is stable across runs.
func Compare(partialBS, referenceBS *schema.BalanceSheet, partialIS, referenceIS *schema.IncomeStatement, months int) []FieldComparison {
	partial := partialBS.ToMap()
	for k, v := range partialIS.ToMap() {
		partial[k] = v
	}
	reference := referenceBS.ToMap()
	for k, v := range referenceIS.ToMap() {
		reference[k] = v
	}

	keys := make(map[string]bool, len(partial)+len(reference))
	for k := range partial {
		keys[k] = true
	}
	for k := range reference {
		keys[k] = true
	}

	out := make([]FieldComparison, 0, len(keys))
	for k := range keys {
		p, r := partial[k], reference[k]
		c := FieldComparison{
			Field:          k,
			Partial:        p,
			Reference:      r,
			PctOfReference: numeric.PctOf(p, r),
		}
		// Balance sheet entries are stocks, not flows: scaling a point-in-time
		// balance by 12/m would be meaningless.
		if !schema.IsBalanceSheetKey(k) {
			c.Annualized = numeric.Annualize(p, months)
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
