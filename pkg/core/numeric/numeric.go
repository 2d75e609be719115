// Package numeric provides the exact-decimal helpers shared by the mapping
// and forecast engines. All statement arithmetic in this module goes through
// shopspring/decimal; float64 only appears at the boundary of callers.
package numeric

import (
	"github.com/shopspring/decimal"
)

var (
	Zero    = decimal.Zero
	Hundred = decimal.NewFromInt(100)
	Twelve  = decimal.NewFromInt(12)
)

// EuroTolerance is the tolerance used for statement-level identity checks.
var EuroTolerance = decimal.NewFromInt(1)

// CentTolerance is the tolerance used for anchor reconciliation.
var CentTolerance = decimal.New(1, -2)

// SafeDiv divides a by b, returning zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, 10)
}

// Grow applies a percentage growth rate: v * (1 + pct/100).
func Grow(v, pct decimal.Decimal) decimal.Decimal {
	return v.Mul(decimal.NewFromInt(1).Add(pct.Div(Hundred)))
}

// Pct returns pct% of v.
func Pct(v, pct decimal.Decimal) decimal.Decimal {
	return v.Mul(pct).Div(Hundred)
}

// PctOf expresses part as a percentage of whole, zero when whole is zero.
func PctOf(part, whole decimal.Decimal) decimal.Decimal {
	return SafeDiv(part, whole).Mul(Hundred)
}

// FloorZero clamps negative values to zero.
func FloorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

// Round2 rounds to euro cents.
func Round2(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// Annualize scales a partial-year flow of the given length to twelve months.
func Annualize(v decimal.Decimal, months int) decimal.Decimal {
	if months <= 0 {
		return decimal.Zero
	}
	return v.Mul(Twelve).DivRound(decimal.NewFromInt(int64(months)), 10)
}

// Sum adds any number of values.
func Sum(vs ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range vs {
		total = total.Add(v)
	}
	return total
}

// Within reports whether a and b differ by at most tol.
func Within(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().Cmp(tol) <= 0
}
