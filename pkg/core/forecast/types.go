// Package forecast projects a base year's statements forward under per-year
// assumptions. The full-year engine chains an income statement and a balance
// sheet per assumption year; the intra-year engine annualizes a partial-year
// actual against a reference full year. Both enforce the accounting identity
// through a cash plug.
package forecast

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/pkg/models"
)

var (
	// ErrScenarioNotFound: the scenario id resolves to nothing.
	ErrScenarioNotFound = errors.New("forecast: scenario not found")
	// ErrMissingBaseYear: the scenario's base year has no full-year actuals.
	ErrMissingBaseYear = errors.New("forecast: base year actuals not found")
	// ErrMissingPartialYear: intra-year projection without a partial actual.
	ErrMissingPartialYear = errors.New("forecast: partial-year actuals not found")
	// ErrMissingAssumptions: no assumption rows for the scenario.
	ErrMissingAssumptions = errors.New("forecast: no assumptions for scenario")
	// ErrScenarioType: engine invoked on the wrong scenario type.
	ErrScenarioType = errors.New("forecast: wrong scenario type for engine")
	// ErrBadPeriod: intra-year scenario without a 1..11 month period.
	ErrBadPeriod = errors.New("forecast: intra-year scenario needs period between 1 and 11 months")
	// ErrBadAssumptionYear: assumption year not after the base year, or
	// duplicated within the scenario.
	ErrBadAssumptionYear = errors.New("forecast: invalid assumption year")
)

// Store is the persistence collaborator the engines read from and write to.
// SaveForecasts must be atomic: either every forecast year of the scenario
// is replaced or none is. Lookups must prefer a full-year record over a
// partial-year record for the same (company, year). Assumptions may come
// back in any order; the engines sort before chaining.
type Store interface {
	Scenario(ctx context.Context, id uuid.UUID) (*models.BudgetScenario, error)
	FullYear(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error)
	PartialYear(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error)
	Assumptions(ctx context.Context, scenarioID uuid.UUID) ([]models.BudgetAssumptions, error)
	SaveForecasts(ctx context.Context, forecasts []models.ForecastYear) error
}

// Depreciation is allocated across the three fixed-asset categories with a
// fixed heuristic split; kept as named constants for behavioral parity with
// the established model.
var (
	DeprSplitIntangible = decimal.NewFromInt(30) // % of total depreciation
	DeprSplitTangible   = decimal.NewFromInt(60)
	DeprSplitFinancial  = decimal.NewFromInt(10)
)

// Default short-term debt composition used when the base year carries no
// detail breakdown: 40% financial (banks, bonds), 60% operating, further
// subdivided by fixed percentages.
var defaultShortDebtSplit = map[string]decimal.Decimal{
	"banche":        decimal.NewFromInt(35),
	"obbligazioni":  decimal.NewFromInt(5),
	"fornitori":     decimal.NewFromInt(40),
	"acconti":       decimal.NewFromInt(2),
	"tributari":     decimal.NewFromInt(8),
	"previdenziali": decimal.NewFromInt(4),
	"altri":         decimal.NewFromInt(6),
}

// Default long-term debt composition, bank-heavy as typical for closely held
// Italian companies.
var defaultLongDebtSplit = map[string]decimal.Decimal{
	"banche":        decimal.NewFromInt(70),
	"obbligazioni":  decimal.NewFromInt(10),
	"fornitori":     decimal.NewFromInt(5),
	"acconti":       decimal.NewFromInt(0),
	"tributari":     decimal.NewFromInt(5),
	"previdenziali": decimal.NewFromInt(0),
	"altri":         decimal.NewFromInt(10),
}
