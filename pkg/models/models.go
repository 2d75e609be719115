// Package models defines the identity records shared between the import
// pipeline, the forecast engines and the store.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/schema"
)

// FinancialYear identifies one (company, year, period) actual. PeriodMonths
// nil means a full twelve-month year of record; 1..11 marks a partial-year
// actual used as input to intra-year projection. At most one of each may
// exist per (company, year).
type FinancialYear struct {
	ID           int64     `json:"id"`
	CompanyID    uuid.UUID `json:"company_id"`
	Year         int       `json:"year"`
	PeriodMonths *int      `json:"period_months,omitempty"`
	CreatedAt    time.Time `json:"created_at"`

	BalanceSheet    *schema.BalanceSheet    `json:"balance_sheet,omitempty"`
	IncomeStatement *schema.IncomeStatement `json:"income_statement,omitempty"`
}

// IsPartial reports whether this is a partial-year actual.
func (f *FinancialYear) IsPartial() bool {
	return f.PeriodMonths != nil
}

// ScenarioType distinguishes multi-year forecasts from the single-year
// partial-to-annual projection.
type ScenarioType string

const (
	ScenarioStandard  ScenarioType = "standard"
	ScenarioIntraYear ScenarioType = "intra_year"
)

// BudgetScenario is a named what-if container scoped to one company. Its
// base year must have full-year data; the intra-year variant additionally
// requires a partial-year actual for the projected year.
type BudgetScenario struct {
	ID           uuid.UUID    `json:"id"`
	CompanyID    uuid.UUID    `json:"company_id"`
	Name         string       `json:"name"`
	BaseYear     int          `json:"base_year"`
	Type         ScenarioType `json:"scenario_type"`
	PeriodMonths *int         `json:"period_months,omitempty"` // intra-year only
	CreatedAt    time.Time    `json:"created_at"`
}

// BudgetAssumptions holds the per-year drivers of a scenario. Percentages
// are expressed as percent values (10 = 10%), amounts in euro.
type BudgetAssumptions struct {
	ID           int64     `json:"id"`
	ScenarioID   uuid.UUID `json:"scenario_id"`
	ForecastYear int       `json:"forecast_year"`

	RevenueGrowth      decimal.Decimal `json:"revenue_growth"`
	OtherRevenueGrowth decimal.Decimal `json:"other_revenue_growth"`

	// Fixed/variable cost splits. The fixed percentage partitions the base
	// year's value; each portion then grows at its own rate.
	MaterialsFixedPct    decimal.Decimal `json:"materials_fixed_pct"`
	MaterialsFixedGrowth decimal.Decimal `json:"materials_fixed_growth"`
	MaterialsVarGrowth   decimal.Decimal `json:"materials_var_growth"`
	ServicesFixedPct     decimal.Decimal `json:"services_fixed_pct"`
	ServicesFixedGrowth  decimal.Decimal `json:"services_fixed_growth"`
	ServicesVarGrowth    decimal.Decimal `json:"services_var_growth"`

	RentGrowth      decimal.Decimal `json:"rent_growth"`
	PersonnelGrowth decimal.Decimal `json:"personnel_growth"`

	NewInvestment    decimal.Decimal `json:"new_investment"`
	DepreciationRate decimal.Decimal `json:"depreciation_rate"`
	TaxRate          decimal.Decimal `json:"tax_rate"`

	ReceivablesShortGrowth decimal.Decimal `json:"receivables_short_growth"`
	ReceivablesLongGrowth  decimal.Decimal `json:"receivables_long_growth"`
	ShortDebtGrowth        decimal.Decimal `json:"short_debt_growth"`

	FinancingAmount   decimal.Decimal `json:"financing_amount"`
	FinancingDuration int             `json:"financing_duration"` // years

	// Overrides replace formula-driven values for pass-through lines
	// (inventory change, internal work, impairments, provisions,
	// extraordinary items, financial income/charges), keyed by canonical
	// field name.
	Overrides schema.FieldMap `json:"overrides,omitempty"`
}

// Override returns the explicit override for a canonical field, if any.
func (a *BudgetAssumptions) Override(key string) (decimal.Decimal, bool) {
	if a.Overrides == nil {
		return decimal.Zero, false
	}
	v, ok := a.Overrides[key]
	return v, ok
}

// ForecastYear is the engine output for one scenario year, structurally
// identical to an actual year but scoped under the scenario. Upserted by
// (scenario_id, year); recomputation replaces prior values wholesale.
type ForecastYear struct {
	ScenarioID uuid.UUID `json:"scenario_id"`
	Year       int       `json:"year"`
	CreatedAt  time.Time `json:"created_at"`

	BalanceSheet    *schema.BalanceSheet    `json:"balance_sheet"`
	IncomeStatement *schema.IncomeStatement `json:"income_statement"`
}
