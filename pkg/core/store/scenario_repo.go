package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bilancio/pkg/models"
)

// ScenarioRepo stores scenarios, their per-year assumptions and the computed
// forecasts. Schema assumption:
//
//	CREATE TABLE budget_scenarios (
//	  id UUID PRIMARY KEY,
//	  company_id UUID NOT NULL,
//	  name TEXT NOT NULL,
//	  base_year INT NOT NULL,
//	  scenario_type TEXT NOT NULL,
//	  period_months INT,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE TABLE budget_assumptions (
//	  id BIGSERIAL PRIMARY KEY,
//	  scenario_id UUID NOT NULL REFERENCES budget_scenarios(id) ON DELETE CASCADE,
//	  forecast_year INT NOT NULL,
//	  drivers JSONB NOT NULL,
//	  UNIQUE (scenario_id, forecast_year)
//	);
//	CREATE TABLE budget_forecasts (
//	  scenario_id UUID NOT NULL REFERENCES budget_scenarios(id) ON DELETE CASCADE,
//	  year INT NOT NULL,
//	  balance_sheet JSONB NOT NULL,
//	  income_statement JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
//	  PRIMARY KEY (scenario_id, year)
//	);
type ScenarioRepo struct{}

// NewScenarioRepo creates a new repository instance.
func NewScenarioRepo() *ScenarioRepo {
	return &ScenarioRepo{}
}

// Create inserts a scenario, assigning its id when zero.
func (r *ScenarioRepo) Create(ctx context.Context, sc *models.BudgetScenario) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}

	query := `
		INSERT INTO budget_scenarios (id, company_id, name, base_year, scenario_type, period_months)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := pool.Exec(ctx, query, sc.ID, sc.CompanyID, sc.Name, sc.BaseYear, sc.Type, sc.PeriodMonths)
	if err != nil {
		return fmt.Errorf("failed to create scenario: %w", err)
	}
	return nil
}

// Scenario loads one scenario by id.
func (r *ScenarioRepo) Scenario(ctx context.Context, id uuid.UUID) (*models.BudgetScenario, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT id, company_id, name, base_year, scenario_type, period_months, created_at
		FROM budget_scenarios WHERE id = $1
	`
	var sc models.BudgetScenario
	err := pool.QueryRow(ctx, query, id).Scan(
		&sc.ID, &sc.CompanyID, &sc.Name, &sc.BaseYear, &sc.Type, &sc.PeriodMonths, &sc.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("scenario %s: %w", id, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario: %w", err)
	}
	return &sc, nil
}

// SaveAssumptions upserts one assumption year, keeping the driver set as a
// single JSONB blob.
func (r *ScenarioRepo) SaveAssumptions(ctx context.Context, a *models.BudgetAssumptions) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	drivers, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("failed to marshal assumptions: %w", err)
	}

	query := `
		INSERT INTO budget_assumptions (scenario_id, forecast_year, drivers)
		VALUES ($1, $2, $3)
		ON CONFLICT (scenario_id, forecast_year)
		DO UPDATE SET drivers = EXCLUDED.drivers;
	`
	if _, err := pool.Exec(ctx, query, a.ScenarioID, a.ForecastYear, drivers); err != nil {
		return fmt.Errorf("failed to save assumptions: %w", err)
	}
	return nil
}

// Assumptions returns a scenario's assumption years in ascending year order,
// the order the forecast engine consumes them in.
func (r *ScenarioRepo) Assumptions(ctx context.Context, scenarioID uuid.UUID) ([]models.BudgetAssumptions, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT id, drivers FROM budget_assumptions
		WHERE scenario_id = $1
		ORDER BY forecast_year ASC
	`
	rows, err := pool.Query(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load assumptions: %w", err)
	}
	defer rows.Close()

	var out []models.BudgetAssumptions
	for rows.Next() {
		var id int64
		var drivers []byte
		if err := rows.Scan(&id, &drivers); err != nil {
			return nil, fmt.Errorf("failed to scan assumptions: %w", err)
		}
		var a models.BudgetAssumptions
		if err := json.Unmarshal(drivers, &a); err != nil {
			return nil, fmt.Errorf("failed to unmarshal assumptions: %w", err)
		}
		a.ID = id
		out = append(out, a)
	}
	return out, rows.Err()
}

// SaveForecasts replaces a scenario's forecast years in one transaction:
// either the whole new set lands or the previous set survives intact.
func (r *ScenarioRepo) SaveForecasts(ctx context.Context, forecasts []models.ForecastYear) error {
	if len(forecasts) == 0 {
		return nil
	}
	scenarioID := forecasts[0].ScenarioID

	return WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM budget_forecasts WHERE scenario_id = $1`, scenarioID); err != nil {
			return fmt.Errorf("failed to clear forecasts: %w", err)
		}

		query := `
			INSERT INTO budget_forecasts (scenario_id, year, balance_sheet, income_statement)
			VALUES ($1, $2, $3, $4)
		`
		for _, f := range forecasts {
			bsJSON, isJSON, err := marshalStatements(f.BalanceSheet, f.IncomeStatement)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx, query, f.ScenarioID, f.Year, bsJSON, isJSON); err != nil {
				return fmt.Errorf("failed to save forecast year %d: %w", f.Year, err)
			}
		}
		return nil
	})
}

// Forecasts returns a scenario's computed years in ascending order.
func (r *ScenarioRepo) Forecasts(ctx context.Context, scenarioID uuid.UUID) ([]models.ForecastYear, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT scenario_id, year, balance_sheet, income_statement, created_at
		FROM budget_forecasts
		WHERE scenario_id = $1
		ORDER BY year ASC
	`
	rows, err := pool.Query(ctx, query, scenarioID)
	if err != nil {
		return nil, fmt.Errorf("failed to load forecasts: %w", err)
	}
	defer rows.Close()

	var out []models.ForecastYear
	for rows.Next() {
		var f models.ForecastYear
		var bsJSON, isJSON []byte
		if err := rows.Scan(&f.ScenarioID, &f.Year, &bsJSON, &isJSON, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan forecast: %w", err)
		}
		bs, is, err := unmarshalStatements(bsJSON, isJSON)
		if err != nil {
			return nil, err
		}
		f.BalanceSheet, f.IncomeStatement = bs, is
		out = append(out, f)
	}
	return out, rows.Err()
}

// ForecastStore bundles the repositories into the dependency surface the
// forecast engines expect.
type ForecastStore struct {
	Years     *YearsRepo
	Scenarios *ScenarioRepo
}

// NewForecastStore wires the default repositories.
func NewForecastStore() *ForecastStore {
	return &ForecastStore{Years: NewYearsRepo(), Scenarios: NewScenarioRepo()}
}

func (s *ForecastStore) Scenario(ctx context.Context, id uuid.UUID) (*models.BudgetScenario, error) {
	return s.Scenarios.Scenario(ctx, id)
}

func (s *ForecastStore) FullYear(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error) {
	return s.Years.FullYear(ctx, companyID, year)
}

func (s *ForecastStore) PartialYear(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error) {
	return s.Years.PartialYear(ctx, companyID, year)
}

func (s *ForecastStore) Assumptions(ctx context.Context, scenarioID uuid.UUID) ([]models.BudgetAssumptions, error) {
	return s.Scenarios.Assumptions(ctx, scenarioID)
}

func (s *ForecastStore) SaveForecasts(ctx context.Context, forecasts []models.ForecastYear) error {
	return s.Scenarios.SaveForecasts(ctx, forecasts)
}
