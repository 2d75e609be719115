package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"bilancio/pkg/core/schema"
	"bilancio/pkg/models"
)

// YearsRepo stores statement records. Schema assumption (managed by
// migrations elsewhere):
//
//	CREATE TABLE financial_years (
//	  id BIGSERIAL PRIMARY KEY,
//	  company_id UUID NOT NULL,
//	  year INT NOT NULL,
//	  period_months INT,               -- NULL = full year, 1..11 = partial
//	  balance_sheet JSONB NOT NULL,
//	  income_statement JSONB NOT NULL,
//	  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
//	CREATE UNIQUE INDEX financial_years_key
//	  ON financial_years (company_id, year, COALESCE(period_months, 0));
type YearsRepo struct{}

// NewYearsRepo creates a new repository instance.
func NewYearsRepo() *YearsRepo {
	return &YearsRepo{}
}

// Save upserts one statement record, keyed by (company, year, period). A
// re-import of the same period replaces the stored statements wholesale.
func (r *YearsRepo) Save(ctx context.Context, fy *models.FinancialYear) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}

	bsJSON, isJSON, err := marshalStatements(fy.BalanceSheet, fy.IncomeStatement)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO financial_years (company_id, year, period_months, balance_sheet, income_statement)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (company_id, year, COALESCE(period_months, 0))
		DO UPDATE SET
			balance_sheet = EXCLUDED.balance_sheet,
			income_statement = EXCLUDED.income_statement;
	`
	if _, err := pool.Exec(ctx, query, fy.CompanyID, fy.Year, fy.PeriodMonths, bsJSON, isJSON); err != nil {
		return fmt.Errorf("failed to save financial year: %w", err)
	}
	return nil
}

// FullYear loads the twelve-month record for (company, year), nil when none
// exists.
func (r *YearsRepo) FullYear(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error) {
	return r.load(ctx, companyID, year, `period_months IS NULL`)
}

// PartialYear loads the partial-year record for (company, year), nil when
// none exists.
func (r *YearsRepo) PartialYear(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error) {
	return r.load(ctx, companyID, year, `period_months IS NOT NULL`)
}

// Year loads the record for (company, year), preferring the full-year record
// when both a full and a partial exist.
func (r *YearsRepo) Year(ctx context.Context, companyID uuid.UUID, year int) (*models.FinancialYear, error) {
	return r.load(ctx, companyID, year, `TRUE`)
}

func (r *YearsRepo) load(ctx context.Context, companyID uuid.UUID, year int, periodFilter string) (*models.FinancialYear, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := fmt.Sprintf(`
		SELECT id, company_id, year, period_months, balance_sheet, income_statement, created_at
		FROM financial_years
		WHERE company_id = $1 AND year = $2 AND %s
		ORDER BY period_months IS NULL DESC
		LIMIT 1
	`, periodFilter)

	fy, err := scanYear(pool.QueryRow(ctx, query, companyID, year))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return fy, err
}

// List returns every record of a company, newest year first, full years
// before partials within a year.
func (r *YearsRepo) List(ctx context.Context, companyID uuid.UUID) ([]*models.FinancialYear, error) {
	pool := GetPool()
	if pool == nil {
		return nil, fmt.Errorf("database pool not initialized")
	}

	query := `
		SELECT id, company_id, year, period_months, balance_sheet, income_statement, created_at
		FROM financial_years
		WHERE company_id = $1
		ORDER BY year DESC, period_months IS NULL DESC
	`
	rows, err := pool.Query(ctx, query, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list financial years: %w", err)
	}
	defer rows.Close()

	var out []*models.FinancialYear
	for rows.Next() {
		fy, err := scanYear(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fy)
	}
	return out, rows.Err()
}

// Delete removes one record by id.
func (r *YearsRepo) Delete(ctx context.Context, id int64) error {
	pool := GetPool()
	if pool == nil {
		return fmt.Errorf("database pool not initialized")
	}
	if _, err := pool.Exec(ctx, `DELETE FROM financial_years WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete financial year: %w", err)
	}
	return nil
}

func marshalStatements(bs *schema.BalanceSheet, is *schema.IncomeStatement) ([]byte, []byte, error) {
	bsJSON, err := json.Marshal(bs.ToMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal balance sheet: %w", err)
	}
	isJSON, err := json.Marshal(is.ToMap())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal income statement: %w", err)
	}
	return bsJSON, isJSON, nil
}

func unmarshalStatements(bsJSON, isJSON []byte) (*schema.BalanceSheet, *schema.IncomeStatement, error) {
	var bsMap, isMap schema.FieldMap
	if err := json.Unmarshal(bsJSON, &bsMap); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal balance sheet: %w", err)
	}
	if err := json.Unmarshal(isJSON, &isMap); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal income statement: %w", err)
	}
	return schema.BalanceSheetFromMap(bsMap), schema.IncomeStatementFromMap(isMap), nil
}

func scanYear(row pgx.Row) (*models.FinancialYear, error) {
	var fy models.FinancialYear
	var bsJSON, isJSON []byte
	if err := row.Scan(&fy.ID, &fy.CompanyID, &fy.Year, &fy.PeriodMonths, &bsJSON, &isJSON, &fy.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pgx.ErrNoRows
		}
		return nil, fmt.Errorf("failed to scan financial year: %w", err)
	}

	bs, is, err := unmarshalStatements(bsJSON, isJSON)
	if err != nil {
		return nil, err
	}
	fy.BalanceSheet, fy.IncomeStatement = bs, is
	return &fy, nil
}
