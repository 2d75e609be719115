package forecast

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
	"bilancio/pkg/models"
)

// fakeStore backs engine tests with plain maps. SaveForecasts records every
// call so tests can assert on atomic, replace-wholesale behavior.
type fakeStore struct {
	scenarios   map[uuid.UUID]*models.BudgetScenario
	fullYears   map[int]*models.FinancialYear
	partials    map[int]*models.FinancialYear
	assumptions map[uuid.UUID][]models.BudgetAssumptions
	saved       [][]models.ForecastYear
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		scenarios:   map[uuid.UUID]*models.BudgetScenario{},
		fullYears:   map[int]*models.FinancialYear{},
		partials:    map[int]*models.FinancialYear{},
		assumptions: map[uuid.UUID][]models.BudgetAssumptions{},
	}
}

func (s *fakeStore) Scenario(_ context.Context, id uuid.UUID) (*models.BudgetScenario, error) {
	sc, ok := s.scenarios[id]
	if !ok {
		return nil, ErrScenarioNotFound
	}
	return sc, nil
}

func (s *fakeStore) FullYear(_ context.Context, _ uuid.UUID, year int) (*models.FinancialYear, error) {
	return s.fullYears[year], nil
}

func (s *fakeStore) PartialYear(_ context.Context, _ uuid.UUID, year int) (*models.FinancialYear, error) {
	return s.partials[year], nil
}

func (s *fakeStore) Assumptions(_ context.Context, id uuid.UUID) ([]models.BudgetAssumptions, error) {
	return s.assumptions[id], nil
}

func (s *fakeStore) SaveForecasts(_ context.Context, forecasts []models.ForecastYear) error {
	s.saved = append(s.saved, forecasts)
	return nil
}

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// baseYear2023 is a small but internally consistent full-year actual:
// assets 350,000+100,000+50,000 = 500,000 = 300,000 equity + 200,000 debt.
func baseYear2023(companyID uuid.UUID) *models.FinancialYear {
	return &models.FinancialYear{
		CompanyID: companyID,
		Year:      2023,
		BalanceSheet: &schema.BalanceSheet{
			ImmobMateriali:       d(350000),
			CreditiBreve:         d(100000),
			DisponibilitaLiquide: d(50000),
			Capitale:             d(100000),
			Riserve:              d(150000),
			UtileEsercizio:       d(50000),
			DebitiBreve:          d(200000),
		},
		IncomeStatement: &schema.IncomeStatement{
			Ricavi:       d(1000000),
			Materie:      d(400000),
			Servizi:      d(200000),
			Personale:    d(250000),
			Ammortamenti: d(50000),
			Imposte:      d(50000),
		},
	}
}

func standardScenario(store *fakeStore, assumptions ...models.BudgetAssumptions) (uuid.UUID, uuid.UUID) {
	companyID := uuid.New()
	scenarioID := uuid.New()
	store.scenarios[scenarioID] = &models.BudgetScenario{
		ID: scenarioID, CompanyID: companyID, BaseYear: 2023, Type: models.ScenarioStandard,
	}
	store.fullYears[2023] = baseYear2023(companyID)
	for i := range assumptions {
		assumptions[i].ScenarioID = scenarioID
	}
	store.assumptions[scenarioID] = assumptions
	return scenarioID, companyID
}

func TestGenerateFixedVariableCostSplit(t *testing.T) {
	store := newFakeStore()
	scenarioID, _ := standardScenario(store, models.BudgetAssumptions{
		ForecastYear:      2024,
		RevenueGrowth:     d(10),
		MaterialsFixedPct: d(40),
		// Both portions at zero growth: materials must stay flat even though
		// revenue grows 10%.
	})

	forecasts, err := NewEngine(store).Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	is := forecasts[0].IncomeStatement
	if !is.Ricavi.Equal(d(1100000)) {
		t.Errorf("revenue = %s, want 1100000", is.Ricavi)
	}
	// 40% fixed of 400,000 = 160,000 at 0% + 240,000 variable at 0% = 400,000.
	if !is.Materie.Equal(d(400000)) {
		t.Errorf("materials = %s, want 400000", is.Materie)
	}
}

func TestGenerateBalanceIdentityHolds(t *testing.T) {
	store := newFakeStore()
	scenarioID, _ := standardScenario(store,
		models.BudgetAssumptions{
			ForecastYear: 2024, RevenueGrowth: d(8), PersonnelGrowth: d(3),
			NewInvestment: d(100000), DepreciationRate: d(20), TaxRate: d(28),
			ReceivablesShortGrowth: d(5), ShortDebtGrowth: d(2),
		},
		models.BudgetAssumptions{
			ForecastYear: 2025, RevenueGrowth: d(-12), TaxRate: d(28),
			ShortDebtGrowth: d(-40),
		},
	)

	forecasts, err := NewEngine(store).Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, f := range forecasts {
		a, le := f.BalanceSheet.TotalAssets(), f.BalanceSheet.TotalLiabilitiesEquity()
		if !numeric.Within(a, le, numeric.CentTolerance) {
			t.Errorf("year %d: assets %s != liabilities+equity %s", f.Year, a, le)
		}
	}
}

func TestGenerateEquityRollsProfitInArrears(t *testing.T) {
	store := newFakeStore()
	scenarioID, _ := standardScenario(store, models.BudgetAssumptions{
		ForecastYear: 2024, TaxRate: d(50),
	})

	forecasts, err := NewEngine(store).Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bs := forecasts[0].BalanceSheet
	// Base reserves 150,000 plus the base year's 50,000 profit.
	if !bs.Riserve.Equal(d(200000)) {
		t.Errorf("reserves = %s, want 200000", bs.Riserve)
	}
	if !bs.Capitale.Equal(d(100000)) {
		t.Errorf("capital = %s, want 100000", bs.Capitale)
	}
	if !bs.UtileEsercizio.Equal(forecasts[0].IncomeStatement.NetProfit()) {
		t.Errorf("current profit %s not carried to sp13 (%s)",
			forecasts[0].IncomeStatement.NetProfit(), bs.UtileEsercizio)
	}
}

func TestGenerateCashFloorDrawsShortTermDebt(t *testing.T) {
	store := newFakeStore()
	// Heavy investment financed by nothing: the plug goes negative and must
	// surface as additional short-term debt, never as negative cash.
	scenarioID, _ := standardScenario(store, models.BudgetAssumptions{
		ForecastYear: 2024, NewInvestment: d(2000000), DepreciationRate: d(10),
	})

	forecasts, err := NewEngine(store).Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	bs := forecasts[0].BalanceSheet
	if !bs.DisponibilitaLiquide.IsZero() {
		t.Errorf("cash = %s, want 0", bs.DisponibilitaLiquide)
	}
	if bs.DebitiBreve.LessThanOrEqual(d(200000)) {
		t.Errorf("short-term debt = %s, expected revolver draw above 200000", bs.DebitiBreve)
	}
	if !numeric.Within(bs.TotalAssets(), bs.TotalLiabilitiesEquity(), numeric.CentTolerance) {
		t.Errorf("identity broken: %s vs %s", bs.TotalAssets(), bs.TotalLiabilitiesEquity())
	}
}

func TestGenerateTaxesNeverNegative(t *testing.T) {
	store := newFakeStore()
	scenarioID, _ := standardScenario(store, models.BudgetAssumptions{
		ForecastYear: 2024, RevenueGrowth: d(-80), TaxRate: d(28),
	})

	forecasts, err := NewEngine(store).Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	is := forecasts[0].IncomeStatement
	if is.ProfitBeforeTax().Sign() >= 0 {
		t.Fatalf("fixture error: expected a loss, got PBT %s", is.ProfitBeforeTax())
	}
	if !is.Imposte.IsZero() {
		t.Errorf("taxes = %s on a loss year, want 0", is.Imposte)
	}
}

func TestGenerateChainsYearsAscendingRegardlessOfStoreOrder(t *testing.T) {
	store := newFakeStore()
	// The store hands back 2025 before 2024; the engine must still chain
	// 2024 off the base year and 2025 off 2024.
	scenarioID, _ := standardScenario(store,
		models.BudgetAssumptions{ForecastYear: 2025, TaxRate: d(50)},
		models.BudgetAssumptions{ForecastYear: 2024, TaxRate: d(50)},
	)

	forecasts, err := NewEngine(store).Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if forecasts[0].Year != 2024 || forecasts[1].Year != 2025 {
		t.Fatalf("years out of order: %d, %d", forecasts[0].Year, forecasts[1].Year)
	}
	// 2025 reserves absorb 2024's profit, proof the chain ran through 2024.
	wantReserves := forecasts[0].BalanceSheet.Riserve.Add(forecasts[0].IncomeStatement.NetProfit())
	if !forecasts[1].BalanceSheet.Riserve.Equal(wantReserves) {
		t.Errorf("2025 reserves = %s, want %s (2024 reserves + 2024 profit)",
			forecasts[1].BalanceSheet.Riserve, wantReserves)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	store := newFakeStore()
	scenarioID, _ := standardScenario(store,
		models.BudgetAssumptions{
			ForecastYear: 2024, RevenueGrowth: d(7), NewInvestment: d(50000),
			DepreciationRate: d(15), TaxRate: d(28), ShortDebtGrowth: d(3),
		},
		models.BudgetAssumptions{ForecastYear: 2025, RevenueGrowth: d(4), TaxRate: d(28)},
	)

	engine := NewEngine(store)
	first, err := engine.Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	second, err := engine.Generate(context.Background(), scenarioID)
	if err != nil {
		t.Fatalf("Generate (rerun): %v", err)
	}
	for i := range first {
		a, b := first[i].BalanceSheet.ToMap(), second[i].BalanceSheet.ToMap()
		for k, v := range a {
			if !v.Equal(b[k]) {
				t.Errorf("year %d field %s: %s then %s", first[i].Year, k, v, b[k])
			}
		}
	}
	if len(store.saved) != 2 || len(store.saved[0]) != 2 {
		t.Errorf("expected two atomic saves of two years, got %d saves", len(store.saved))
	}
}

func TestGenerateRejectsBadInputs(t *testing.T) {
	ctx := context.Background()

	t.Run("wrong scenario type", func(t *testing.T) {
		store := newFakeStore()
		id := uuid.New()
		nine := 9
		store.scenarios[id] = &models.BudgetScenario{
			ID: id, BaseYear: 2023, Type: models.ScenarioIntraYear, PeriodMonths: &nine,
		}
		if _, err := NewEngine(store).Generate(ctx, id); !errors.Is(err, ErrScenarioType) {
			t.Errorf("err = %v, want ErrScenarioType", err)
		}
	})

	t.Run("missing base year", func(t *testing.T) {
		store := newFakeStore()
		id := uuid.New()
		store.scenarios[id] = &models.BudgetScenario{ID: id, BaseYear: 2023, Type: models.ScenarioStandard}
		if _, err := NewEngine(store).Generate(ctx, id); !errors.Is(err, ErrMissingBaseYear) {
			t.Errorf("err = %v, want ErrMissingBaseYear", err)
		}
	})

	t.Run("assumption year not after base", func(t *testing.T) {
		store := newFakeStore()
		id, _ := standardScenario(store, models.BudgetAssumptions{ForecastYear: 2023})
		if _, err := NewEngine(store).Generate(ctx, id); !errors.Is(err, ErrBadAssumptionYear) {
			t.Errorf("err = %v, want ErrBadAssumptionYear", err)
		}
	})

	t.Run("duplicate assumption year", func(t *testing.T) {
		store := newFakeStore()
		id, _ := standardScenario(store,
			models.BudgetAssumptions{ForecastYear: 2024},
			models.BudgetAssumptions{ForecastYear: 2024},
		)
		if _, err := NewEngine(store).Generate(ctx, id); !errors.Is(err, ErrBadAssumptionYear) {
			t.Errorf("err = %v, want ErrBadAssumptionYear", err)
		}
	})

	t.Run("no assumptions", func(t *testing.T) {
		store := newFakeStore()
		id, _ := standardScenario(store)
		if _, err := NewEngine(store).Generate(ctx, id); !errors.Is(err, ErrMissingAssumptions) {
			t.Errorf("err = %v, want ErrMissingAssumptions", err)
		}
	})
}
