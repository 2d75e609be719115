package analysis

import (
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func sampleYear() (*schema.BalanceSheet, *schema.IncomeStatement) {
	bs := &schema.BalanceSheet{
		ImmobMateriali:       d(300000),
		Rimanenze:            d(50000),
		CreditiBreve:         d(100000),
		DisponibilitaLiquide: d(50000),
		Capitale:             d(100000),
		Riserve:              d(120000),
		UtileEsercizio:       d(30000),
		TFR:                  d(50000),
		DebitiBreve:          d(125000),
		DebitiOltre:          d(75000),
	}
	is := &schema.IncomeStatement{
		Ricavi:          d(1000000),
		Materie:         d(400000),
		Servizi:         d(300000),
		Personale:       d(200000),
		Ammortamenti:    d(40000),
		OneriFinanziari: d(10000),
		Imposte:         d(20000),
	}
	return bs, is
}

func TestComputeRatios(t *testing.T) {
	bs, is := sampleYear()
	r := ComputeRatios(bs, is)

	// EBIT = 1,000,000 - 400,000 - 300,000 - 200,000 - 40,000 = 60,000.
	// ROS = 60,000 / 1,000,000 = 6%.
	if !r.ROS.Equal(d(6)) {
		t.Errorf("ROS = %s, want 6", r.ROS)
	}
	// ROE = 30,000 / 250,000 = 12%.
	if !r.ROE.Equal(d(12)) {
		t.Errorf("ROE = %s, want 12", r.ROE)
	}
	// Current assets 200,000 over short-term debt 125,000 = 1.6.
	if !r.CurrentRatio.Equal(decimal.NewFromFloat(1.6)) {
		t.Errorf("current ratio = %s, want 1.6", r.CurrentRatio)
	}
	// Quick assets 150,000 over 125,000 = 1.2.
	if !r.QuickRatio.Equal(decimal.NewFromFloat(1.2)) {
		t.Errorf("quick ratio = %s, want 1.2", r.QuickRatio)
	}
	// Debt 200,000 over equity 250,000 = 0.8.
	if !r.DebtToEquity.Equal(decimal.NewFromFloat(0.8)) {
		t.Errorf("debt/equity = %s, want 0.8", r.DebtToEquity)
	}
	// EBIT 60,000 over interest 10,000 = 6.
	if !r.InterestCoverage.Equal(d(6)) {
		t.Errorf("interest coverage = %s, want 6", r.InterestCoverage)
	}
	// Receivables 100,000 against revenue 1,000,000: 36.5 days outstanding.
	if !r.DSO.Equal(decimal.NewFromFloat(36.5)) {
		t.Errorf("DSO = %s, want 36.5", r.DSO)
	}
}

func TestComputeRatiosZeroDenominators(t *testing.T) {
	r := ComputeRatios(&schema.BalanceSheet{}, &schema.IncomeStatement{})
	for name, v := range map[string]decimal.Decimal{
		"roe": r.ROE, "roi": r.ROI, "current": r.CurrentRatio, "d/e": r.DebtToEquity,
	} {
		if !v.IsZero() {
			t.Errorf("%s = %s on empty statements, want 0", name, v)
		}
	}
}

func TestAltmanZHealthyCompany(t *testing.T) {
	bs, is := sampleYear()
	z := AltmanZ(bs, is)

	// A = (200,000-125,000)/500,000 = 0.15; B = 150,000/500,000 = 0.30;
	// C = 60,000/500,000 = 0.12; D = 250,000/250,000 = 1.0;
	// E = 1,000,000/500,000 = 2.0.
	// Z' = 0.717*0.15 + 0.847*0.30 + 3.107*0.12 + 0.420*1.0 + 0.998*2.0
	//    = 0.10755 + 0.2541 + 0.37284 + 0.42 + 1.996 = 3.15049.
	want := decimal.NewFromFloat(3.15049)
	if !z.Equal(want) {
		t.Errorf("Z' = %s, want %s", z, want)
	}
	if z.LessThan(ZSafeAbove) {
		t.Errorf("Z' = %s, expected safe zone above %s", z, ZSafeAbove)
	}
}

func TestAltmanZDegenerateInput(t *testing.T) {
	if z := AltmanZ(&schema.BalanceSheet{}, &schema.IncomeStatement{}); !z.IsZero() {
		t.Errorf("Z' on empty statements = %s, want 0", z)
	}
}

func TestDeriveCashFlowTiesToCashDelta(t *testing.T) {
	prev, _ := sampleYear()
	_, is := sampleYear()

	// One year later: fixed assets up 60,000 gross capex less 40,000
	// depreciation, receivables up, debt partly repaid.
	cur := &schema.BalanceSheet{
		ImmobMateriali: d(320000),
		Rimanenze:      d(55000),
		CreditiBreve:   d(110000),
		Capitale:       d(100000),
		Riserve:        d(150000),
		UtileEsercizio: d(30000),
		TFR:            d(55000),
		DebitiBreve:    d(120000),
		DebitiOltre:    d(70000),
	}
	// Plug closing cash to make the sheet balance.
	cur.DisponibilitaLiquide = cur.TotalLiabilitiesEquity().Sub(cur.TotalAssets())

	cf := DeriveCashFlow(prev, cur, is)

	wantNet := cur.DisponibilitaLiquide.Sub(prev.DisponibilitaLiquide)
	if !numeric.Within(cf.NetCashFlow, wantNet, numeric.CentTolerance) {
		t.Errorf("net cash flow = %s, cash delta = %s", cf.NetCashFlow, wantNet)
	}
	if !cf.ClosingCash.Equal(cur.DisponibilitaLiquide) {
		t.Errorf("closing cash = %s, want %s", cf.ClosingCash, cur.DisponibilitaLiquide)
	}
	// Capex: 320,000 - 300,000 + 40,000 depreciation = 60,000 outflow.
	if !cf.CapitalExpenditure.Equal(d(60000)) {
		t.Errorf("capex = %s, want 60000", cf.CapitalExpenditure)
	}
	if !cf.InvestingCashFlow.Equal(d(-60000)) {
		t.Errorf("investing = %s, want -60000", cf.InvestingCashFlow)
	}
	// Debt repaid 10,000.
	if !cf.DebtChange.Equal(d(-10000)) {
		t.Errorf("debt change = %s, want -10000", cf.DebtChange)
	}
}
