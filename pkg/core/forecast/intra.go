package forecast

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
	"bilancio/pkg/models"
)

// Project annualizes a partial-year actual to a full twelve-month forecast.
// Single-year variant of Generate with different data sourcing: growth rates
// still anchor on the reference full year, but the lines a user cannot
// meaningfully steer are annualized straight from the partial actual, which
// is more reliable than a guessed growth rate.
func (e *Engine) Project(ctx context.Context, scenarioID uuid.UUID) (*models.ForecastYear, error) {
	scenario, err := e.store.Scenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if scenario.Type != models.ScenarioIntraYear {
		return nil, fmt.Errorf("%w: %s", ErrScenarioType, scenario.Type)
	}
	if scenario.PeriodMonths == nil || *scenario.PeriodMonths < 1 || *scenario.PeriodMonths > 11 {
		return nil, ErrBadPeriod
	}
	months := *scenario.PeriodMonths

	assumptions, err := e.store.Assumptions(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	// Intra-year scenarios forecast only the current partial year's
	// annualization, never a multi-year horizon.
	if len(assumptions) != 1 {
		return nil, fmt.Errorf("%w: intra-year scenario needs exactly one assumption year, has %d",
			ErrMissingAssumptions, len(assumptions))
	}
	a := assumptions[0]

	reference, err := e.store.FullYear(ctx, scenario.CompanyID, scenario.BaseYear)
	if err != nil {
		return nil, err
	}
	if reference == nil || reference.BalanceSheet == nil || reference.IncomeStatement == nil {
		return nil, fmt.Errorf("%w: company %s year %d", ErrMissingBaseYear, scenario.CompanyID, scenario.BaseYear)
	}

	partial, err := e.store.PartialYear(ctx, scenario.CompanyID, a.ForecastYear)
	if err != nil {
		return nil, err
	}
	if partial == nil || partial.BalanceSheet == nil || partial.IncomeStatement == nil {
		return nil, fmt.Errorf("%w: company %s year %d", ErrMissingPartialYear, scenario.CompanyID, a.ForecastYear)
	}

	is := projectIntraIncome(reference.IncomeStatement, partial.IncomeStatement, &a, months)
	bs := projectIntraBalance(reference, partial, is, &a, months)

	log.Debug().
		Str("scenario", scenarioID.String()).
		Int("year", a.ForecastYear).
		Int("period_months", months).
		Str("net_profit", is.NetProfit().String()).
		Msg("intra-year projection computed")

	forecast := models.ForecastYear{
		ScenarioID:      scenarioID,
		Year:            a.ForecastYear,
		BalanceSheet:    bs,
		IncomeStatement: is,
	}
	if err := e.store.SaveForecasts(ctx, []models.ForecastYear{forecast}); err != nil {
		return nil, err
	}
	return &forecast, nil
}

func projectIntraIncome(ref, partial *schema.IncomeStatement, a *models.BudgetAssumptions, months int) *schema.IncomeStatement {
	is := &schema.IncomeStatement{}

	// User-steered lines grow from the reference full year, same shape as
	// the full-year engine.
	is.Ricavi = numeric.Grow(ref.Ricavi, a.RevenueGrowth)
	is.AltriRicavi = numeric.Grow(ref.AltriRicavi, a.OtherRevenueGrowth)
	is.Materie = splitGrow(ref.Materie, a.MaterialsFixedPct, a.MaterialsFixedGrowth, a.MaterialsVarGrowth)
	is.Servizi = splitGrow(ref.Servizi, a.ServicesFixedPct, a.ServicesFixedGrowth, a.ServicesVarGrowth)
	is.GodimentoBeniTerzi = numeric.Grow(ref.GodimentoBeniTerzi, a.RentGrowth)
	is.Personale = numeric.Grow(ref.Personale, a.PersonnelGrowth)
	is.AccantonamentoTFR = tfrAccrual(ref, is.Personale)

	// Less controllable lines annualize straight from the partial actual.
	is.VariazioneRimanenze = numeric.Annualize(partial.VariazioneRimanenze, months)
	is.IncrementiImmobilizzazioni = numeric.Annualize(partial.IncrementiImmobilizzazioni, months)
	is.Accantonamenti = numeric.Annualize(partial.Accantonamenti, months)
	is.ProventiStraordinari = numeric.Annualize(partial.ProventiStraordinari, months)
	is.OneriStraordinari = numeric.Annualize(partial.OneriStraordinari, months)
	is.UtilePerditaCambi = numeric.Annualize(partial.UtilePerditaCambi, months)

	// Depreciation: the partial actual annualized, plus pro-rated
	// depreciation on new investment for the remaining months only.
	remaining := decimal.NewFromInt(int64(12 - months)).Div(numeric.Twelve)
	newInvDepr := numeric.Pct(a.NewInvestment, a.DepreciationRate).Mul(remaining)
	is.Ammortamenti = numeric.FloorZero(numeric.Annualize(partial.Ammortamenti, months).Add(newInvDepr))

	// Override-or-carry from the reference year.
	is.Svalutazioni = carry(a, schema.CE10Svalutazioni, ref.Svalutazioni)
	is.OneriDiversi = carry(a, schema.CE12OneriDiversi, ref.OneriDiversi)
	is.ProventiPartecipazioni = carry(a, schema.CE13ProventiPart, ref.ProventiPartecipazioni)
	is.ProventiFinanziari = carry(a, schema.CE14ProventiFin, ref.ProventiFinanziari)
	is.OneriFinanziari = carry(a, schema.CE15OneriFin, ref.OneriFinanziari)
	is.RettificheFinanziarie = carry(a, schema.CE17Rettifiche, ref.RettificheFinanziarie)

	is.Imposte = numeric.FloorZero(numeric.Pct(is.ProfitBeforeTax(), a.TaxRate))
	return is
}

func projectIntraBalance(reference, partial *models.FinancialYear, is *schema.IncomeStatement, a *models.BudgetAssumptions, months int) *schema.BalanceSheet {
	refBS, refIS := reference.BalanceSheet, reference.IncomeStatement
	partBS := partial.BalanceSheet
	bs := &schema.BalanceSheet{}

	// Fixed assets start from the partial actual balance, reduced by the
	// remaining months' depreciation proportionally to the category mix,
	// increased by new investment on the same mix.
	remainingDepr := numeric.FloorZero(is.Ammortamenti.Sub(partial.IncomeStatement.Ammortamenti))
	depIntangible, depTangible, depFinancial := allocateByMix(
		remainingDepr, partBS.ImmobImmateriali, partBS.ImmobMateriali, partBS.ImmobFinanziarie)
	invIntangible, invTangible, invFinancial := allocateByMix(
		a.NewInvestment, partBS.ImmobImmateriali, partBS.ImmobMateriali, partBS.ImmobFinanziarie)
	bs.ImmobImmateriali = numeric.FloorZero(partBS.ImmobImmateriali.Add(invIntangible).Sub(depIntangible))
	bs.ImmobMateriali = numeric.FloorZero(partBS.ImmobMateriali.Add(invTangible).Sub(depTangible))
	bs.ImmobFinanziarie = numeric.FloorZero(partBS.ImmobFinanziarie.Add(invFinancial).Sub(depFinancial))

	// Working capital re-derives stocks from projected flows using the
	// reference year's turnover ratios; a nine-month stock snapshot
	// annualized naively would overstate seasonal businesses.
	bs.Rimanenze = numeric.SafeDiv(refBS.Rimanenze, refIS.Materie).Mul(is.Materie)
	bs.CreditiBreve = numeric.SafeDiv(refBS.CreditiBreve, refIS.Ricavi).Mul(is.Ricavi)
	purchasesRef := refIS.Materie.Add(refIS.Servizi)
	purchasesProj := is.Materie.Add(is.Servizi)
	bs.DebitiBreve = numeric.SafeDiv(refBS.DebitiBreve, purchasesRef).Mul(purchasesProj)

	// Long-maturity and residual items carried from the partial actual.
	bs.CreditiVersoSoci = partBS.CreditiVersoSoci
	bs.CreditiOltre = partBS.CreditiOltre
	bs.AttivitaFinanziarie = partBS.AttivitaFinanziarie
	bs.RateiRiscontiAttivi = partBS.RateiRiscontiAttivi
	bs.FondiRischi = partBS.FondiRischi
	bs.TFR = partBS.TFR
	bs.RateiRiscontiPassivi = partBS.RateiRiscontiPassivi

	// Equity rolls the reference year's completed profit into reserves; the
	// partial year has no completed profit figure yet.
	refProfit := refIS.NetProfit()
	bs.Capitale = refBS.Capitale
	bs.Riserve = refBS.Riserve.Add(refProfit)
	bs.UtileEsercizio = is.NetProfit()
	rollReserveDetails(bs, refBS, refProfit)

	// New financing lands in long-term debt in this engine.
	bs.DebitiOltre = partBS.DebitiOltre.Add(a.FinancingAmount)

	applyCashPlug(bs)

	distributeFinancialDetails(bs, partBS)
	distributeDebtDetails(bs, partBS)

	return bs
}
