package forecast

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
	"bilancio/pkg/models"
)

// Engine is the multi-year forecast generator. It never mutates actual
// records: base and reference years are read-only inputs, forecast years are
// replaced wholesale on every run.
type Engine struct {
	store Store
}

// NewEngine builds an engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Generate computes every assumption year of a standard scenario in
// ascending order, chaining each year's output as the next year's reference,
// and persists the whole set atomically. The scenario's prior forecasts are
// left untouched on any failure.
func (e *Engine) Generate(ctx context.Context, scenarioID uuid.UUID) ([]models.ForecastYear, error) {
	scenario, err := e.store.Scenario(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if scenario.Type != models.ScenarioStandard {
		return nil, fmt.Errorf("%w: %s", ErrScenarioType, scenario.Type)
	}

	base, err := e.store.FullYear(ctx, scenario.CompanyID, scenario.BaseYear)
	if err != nil {
		return nil, err
	}
	if base == nil || base.BalanceSheet == nil || base.IncomeStatement == nil {
		return nil, fmt.Errorf("%w: company %s year %d", ErrMissingBaseYear, scenario.CompanyID, scenario.BaseYear)
	}

	assumptions, err := e.store.Assumptions(ctx, scenarioID)
	if err != nil {
		return nil, err
	}
	if len(assumptions) == 0 {
		return nil, fmt.Errorf("%w: scenario %s", ErrMissingAssumptions, scenarioID)
	}
	if err := checkAssumptionYears(scenario.BaseYear, assumptions); err != nil {
		return nil, err
	}
	// Chaining is order-sensitive; never trust the store to return rows
	// ascending.
	sort.Slice(assumptions, func(i, j int) bool {
		return assumptions[i].ForecastYear < assumptions[j].ForecastYear
	})

	prevBS, prevIS := base.BalanceSheet, base.IncomeStatement
	forecasts := make([]models.ForecastYear, 0, len(assumptions))
	for _, a := range assumptions {
		is := projectIncome(prevIS, &a)
		bs := projectBalance(prevBS, prevIS, is, &a)

		log.Debug().
			Str("scenario", scenarioID.String()).
			Int("year", a.ForecastYear).
			Str("net_profit", is.NetProfit().String()).
			Msg("forecast year computed")

		forecasts = append(forecasts, models.ForecastYear{
			ScenarioID:      scenarioID,
			Year:            a.ForecastYear,
			BalanceSheet:    bs,
			IncomeStatement: is,
		})
		prevBS, prevIS = bs, is
	}

	if err := e.store.SaveForecasts(ctx, forecasts); err != nil {
		return nil, err
	}
	return forecasts, nil
}

func checkAssumptionYears(baseYear int, assumptions []models.BudgetAssumptions) error {
	seen := make(map[int]bool)
	for _, a := range assumptions {
		if a.ForecastYear <= baseYear || seen[a.ForecastYear] {
			return fmt.Errorf("%w: %d (base %d)", ErrBadAssumptionYear, a.ForecastYear, baseYear)
		}
		seen[a.ForecastYear] = true
	}
	return nil
}

// projectIncome derives one forecast year's income statement from the
// previous year's figures and the year's assumptions.
func projectIncome(prev *schema.IncomeStatement, a *models.BudgetAssumptions) *schema.IncomeStatement {
	is := &schema.IncomeStatement{}

	is.Ricavi = numeric.Grow(prev.Ricavi, a.RevenueGrowth)
	is.AltriRicavi = numeric.Grow(prev.AltriRicavi, a.OtherRevenueGrowth)

	is.Materie = splitGrow(prev.Materie, a.MaterialsFixedPct, a.MaterialsFixedGrowth, a.MaterialsVarGrowth)
	is.Servizi = splitGrow(prev.Servizi, a.ServicesFixedPct, a.ServicesFixedGrowth, a.ServicesVarGrowth)

	is.GodimentoBeniTerzi = numeric.Grow(prev.GodimentoBeniTerzi, a.RentGrowth)
	is.Personale = numeric.Grow(prev.Personale, a.PersonnelGrowth)
	is.AccantonamentoTFR = tfrAccrual(prev, is.Personale)

	is.Ammortamenti = numeric.FloorZero(
		prev.Ammortamenti.Add(numeric.Pct(a.NewInvestment, a.DepreciationRate)))

	// Pass-through lines: explicit override, else carried from the base.
	is.VariazioneRimanenze = carry(a, schema.CE02VarRimanenze, prev.VariazioneRimanenze)
	is.IncrementiImmobilizzazioni = carry(a, schema.CE03Incrementi, prev.IncrementiImmobilizzazioni)
	is.Svalutazioni = carry(a, schema.CE10Svalutazioni, prev.Svalutazioni)
	is.Accantonamenti = carry(a, schema.CE11Accantonamenti, prev.Accantonamenti)
	is.OneriDiversi = carry(a, schema.CE12OneriDiversi, prev.OneriDiversi)
	is.ProventiPartecipazioni = carry(a, schema.CE13ProventiPart, prev.ProventiPartecipazioni)
	is.ProventiFinanziari = carry(a, schema.CE14ProventiFin, prev.ProventiFinanziari)
	is.OneriFinanziari = carry(a, schema.CE15OneriFin, prev.OneriFinanziari)
	is.UtilePerditaCambi = carry(a, schema.CE16Cambi, prev.UtilePerditaCambi)
	is.RettificheFinanziarie = carry(a, schema.CE17Rettifiche, prev.RettificheFinanziarie)
	is.ProventiStraordinari = carry(a, schema.CE18ProventiStra, prev.ProventiStraordinari)
	is.OneriStraordinari = carry(a, schema.CE19OneriStra, prev.OneriStraordinari)

	// Taxes are never negative: no loss carryback in the model.
	is.Imposte = numeric.FloorZero(numeric.Pct(is.ProfitBeforeTax(), a.TaxRate))

	return is
}

// splitGrow partitions a base value into fixed/variable portions and grows
// each at its own rate.
func splitGrow(base, fixedPct, fixedGrowth, varGrowth decimal.Decimal) decimal.Decimal {
	fixed := numeric.Pct(base, fixedPct)
	variable := base.Sub(fixed)
	return numeric.Grow(fixed, fixedGrowth).Add(numeric.Grow(variable, varGrowth))
}

// tfrAccrual preserves the base year's TFR-to-personnel ratio on the new
// personnel figure; zero when the base had no personnel cost or no accrual.
func tfrAccrual(prev *schema.IncomeStatement, newPersonnel decimal.Decimal) decimal.Decimal {
	if prev.Personale.IsZero() || prev.AccantonamentoTFR.IsZero() {
		return decimal.Zero
	}
	ratio := numeric.SafeDiv(prev.AccantonamentoTFR, prev.Personale)
	return newPersonnel.Mul(ratio)
}

func carry(a *models.BudgetAssumptions, key string, base decimal.Decimal) decimal.Decimal {
	if v, ok := a.Override(key); ok {
		return v
	}
	return base
}

// projectBalance derives one forecast year's balance sheet. The income
// statement for the same year must already be computed: depreciation and net
// profit feed directly into fixed assets and equity.
func projectBalance(prevBS *schema.BalanceSheet, prevIS *schema.IncomeStatement, is *schema.IncomeStatement, a *models.BudgetAssumptions) *schema.BalanceSheet {
	bs := &schema.BalanceSheet{}

	// Fixed assets: base + investment allocated on the base mix, less total
	// depreciation on the 30/60/10 heuristic split, floored at zero.
	invIntangible, invTangible, invFinancial := allocateByMix(
		a.NewInvestment, prevBS.ImmobImmateriali, prevBS.ImmobMateriali, prevBS.ImmobFinanziarie)
	bs.ImmobImmateriali = numeric.FloorZero(
		prevBS.ImmobImmateriali.Add(invIntangible).Sub(numeric.Pct(is.Ammortamenti, DeprSplitIntangible)))
	bs.ImmobMateriali = numeric.FloorZero(
		prevBS.ImmobMateriali.Add(invTangible).Sub(numeric.Pct(is.Ammortamenti, DeprSplitTangible)))
	bs.ImmobFinanziarie = numeric.FloorZero(
		prevBS.ImmobFinanziarie.Add(invFinancial).Sub(numeric.Pct(is.Ammortamenti, DeprSplitFinancial)))

	// Working capital. Inventory tracks revenue, not an independent driver.
	bs.Rimanenze = numeric.Grow(prevBS.Rimanenze, a.RevenueGrowth)
	bs.CreditiBreve = numeric.Grow(prevBS.CreditiBreve, a.ReceivablesShortGrowth)
	bs.CreditiOltre = numeric.Grow(prevBS.CreditiOltre, a.ReceivablesLongGrowth)

	// Held constant from the base year.
	bs.CreditiVersoSoci = prevBS.CreditiVersoSoci
	bs.AttivitaFinanziarie = prevBS.AttivitaFinanziarie
	bs.RateiRiscontiAttivi = prevBS.RateiRiscontiAttivi
	bs.FondiRischi = prevBS.FondiRischi
	bs.RateiRiscontiPassivi = prevBS.RateiRiscontiPassivi

	// Equity: capital constant; profit folds into reserves one year in
	// arrears, so this year's reserves absorb the previous year's profit.
	prevProfit := prevIS.NetProfit()
	bs.Capitale = prevBS.Capitale
	bs.Riserve = prevBS.Riserve.Add(prevProfit)
	bs.UtileEsercizio = is.NetProfit()
	rollReserveDetails(bs, prevBS, prevProfit)

	// Debt. Long-term debt is held constant: financing assumptions only take
	// effect in the intra-year engine.
	bs.DebitiBreve = numeric.Grow(prevBS.DebitiBreve, a.ShortDebtGrowth)
	bs.DebitiOltre = prevBS.DebitiOltre
	bs.TFR = numeric.Grow(prevBS.TFR, a.PersonnelGrowth)

	applyCashPlug(bs)

	distributeFinancialDetails(bs, prevBS)
	distributeDebtDetails(bs, prevBS)

	return bs
}

// applyCashPlug sets cash to whatever balances the sheet. A negative plug is
// redirected into short-term debt: the model assumes the company draws
// additional short-term financing rather than reporting negative cash.
func applyCashPlug(bs *schema.BalanceSheet) {
	bs.DisponibilitaLiquide = decimal.Zero
	plug := bs.TotalLiabilitiesEquity().Sub(bs.TotalAssets())
	if plug.IsNegative() {
		bs.DebitiBreve = bs.DebitiBreve.Add(plug.Abs())
		return
	}
	bs.DisponibilitaLiquide = plug
}

// rollReserveDetails mirrors the arrears roll-forward on the specific
// sub-account that receives retained earnings.
func rollReserveDetails(bs, prev *schema.BalanceSheet, prevProfit decimal.Decimal) {
	bs.RiservaSovrapprezzo = prev.RiservaSovrapprezzo
	bs.RiservaRivalutazione = prev.RiservaRivalutazione
	bs.RiservaLegale = prev.RiservaLegale
	bs.RiservaStraordinaria = prev.RiservaStraordinaria
	bs.AltreRiserve = prev.AltreRiserve
	if detailSum := numeric.Sum(prev.RiservaSovrapprezzo, prev.RiservaRivalutazione,
		prev.RiservaLegale, prev.RiservaStraordinaria, prev.AltreRiserve,
		prev.UtiliANuovo); !detailSum.IsZero() {
		bs.UtiliANuovo = prev.UtiliANuovo.Add(prevProfit)
	}
}

// allocateByMix splits an amount proportionally to the base year's category
// balances; everything lands in the tangible bucket when the base mix is
// empty.
func allocateByMix(amount, intangible, tangible, financial decimal.Decimal) (decimal.Decimal, decimal.Decimal, decimal.Decimal) {
	total := numeric.Sum(intangible, tangible, financial)
	if total.IsZero() {
		return decimal.Zero, amount, decimal.Zero
	}
	i := amount.Mul(numeric.SafeDiv(intangible, total))
	f := amount.Mul(numeric.SafeDiv(financial, total))
	return i, amount.Sub(i).Sub(f), f
}

// distributeFinancialDetails spreads sp04 over its sub-items on the base
// year's internal mix; with no base breakdown the details stay empty.
func distributeFinancialDetails(bs, prev *schema.BalanceSheet) {
	slots := []struct {
		out  *decimal.Decimal
		base decimal.Decimal
	}{
		{&bs.PartecipazioniControllate, prev.PartecipazioniControllate},
		{&bs.PartecipazioniCollegate, prev.PartecipazioniCollegate},
		{&bs.PartecipazioniAltre, prev.PartecipazioniAltre},
		{&bs.CreditiFinanziari, prev.CreditiFinanziari},
		{&bs.AltriTitoli, prev.AltriTitoli},
	}
	baseTotal := decimal.Zero
	for _, s := range slots {
		baseTotal = baseTotal.Add(s.base)
	}
	if baseTotal.IsZero() {
		return
	}
	for _, s := range slots {
		*s.out = bs.ImmobFinanziarie.Mul(numeric.SafeDiv(s.base, baseTotal))
	}
}

// distributeDebtDetails spreads sp16/sp17 over their sub-items on the base
// year's mix, falling back to the fixed default split when the base year had
// no breakdown at all.
func distributeDebtDetails(bs, prev *schema.BalanceSheet) {
	distributeDebt(bs.DebitiBreve, defaultShortDebtSplit,
		map[string]decimal.Decimal{
			"banche": prev.BancheBreve, "obbligazioni": prev.ObbligazioniBreve,
			"fornitori": prev.FornitoriBreve, "acconti": prev.AccontiBreve,
			"tributari": prev.TributariBreve, "previdenziali": prev.PrevidenzialiBreve,
			"altri": prev.AltriDebitiBreve,
		},
		map[string]*decimal.Decimal{
			"banche": &bs.BancheBreve, "obbligazioni": &bs.ObbligazioniBreve,
			"fornitori": &bs.FornitoriBreve, "acconti": &bs.AccontiBreve,
			"tributari": &bs.TributariBreve, "previdenziali": &bs.PrevidenzialiBreve,
			"altri": &bs.AltriDebitiBreve,
		})
	distributeDebt(bs.DebitiOltre, defaultLongDebtSplit,
		map[string]decimal.Decimal{
			"banche": prev.BancheOltre, "obbligazioni": prev.ObbligazioniOltre,
			"fornitori": prev.FornitoriOltre, "acconti": prev.AccontiOltre,
			"tributari": prev.TributariOltre, "previdenziali": prev.PrevidenzialiOltre,
			"altri": prev.AltriDebitiOltre,
		},
		map[string]*decimal.Decimal{
			"banche": &bs.BancheOltre, "obbligazioni": &bs.ObbligazioniOltre,
			"fornitori": &bs.FornitoriOltre, "acconti": &bs.AccontiOltre,
			"tributari": &bs.TributariOltre, "previdenziali": &bs.PrevidenzialiOltre,
			"altri": &bs.AltriDebitiOltre,
		})
}

func distributeDebt(total decimal.Decimal, defaults map[string]decimal.Decimal, base map[string]decimal.Decimal, out map[string]*decimal.Decimal) {
	if total.IsZero() {
		return
	}
	baseTotal := decimal.Zero
	for _, v := range base {
		baseTotal = baseTotal.Add(v)
	}
	for key, slot := range out {
		if baseTotal.IsZero() {
			*slot = numeric.Pct(total, defaults[key])
			continue
		}
		*slot = total.Mul(numeric.SafeDiv(base[key], baseTotal))
	}
}
