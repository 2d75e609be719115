package schema

import (
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
)

// IncomeStatement holds the 20 primary line items of the abbreviated conto
// economico plus the sub-details for personnel, depreciation and provisions.
type IncomeStatement struct {
	Ricavi                    decimal.Decimal // ce01
	VariazioneRimanenze       decimal.Decimal // ce02
	IncrementiImmobilizzazioni decimal.Decimal // ce03
	AltriRicavi               decimal.Decimal // ce04
	Materie                   decimal.Decimal // ce05
	Servizi                   decimal.Decimal // ce06
	GodimentoBeniTerzi        decimal.Decimal // ce07
	Personale                 decimal.Decimal // ce08
	Ammortamenti              decimal.Decimal // ce09
	Svalutazioni              decimal.Decimal // ce10
	Accantonamenti            decimal.Decimal // ce11
	OneriDiversi              decimal.Decimal // ce12
	ProventiPartecipazioni    decimal.Decimal // ce13
	ProventiFinanziari        decimal.Decimal // ce14
	OneriFinanziari           decimal.Decimal // ce15
	UtilePerditaCambi         decimal.Decimal // ce16
	RettificheFinanziarie     decimal.Decimal // ce17
	ProventiStraordinari      decimal.Decimal // ce18
	OneriStraordinari         decimal.Decimal // ce19
	Imposte                   decimal.Decimal // ce20

	// ce08 detail
	AccantonamentoTFR decimal.Decimal

	// ce09 detail
	AmmImmateriali      decimal.Decimal
	AmmMateriali        decimal.Decimal
	AltreSvalutazioni   decimal.Decimal
	SvalutazioneCrediti decimal.Decimal

	// ce11 detail
	AccantonamentiRischi decimal.Decimal
}

// ProductionValue is ce01+ce02+ce03+ce04 (valore della produzione).
func (c *IncomeStatement) ProductionValue() decimal.Decimal {
	return numeric.Sum(c.Ricavi, c.VariazioneRimanenze, c.IncrementiImmobilizzazioni, c.AltriRicavi)
}

// ProductionCost is ce05..ce12 (costi della produzione).
func (c *IncomeStatement) ProductionCost() decimal.Decimal {
	return numeric.Sum(
		c.Materie, c.Servizi, c.GodimentoBeniTerzi, c.Personale,
		c.Ammortamenti, c.Svalutazioni, c.Accantonamenti, c.OneriDiversi,
	)
}

// EBIT is production value minus production cost.
func (c *IncomeStatement) EBIT() decimal.Decimal {
	return c.ProductionValue().Sub(c.ProductionCost())
}

// EBITDA adds back depreciation, impairments and provisions to EBIT.
func (c *IncomeStatement) EBITDA() decimal.Decimal {
	return c.EBIT().Add(c.Ammortamenti).Add(c.Svalutazioni).Add(c.Accantonamenti)
}

// FinancialResult is ce13+ce14-ce15+ce16.
func (c *IncomeStatement) FinancialResult() decimal.Decimal {
	return c.ProventiPartecipazioni.Add(c.ProventiFinanziari).
		Sub(c.OneriFinanziari).Add(c.UtilePerditaCambi)
}

// ProfitBeforeTax is EBIT + financial result + ce17 + (ce18-ce19).
func (c *IncomeStatement) ProfitBeforeTax() decimal.Decimal {
	return c.EBIT().Add(c.FinancialResult()).Add(c.RettificheFinanziarie).
		Add(c.ProventiStraordinari.Sub(c.OneriStraordinari))
}

// NetProfit is profit before tax minus ce20.
func (c *IncomeStatement) NetProfit() decimal.Decimal {
	return c.ProfitBeforeTax().Sub(c.Imposte)
}
