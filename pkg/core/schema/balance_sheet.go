// Package schema defines the canonical IV CEE statement layout used across
// the import mappers, the forecast engines and the store. Field names follow
// the abbreviated statutory format: sp01..sp18 for the balance sheet
// (stato patrimoniale), ce01..ce20 for the income statement (conto
// economico). Aggregates are computed on read and never stored.
package schema

import (
	"fmt"

	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
)

// BalanceSheet holds the 18 primary line items plus the detail groups that
// decompose sp04 (financial fixed assets), sp12 (reserves) and sp16/sp17
// (short/long-term debt).
type BalanceSheet struct {
	// Assets
	CreditiVersoSoci       decimal.Decimal // sp01
	ImmobImmateriali       decimal.Decimal // sp02
	ImmobMateriali         decimal.Decimal // sp03
	ImmobFinanziarie       decimal.Decimal // sp04
	Rimanenze              decimal.Decimal // sp05
	CreditiBreve           decimal.Decimal // sp06
	CreditiOltre           decimal.Decimal // sp07
	AttivitaFinanziarie    decimal.Decimal // sp08
	DisponibilitaLiquide   decimal.Decimal // sp09
	RateiRiscontiAttivi    decimal.Decimal // sp10

	// Liabilities and equity
	Capitale             decimal.Decimal // sp11
	Riserve              decimal.Decimal // sp12
	UtileEsercizio       decimal.Decimal // sp13
	FondiRischi          decimal.Decimal // sp14
	TFR                  decimal.Decimal // sp15
	DebitiBreve          decimal.Decimal // sp16
	DebitiOltre          decimal.Decimal // sp17
	RateiRiscontiPassivi decimal.Decimal // sp18

	// sp04 detail
	PartecipazioniControllate decimal.Decimal
	PartecipazioniCollegate   decimal.Decimal
	PartecipazioniAltre       decimal.Decimal
	CreditiFinanziari         decimal.Decimal
	AltriTitoli               decimal.Decimal

	// sp12 detail
	RiservaSovrapprezzo  decimal.Decimal
	RiservaRivalutazione decimal.Decimal
	RiservaLegale        decimal.Decimal
	RiservaStraordinaria decimal.Decimal
	AltreRiserve         decimal.Decimal
	UtiliANuovo          decimal.Decimal

	// sp16 detail (entro 12 mesi)
	BancheBreve       decimal.Decimal
	ObbligazioniBreve decimal.Decimal
	FornitoriBreve    decimal.Decimal
	AccontiBreve      decimal.Decimal
	TributariBreve    decimal.Decimal
	PrevidenzialiBreve decimal.Decimal
	AltriDebitiBreve  decimal.Decimal

	// sp17 detail (oltre 12 mesi)
	BancheOltre       decimal.Decimal
	ObbligazioniOltre decimal.Decimal
	FornitoriOltre    decimal.Decimal
	AccontiOltre      decimal.Decimal
	TributariOltre    decimal.Decimal
	PrevidenzialiOltre decimal.Decimal
	AltriDebitiOltre  decimal.Decimal
}

// TotalAssets sums sp01..sp10.
func (b *BalanceSheet) TotalAssets() decimal.Decimal {
	return numeric.Sum(
		b.CreditiVersoSoci, b.ImmobImmateriali, b.ImmobMateriali,
		b.ImmobFinanziarie, b.Rimanenze, b.CreditiBreve, b.CreditiOltre,
		b.AttivitaFinanziarie, b.DisponibilitaLiquide, b.RateiRiscontiAttivi,
	)
}

// TotalLiabilitiesEquity sums sp11..sp18.
func (b *BalanceSheet) TotalLiabilitiesEquity() decimal.Decimal {
	return numeric.Sum(
		b.Capitale, b.Riserve, b.UtileEsercizio, b.FondiRischi, b.TFR,
		b.DebitiBreve, b.DebitiOltre, b.RateiRiscontiPassivi,
	)
}

// Equity sums the three equity components sp11+sp12+sp13.
func (b *BalanceSheet) Equity() decimal.Decimal {
	return numeric.Sum(b.Capitale, b.Riserve, b.UtileEsercizio)
}

// FixedAssets sums the three fixed-asset categories sp02+sp03+sp04.
func (b *BalanceSheet) FixedAssets() decimal.Decimal {
	return numeric.Sum(b.ImmobImmateriali, b.ImmobMateriali, b.ImmobFinanziarie)
}

// Balanced reports whether the fundamental accounting identity holds within
// the euro tolerance.
func (b *BalanceSheet) Balanced() bool {
	return numeric.Within(b.TotalAssets(), b.TotalLiabilitiesEquity(), numeric.EuroTolerance)
}

// detailGroup bundles a parent field with the sum of its detail items.
type detailGroup struct {
	name   string
	parent decimal.Decimal
	detail decimal.Decimal
}

func (b *BalanceSheet) detailGroups() []detailGroup {
	return []detailGroup{
		{"sp04_immobilizzazioni_finanziarie", b.ImmobFinanziarie, numeric.Sum(
			b.PartecipazioniControllate, b.PartecipazioniCollegate,
			b.PartecipazioniAltre, b.CreditiFinanziari, b.AltriTitoli)},
		{"sp12_riserve", b.Riserve, numeric.Sum(
			b.RiservaSovrapprezzo, b.RiservaRivalutazione, b.RiservaLegale,
			b.RiservaStraordinaria, b.AltreRiserve, b.UtiliANuovo)},
		{"sp16_debiti_breve", b.DebitiBreve, numeric.Sum(
			b.BancheBreve, b.ObbligazioniBreve, b.FornitoriBreve,
			b.AccontiBreve, b.TributariBreve, b.PrevidenzialiBreve, b.AltriDebitiBreve)},
		{"sp17_debiti_oltre", b.DebitiOltre, numeric.Sum(
			b.BancheOltre, b.ObbligazioniOltre, b.FornitoriOltre,
			b.AccontiOltre, b.TributariOltre, b.PrevidenzialiOltre, b.AltriDebitiOltre)},
	}
}

// DetailChecks compares each populated detail group against its parent total
// and returns a human-readable warning per mismatch beyond the euro
// tolerance. Empty detail groups are skipped: many filings carry no
// breakdown at all.
func (b *BalanceSheet) DetailChecks() []string {
	var warnings []string
	for _, g := range b.detailGroups() {
		if g.detail.IsZero() {
			continue
		}
		if !numeric.Within(g.parent, g.detail, numeric.EuroTolerance) {
			warnings = append(warnings, fmt.Sprintf(
				"%s: detail sum %s differs from parent total %s",
				g.name, g.detail.StringFixed(2), g.parent.StringFixed(2)))
		}
	}
	return warnings
}
