// Package analysis derives secondary statements and indicators from a pair
// of canonical statements: an indirect cash flow, classic liquidity and
// profitability ratios, and the Altman Z'-score for unlisted companies.
package analysis

import (
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
)

// Ratios is the standard indicator set computed per year. Percentages are
// percent values (12.5 = 12.5%); pure ratios are left unscaled.
type Ratios struct {
	ROE              decimal.Decimal `json:"roe"`
	ROI              decimal.Decimal `json:"roi"`
	ROS              decimal.Decimal `json:"ros"`
	EBITDAMargin     decimal.Decimal `json:"ebitda_margin"`
	CurrentRatio     decimal.Decimal `json:"current_ratio"`
	QuickRatio       decimal.Decimal `json:"quick_ratio"`
	DebtToEquity     decimal.Decimal `json:"debt_to_equity"`
	AssetTurnover    decimal.Decimal `json:"asset_turnover"`
	InterestCoverage decimal.Decimal `json:"interest_coverage"`
	// Cycle durations in days.
	DSO decimal.Decimal `json:"dso"`
	DSI decimal.Decimal `json:"dsi"`
	DPO decimal.Decimal `json:"dpo"`
}

var daysInYear = decimal.NewFromInt(365)

// ComputeRatios derives the indicator set for one year. Every ratio with a
// zero denominator comes back zero rather than erroring: a statement with no
// debt or no equity is legitimate input.
func ComputeRatios(bs *schema.BalanceSheet, is *schema.IncomeStatement) Ratios {
	currentAssets := numeric.Sum(bs.Rimanenze, bs.CreditiBreve, bs.AttivitaFinanziarie, bs.DisponibilitaLiquide)
	quickAssets := currentAssets.Sub(bs.Rimanenze)
	debt := bs.DebitiBreve.Add(bs.DebitiOltre)

	// DPO uses the trade-payables detail when the import carried it and
	// falls back to the whole short-term debt otherwise.
	payables := bs.FornitoriBreve
	if payables.IsZero() {
		payables = bs.DebitiBreve
	}
	purchases := is.Materie.Add(is.Servizi)

	return Ratios{
		ROE:              numeric.PctOf(is.NetProfit(), bs.Equity()),
		ROI:              numeric.PctOf(is.EBIT(), bs.TotalAssets()),
		ROS:              numeric.PctOf(is.EBIT(), is.Ricavi),
		EBITDAMargin:     numeric.PctOf(is.EBITDA(), is.Ricavi),
		CurrentRatio:     numeric.SafeDiv(currentAssets, bs.DebitiBreve),
		QuickRatio:       numeric.SafeDiv(quickAssets, bs.DebitiBreve),
		DebtToEquity:     numeric.SafeDiv(debt, bs.Equity()),
		AssetTurnover:    numeric.SafeDiv(is.Ricavi, bs.TotalAssets()),
		InterestCoverage: numeric.SafeDiv(is.EBIT(), is.OneriFinanziari),
		DSO:              numeric.SafeDiv(bs.CreditiBreve, is.Ricavi).Mul(daysInYear),
		DSI:              numeric.SafeDiv(bs.Rimanenze, is.Materie).Mul(daysInYear),
		DPO:              numeric.SafeDiv(payables, purchases).Mul(daysInYear),
	}
}

// Altman Z'-score coefficients, private-firm variant. Book equity replaces
// market capitalization, which unlisted companies do not have.
var (
	zWorkingCapital   = decimal.NewFromFloat(0.717)
	zRetainedEarnings = decimal.NewFromFloat(0.847)
	zEBIT             = decimal.NewFromFloat(3.107)
	zEquity           = decimal.NewFromFloat(0.420)
	zSales            = decimal.NewFromFloat(0.998)
)

// Z'-score zone boundaries: below 1.23 distress, above 2.90 safe.
var (
	ZDistressBelow = decimal.NewFromFloat(1.23)
	ZSafeAbove     = decimal.NewFromFloat(2.90)
)

// AltmanZ computes the private-firm Z'-score. Zero when total assets or
// total liabilities are zero, since every term would be degenerate.
func AltmanZ(bs *schema.BalanceSheet, is *schema.IncomeStatement) decimal.Decimal {
	ta := bs.TotalAssets()
	liabilities := numeric.Sum(bs.FondiRischi, bs.TFR, bs.DebitiBreve, bs.DebitiOltre, bs.RateiRiscontiPassivi)
	if ta.IsZero() || liabilities.IsZero() {
		return decimal.Zero
	}

	currentAssets := numeric.Sum(bs.Rimanenze, bs.CreditiBreve, bs.AttivitaFinanziarie, bs.DisponibilitaLiquide)
	workingCapital := currentAssets.Sub(bs.DebitiBreve)
	retained := bs.Riserve.Add(bs.UtileEsercizio)

	a := numeric.SafeDiv(workingCapital, ta).Mul(zWorkingCapital)
	b := numeric.SafeDiv(retained, ta).Mul(zRetainedEarnings)
	c := numeric.SafeDiv(is.EBIT(), ta).Mul(zEBIT)
	d := numeric.SafeDiv(bs.Equity(), liabilities).Mul(zEquity)
	e := numeric.SafeDiv(is.Ricavi, ta).Mul(zSales)

	return numeric.Sum(a, b, c, d, e)
}
