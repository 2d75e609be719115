package analysis

import (
	"github.com/shopspring/decimal"

	"bilancio/pkg/core/numeric"
	"bilancio/pkg/core/schema"
)

// CashFlowStatement is an indirect-method cash flow derived from two
// consecutive balance sheets and the later year's income statement. By
// construction NetCashFlow equals the year-over-year change in cash whenever
// both balance sheets balance.
type CashFlowStatement struct {
	NetProfit            decimal.Decimal `json:"net_profit"`
	Depreciation         decimal.Decimal `json:"depreciation"`
	TFRAccrual           decimal.Decimal `json:"tfr_accrual"`
	WorkingCapitalChange decimal.Decimal `json:"working_capital_change"`
	OperatingCashFlow    decimal.Decimal `json:"operating_cash_flow"`

	CapitalExpenditure decimal.Decimal `json:"capital_expenditure"`
	InvestingCashFlow  decimal.Decimal `json:"investing_cash_flow"`

	DebtChange        decimal.Decimal `json:"debt_change"`
	EquityChange      decimal.Decimal `json:"equity_change"`
	FinancingCashFlow decimal.Decimal `json:"financing_cash_flow"`

	NetCashFlow decimal.Decimal `json:"net_cash_flow"`
	ClosingCash decimal.Decimal `json:"closing_cash"`
}

// DeriveCashFlow reconstructs the year's cash flow between prev and cur.
func DeriveCashFlow(prev, cur *schema.BalanceSheet, is *schema.IncomeStatement) *CashFlowStatement {
	cf := &CashFlowStatement{}

	cf.NetProfit = is.NetProfit()
	cf.Depreciation = is.Ammortamenti.Add(is.Svalutazioni)
	cf.TFRAccrual = cur.TFR.Sub(prev.TFR)

	// Working capital absorbs cash when it grows. Receivables, inventory and
	// accruals net against operating payables.
	wcAssets := numeric.Sum(cur.Rimanenze, cur.CreditiBreve, cur.CreditiOltre, cur.RateiRiscontiAttivi).
		Sub(numeric.Sum(prev.Rimanenze, prev.CreditiBreve, prev.CreditiOltre, prev.RateiRiscontiAttivi))
	wcLiabs := cur.RateiRiscontiPassivi.Add(cur.FondiRischi).
		Sub(prev.RateiRiscontiPassivi).Sub(prev.FondiRischi)
	cf.WorkingCapitalChange = wcAssets.Sub(wcLiabs)
	cf.OperatingCashFlow = cf.NetProfit.Add(cf.Depreciation).Add(cf.TFRAccrual).Sub(cf.WorkingCapitalChange)

	// Gross capex backs out depreciation and write-downs already deducted
	// from the closing fixed-asset balances.
	cf.CapitalExpenditure = cur.FixedAssets().Sub(prev.FixedAssets()).Add(cf.Depreciation)
	otherInvesting := cur.AttivitaFinanziarie.Sub(prev.AttivitaFinanziarie).
		Add(cur.CreditiVersoSoci).Sub(prev.CreditiVersoSoci)
	cf.InvestingCashFlow = cf.CapitalExpenditure.Add(otherInvesting).Neg()

	cf.DebtChange = cur.DebitiBreve.Add(cur.DebitiOltre).
		Sub(prev.DebitiBreve).Sub(prev.DebitiOltre)
	// Equity movements other than the result: capital raises, distributions,
	// reserve adjustments beyond the retained profit roll.
	cf.EquityChange = cur.Equity().Sub(prev.Equity()).Sub(cf.NetProfit)
	cf.FinancingCashFlow = cf.DebtChange.Add(cf.EquityChange)

	cf.NetCashFlow = numeric.Sum(cf.OperatingCashFlow, cf.InvestingCashFlow, cf.FinancingCashFlow)
	cf.ClosingCash = prev.DisponibilitaLiquide.Add(cf.NetCashFlow)
	return cf
}
