package xbrl

import (
	"testing"

	"github.com/shopspring/decimal"

	"bilancio/pkg/core/schema"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func TestReserveAccumulation(t *testing.T) {
	// All reserve line items sum into sp12:
	// 3180324 + 19365 + 30222 - 68533 = 3161378
	facts := Facts{
		"RiservaDaSoprapprezzoAzioni": d("3180324"),
		"RiservaLegale":               d("19365"),
		"AltreRiserve":                d("30222"),
		"UtiliPerditePortatiANuovo":   d("-68533"),
	}

	bs, _, _ := DefaultMapper().MapFacts(facts)
	if got := bs.Get(schema.SP12Riserve); !got.Equal(d("3161378")) {
		t.Errorf("sp12_riserve: got %s, exp 3161378", got)
	}
	// Detail fields are routed alongside the accumulated total.
	if got := bs.Get(schema.SP12Legale); !got.Equal(d("19365")) {
		t.Errorf("riserva legale detail: got %s, exp 19365", got)
	}
}

func TestPriorityMatchFirstWins(t *testing.T) {
	facts := Facts{
		"CreditiEsigibiliEntroEsercizioSuccessivo":       d("1000"),
		"TotaleCreditiEsigibiliEntroEsercizioSuccessivo": d("999"),
	}
	bs, _, _ := DefaultMapper().MapFacts(facts)
	if got := bs.Get(schema.SP06CreditiBreve); !got.Equal(d("1000")) {
		t.Errorf("priority_1 must win: got %s, exp 1000", got)
	}
}

func TestTotalePrefixMatch(t *testing.T) {
	// No exact "Rimanenze" tag, but a Totale-prefixed variant containing it.
	facts := Facts{"TotaleRimanenzeMagazzino": d("420")}
	bs, _, _ := DefaultMapper().MapFacts(facts)
	if got := bs.Get(schema.SP05Rimanenze); !got.Equal(d("420")) {
		t.Errorf("Totale-prefix match: got %s, exp 420", got)
	}
}

func TestAnchorReconciliation(t *testing.T) {
	// Mapped short+long = 800+150 = 950, anchor total = 1000.
	// Delta 50 lands in the short bucket and is reported.
	facts := Facts{
		"CreditiEsigibiliEntroEsercizioSuccessivo": d("800"),
		"CreditiEsigibiliOltreEsercizioSuccessivo": d("150"),
		"TotaleCrediti":                            d("1000"),
	}
	bs, _, report := DefaultMapper().MapFacts(facts)

	if got := bs.Get(schema.SP06CreditiBreve); !got.Equal(d("850")) {
		t.Errorf("reconciled short receivables: got %s, exp 850", got)
	}
	if len(report.Adjustments) != 1 {
		t.Fatalf("expected one adjustment, got %d", len(report.Adjustments))
	}
	adj := report.Adjustments[0]
	if !adj.XBRLTotal.Equal(d("1000")) || !adj.ImportedSum.Equal(d("950")) || !adj.Adjustment.Equal(d("50")) {
		t.Errorf("adjustment payload wrong: %+v", adj)
	}
	if adj.TargetField != schema.SP06CreditiBreve {
		t.Errorf("target field: got %s", adj.TargetField)
	}
}

func TestAnchorWithinToleranceNoAdjustment(t *testing.T) {
	facts := Facts{
		"DebitiEsigibiliEntroEsercizioSuccessivo": d("500.005"),
		"TotaleDebiti":                            d("500.01"),
	}
	_, _, report := DefaultMapper().MapFacts(facts)
	if len(report.Adjustments) != 0 {
		t.Errorf("one-cent tolerance should suppress the adjustment: %+v", report.Adjustments)
	}
}

func TestAnchorIgnoresMaturitySubtotal(t *testing.T) {
	// No TotaleDebiti grand total in the instance, only a short-maturity
	// subtotal (already claimed as sp16's own value) and the long bucket.
	// The subtotal must not pose as the anchor: both buckets keep their
	// mapped values and no reconciliation fires.
	facts := Facts{
		"TotaleDebitiEsigibiliEntroEsercizioSuccessivo": d("500"),
		"DebitiEsigibiliOltreEsercizioSuccessivo":       d("300"),
	}
	bs, _, report := DefaultMapper().MapFacts(facts)

	if got := bs.Get(schema.SP16DebitiBreve); !got.Equal(d("500")) {
		t.Errorf("short payables: got %s, exp 500", got)
	}
	if got := bs.Get(schema.SP17DebitiOltre); !got.Equal(d("300")) {
		t.Errorf("long payables: got %s, exp 300", got)
	}
	if len(report.Adjustments) != 0 {
		t.Errorf("subtotal must not trigger reconciliation: %+v", report.Adjustments)
	}
}

func TestDetailFallbackWhenNoPriorityMatch(t *testing.T) {
	// No aggregate personnel tag: sum the detail components.
	facts := Facts{
		"SalariStipendi":          d("300"),
		"OneriSociali":            d("90"),
		"TrattamentoFineRapporto": d("21"),
	}
	_, is, _ := DefaultMapper().MapFacts(facts)
	if got := is.Get(schema.CE08Personale); !got.Equal(d("411")) {
		t.Errorf("personnel fallback sum: got %s, exp 411", got)
	}
	if got := is.Get(schema.CE08AccTFR); !got.Equal(d("21")) {
		t.Errorf("TFR accrual detail: got %s, exp 21", got)
	}
}

func TestLegacyPassNeverOverwrites(t *testing.T) {
	facts := Facts{
		"RicaviVenditePrestazioni": d("5000"), // priority system
		"RicaviDelleVendite":       d("4800"), // legacy variant
	}
	_, is, report := DefaultMapper().MapFacts(facts)
	if got := is.Get(schema.CE01Ricavi); !got.Equal(d("5000")) {
		t.Errorf("legacy pass must not overwrite: got %s, exp 5000", got)
	}
	// The losing legacy tag stays unconsumed and shows up as a diagnostic.
	found := false
	for _, u := range report.Unmapped {
		if u.Tag == "RicaviDelleVendite" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected RicaviDelleVendite in unmapped diagnostics: %+v", report.Unmapped)
	}
}

func TestLegacyPassFillsGap(t *testing.T) {
	facts := Facts{"CostoDelPersonale": d("250")}
	_, is, _ := DefaultMapper().MapFacts(facts)
	if got := is.Get(schema.CE08Personale); !got.Equal(d("250")) {
		t.Errorf("legacy fill: got %s, exp 250", got)
	}
}

func TestMappingDeterminism(t *testing.T) {
	facts := Facts{
		"RicaviVenditePrestazioni":                 d("5000"),
		"TotaleRimanenze":                          d("300"),
		"CreditiEsigibiliEntroEsercizioSuccessivo": d("800"),
		"TotaleCrediti":                            d("900"),
		"RiservaLegale":                            d("50"),
		"AltreRiserve":                             d("25"),
		"UnTagSconosciuto":                         d("7"),
	}

	firstBS, firstIS, firstReport := DefaultMapper().MapFacts(facts)
	for i := 0; i < 50; i++ {
		bs, is, report := DefaultMapper().MapFacts(facts)
		for k, v := range firstBS {
			if !bs.Get(k).Equal(v) {
				t.Fatalf("run %d: bs field %s drifted", i, k)
			}
		}
		for k, v := range firstIS {
			if !is.Get(k).Equal(v) {
				t.Fatalf("run %d: is field %s drifted", i, k)
			}
		}
		if len(report.Adjustments) != len(firstReport.Adjustments) ||
			len(report.Unmapped) != len(firstReport.Unmapped) {
			t.Fatalf("run %d: report shape drifted", i)
		}
	}
}

func TestUnmappedDiagnostics(t *testing.T) {
	facts := Facts{
		"TagMaiVisto":     d("123"),
		"TagConZero":      d("0"),
		"TotaleRimanenze": d("10"),
	}
	_, _, report := DefaultMapper().MapFacts(facts)
	if len(report.Unmapped) != 1 || report.Unmapped[0].Tag != "TagMaiVisto" {
		t.Errorf("expected only the nonzero unknown tag: %+v", report.Unmapped)
	}
}
