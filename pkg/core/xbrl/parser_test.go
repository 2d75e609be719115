package xbrl

import (
	"errors"
	"os"
	"strings"
	"testing"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o644)
}

const sampleInstance = `<?xml version="1.0" encoding="UTF-8"?>
<xbrl xmlns="http://www.xbrl.org/2003/instance"
      xmlns:itcc-ci="http://www.infocamere.it/itnn/fr/itcc/ci/2018-11-04">
  <context id="i_2023">
    <entity><identifier scheme="http://www.infocamere.it">12345678901</identifier></entity>
    <period><instant>2023-12-31</instant></period>
  </context>
  <context id="d_2023">
    <entity><identifier scheme="http://www.infocamere.it">12345678901</identifier></entity>
    <period><startDate>2023-01-01</startDate><endDate>2023-12-31</endDate></period>
  </context>
  <context id="i_2022">
    <entity><identifier scheme="http://www.infocamere.it">12345678901</identifier></entity>
    <period><instant>2022-12-31</instant></period>
  </context>
  <itcc-ci:TotaleRimanenze contextRef="i_2023" unitRef="eur" decimals="0">150000</itcc-ci:TotaleRimanenze>
  <itcc-ci:TotaleRimanenze contextRef="i_2022" unitRef="eur" decimals="0">140000</itcc-ci:TotaleRimanenze>
  <itcc-ci:RicaviVenditePrestazioni contextRef="d_2023" unitRef="eur" decimals="0">1000000</itcc-ci:RicaviVenditePrestazioni>
  <itcc-ci:RiservaLegale contextRef="i_2023" unitRef="eur" decimals="0">19365</itcc-ci:RiservaLegale>
  <itcc-ci:NotaTestuale contextRef="i_2023">testo libero</itcc-ci:NotaTestuale>
</xbrl>`

func TestParseInstance(t *testing.T) {
	doc, err := ParseInstance(strings.NewReader(sampleInstance))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	year, ok := doc.LatestYear()
	if !ok || year != 2023 {
		t.Fatalf("latest year: got %d, exp 2023", year)
	}

	facts := doc.Years[2023]
	if got := facts["TotaleRimanenze"]; !got.Equal(d("150000")) {
		t.Errorf("TotaleRimanenze 2023: got %s", got)
	}
	if got := facts["RicaviVenditePrestazioni"]; !got.Equal(d("1000000")) {
		t.Errorf("Ricavi 2023: got %s", got)
	}
	// Prior year column stays separate.
	if got := doc.Years[2022]["TotaleRimanenze"]; !got.Equal(d("140000")) {
		t.Errorf("TotaleRimanenze 2022: got %s", got)
	}
	// Non-numeric facts are skipped.
	if _, ok := facts["NotaTestuale"]; ok {
		t.Error("text facts must not be collected")
	}
}

func TestParseInstanceSumsRepeatedContexts(t *testing.T) {
	src := `<xbrl xmlns="http://www.xbrl.org/2003/instance">
  <context id="a"><period><instant>2023-12-31</instant></period></context>
  <context id="b"><period><instant>2023-12-31</instant></period></context>
  <AltreRiserve contextRef="a">100</AltreRiserve>
  <AltreRiserve contextRef="b">40</AltreRiserve>
</xbrl>`
	doc, err := ParseInstance(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := doc.Years[2023]["AltreRiserve"]; !got.Equal(d("140")) {
		t.Errorf("same-year contexts must sum: got %s", got)
	}
}

func TestParseInstanceMalformed(t *testing.T) {
	_, err := ParseInstance(strings.NewReader("<xbrl><context id="))
	if err == nil {
		t.Fatal("malformed XML must fail")
	}
}

func TestParseInstanceMissingContexts(t *testing.T) {
	src := `<xbrl xmlns="http://www.xbrl.org/2003/instance">
  <Rimanenze contextRef="x">5</Rimanenze>
</xbrl>`
	_, err := ParseInstance(strings.NewReader(src))
	if !errors.Is(err, ErrMissingContexts) {
		t.Fatalf("expected ErrMissingContexts, got %v", err)
	}
}

const sampleInline = `<html xmlns:ix="http://www.xbrl.org/2013/inlineXBRL"
      xmlns:xbrli="http://www.xbrl.org/2003/instance">
<body>
<div style="display:none">
  <xbrli:context id="ctx1">
    <xbrli:period><xbrli:instant>2023-12-31</xbrli:instant></xbrli:period>
  </xbrli:context>
</div>
<table>
  <tr><td>Rimanenze</td>
      <td><ix:nonFraction name="itcc-ci:TotaleRimanenze" contextRef="ctx1" unitRef="eur" decimals="0">1.234.567</ix:nonFraction></td></tr>
  <tr><td>Perdita</td>
      <td><ix:nonFraction name="itcc-ci:UtilePerditaEsercizio" contextRef="ctx1" unitRef="eur" decimals="0" sign="-">68.533</ix:nonFraction></td></tr>
</table>
</body></html>`

func TestParseInlineInstance(t *testing.T) {
	doc, err := ParseInlineInstance(strings.NewReader(sampleInline))
	if err != nil {
		t.Fatalf("parse inline: %v", err)
	}
	facts := doc.Years[2023]
	if got := facts["TotaleRimanenze"]; !got.Equal(d("1234567")) {
		t.Errorf("inline thousands parsing: got %s", got)
	}
	if got := facts["UtilePerditaEsercizio"]; !got.Equal(d("-68533")) {
		t.Errorf("inline sign attribute: got %s", got)
	}
}

func TestLoadRulesOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/rules.yaml"
	content := `sp05_rimanenze:
  priorities:
    - RimanenzeNuovaTassonomia
`
	if err := writeFile(path, content); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if rules["sp05_rimanenze"].Priorities[0] != "RimanenzeNuovaTassonomia" {
		t.Error("override not applied")
	}
	// Untouched fields keep the built-in table.
	if len(rules["sp11_capitale"].Priorities) == 0 {
		t.Error("defaults lost during merge")
	}

	facts := Facts{"RimanenzeNuovaTassonomia": d("77")}
	bs, _, _ := NewMapper(rules).MapFacts(facts)
	if got := bs.Get("sp05_rimanenze"); !got.Equal(d("77")) {
		t.Errorf("mapper with overridden rules: got %s, exp 77", got)
	}
}
