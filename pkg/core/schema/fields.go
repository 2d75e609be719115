package schema

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Canonical field keys. The import mappers emit flat dictionaries keyed by
// these names; the store and the forecast engines work on the structs.
const (
	SP01CreditiSoci      = "sp01_crediti_soci"
	SP02ImmobImmateriali = "sp02_immobilizzazioni_immateriali"
	SP03ImmobMateriali   = "sp03_immobilizzazioni_materiali"
	SP04ImmobFinanziarie = "sp04_immobilizzazioni_finanziarie"
	SP05Rimanenze        = "sp05_rimanenze"
	SP06CreditiBreve     = "sp06_crediti_breve"
	SP07CreditiOltre     = "sp07_crediti_oltre"
	SP08AttivFinanziarie = "sp08_attivita_finanziarie"
	SP09Disponibilita    = "sp09_disponibilita_liquide"
	SP10RateiAttivi      = "sp10_ratei_attivi"
	SP11Capitale         = "sp11_capitale"
	SP12Riserve          = "sp12_riserve"
	SP13UtileEsercizio   = "sp13_utile_esercizio"
	SP14FondiRischi      = "sp14_fondi_rischi"
	SP15TFR              = "sp15_tfr"
	SP16DebitiBreve      = "sp16_debiti_breve"
	SP17DebitiOltre      = "sp17_debiti_oltre"
	SP18RateiPassivi     = "sp18_ratei_passivi"

	SP04PartControllate = "sp04a_partecipazioni_controllate"
	SP04PartCollegate   = "sp04b_partecipazioni_collegate"
	SP04PartAltre       = "sp04c_partecipazioni_altre"
	SP04CreditiFin      = "sp04d_crediti_finanziari"
	SP04AltriTitoli     = "sp04e_altri_titoli"

	SP12Sovrapprezzo  = "sp12a_riserva_sovrapprezzo"
	SP12Rivalutazione = "sp12b_riserva_rivalutazione"
	SP12Legale        = "sp12c_riserva_legale"
	SP12Straordinaria = "sp12d_riserva_straordinaria"
	SP12Altre         = "sp12e_altre_riserve"
	SP12UtiliANuovo   = "sp12f_utili_a_nuovo"

	SP16Banche        = "sp16a_banche_breve"
	SP16Obbligazioni  = "sp16b_obbligazioni_breve"
	SP16Fornitori     = "sp16c_fornitori_breve"
	SP16Acconti       = "sp16d_acconti_breve"
	SP16Tributari     = "sp16e_tributari_breve"
	SP16Previdenziali = "sp16f_previdenziali_breve"
	SP16AltriDebiti   = "sp16g_altri_debiti_breve"

	SP17Banche        = "sp17a_banche_oltre"
	SP17Obbligazioni  = "sp17b_obbligazioni_oltre"
	SP17Fornitori     = "sp17c_fornitori_oltre"
	SP17Acconti       = "sp17d_acconti_oltre"
	SP17Tributari     = "sp17e_tributari_oltre"
	SP17Previdenziali = "sp17f_previdenziali_oltre"
	SP17AltriDebiti   = "sp17g_altri_debiti_oltre"

	CE01Ricavi           = "ce01_ricavi"
	CE02VarRimanenze     = "ce02_variazione_rimanenze"
	CE03Incrementi       = "ce03_incrementi_immobilizzazioni"
	CE04AltriRicavi      = "ce04_altri_ricavi"
	CE05Materie          = "ce05_materie"
	CE06Servizi          = "ce06_servizi"
	CE07Godimento        = "ce07_godimento_beni_terzi"
	CE08Personale        = "ce08_personale"
	CE09Ammortamenti     = "ce09_ammortamenti"
	CE10Svalutazioni     = "ce10_svalutazioni"
	CE11Accantonamenti   = "ce11_accantonamenti"
	CE12OneriDiversi     = "ce12_oneri_diversi"
	CE13ProventiPart     = "ce13_proventi_partecipazioni"
	CE14ProventiFin      = "ce14_proventi_finanziari"
	CE15OneriFin         = "ce15_oneri_finanziari"
	CE16Cambi            = "ce16_utile_perdita_cambi"
	CE17Rettifiche       = "ce17_rettifiche_finanziarie"
	CE18ProventiStra     = "ce18_proventi_straordinari"
	CE19OneriStra        = "ce19_oneri_straordinari"
	CE20Imposte          = "ce20_imposte"

	CE08AccTFR           = "ce08a_accantonamento_tfr"
	CE09AmmImmateriali   = "ce09a_amm_immateriali"
	CE09AmmMateriali     = "ce09b_amm_materiali"
	CE09AltreSval        = "ce09c_altre_svalutazioni"
	CE09SvalCrediti      = "ce09d_svalutazione_crediti"
	CE11AccRischi        = "ce11a_accantonamenti_rischi"
)

// FieldMap is the flat dictionary form exchanged with the import mappers
// and the persistence layer. Absent keys default to zero.
type FieldMap map[string]decimal.Decimal

// Get returns the value for key, zero when absent.
func (m FieldMap) Get(key string) decimal.Decimal {
	return m[key]
}

// Put stores v, dropping zero values so the dictionary stays sparse.
func (m FieldMap) Put(key string, v decimal.Decimal) {
	if v.IsZero() {
		delete(m, key)
		return
	}
	m[key] = v
}

// bsFields pairs every canonical balance-sheet key with its struct slot.
func bsFields(b *BalanceSheet) map[string]*decimal.Decimal {
	return map[string]*decimal.Decimal{
		SP01CreditiSoci:      &b.CreditiVersoSoci,
		SP02ImmobImmateriali: &b.ImmobImmateriali,
		SP03ImmobMateriali:   &b.ImmobMateriali,
		SP04ImmobFinanziarie: &b.ImmobFinanziarie,
		SP05Rimanenze:        &b.Rimanenze,
		SP06CreditiBreve:     &b.CreditiBreve,
		SP07CreditiOltre:     &b.CreditiOltre,
		SP08AttivFinanziarie: &b.AttivitaFinanziarie,
		SP09Disponibilita:    &b.DisponibilitaLiquide,
		SP10RateiAttivi:      &b.RateiRiscontiAttivi,
		SP11Capitale:         &b.Capitale,
		SP12Riserve:          &b.Riserve,
		SP13UtileEsercizio:   &b.UtileEsercizio,
		SP14FondiRischi:      &b.FondiRischi,
		SP15TFR:              &b.TFR,
		SP16DebitiBreve:      &b.DebitiBreve,
		SP17DebitiOltre:      &b.DebitiOltre,
		SP18RateiPassivi:     &b.RateiRiscontiPassivi,

		SP04PartControllate: &b.PartecipazioniControllate,
		SP04PartCollegate:   &b.PartecipazioniCollegate,
		SP04PartAltre:       &b.PartecipazioniAltre,
		SP04CreditiFin:      &b.CreditiFinanziari,
		SP04AltriTitoli:     &b.AltriTitoli,

		SP12Sovrapprezzo:  &b.RiservaSovrapprezzo,
		SP12Rivalutazione: &b.RiservaRivalutazione,
		SP12Legale:        &b.RiservaLegale,
		SP12Straordinaria: &b.RiservaStraordinaria,
		SP12Altre:         &b.AltreRiserve,
		SP12UtiliANuovo:   &b.UtiliANuovo,

		SP16Banche:        &b.BancheBreve,
		SP16Obbligazioni:  &b.ObbligazioniBreve,
		SP16Fornitori:     &b.FornitoriBreve,
		SP16Acconti:       &b.AccontiBreve,
		SP16Tributari:     &b.TributariBreve,
		SP16Previdenziali: &b.PrevidenzialiBreve,
		SP16AltriDebiti:   &b.AltriDebitiBreve,

		SP17Banche:        &b.BancheOltre,
		SP17Obbligazioni:  &b.ObbligazioniOltre,
		SP17Fornitori:     &b.FornitoriOltre,
		SP17Acconti:       &b.AccontiOltre,
		SP17Tributari:     &b.TributariOltre,
		SP17Previdenziali: &b.PrevidenzialiOltre,
		SP17AltriDebiti:   &b.AltriDebitiOltre,
	}
}

// isFields pairs every canonical income-statement key with its struct slot.
func isFields(c *IncomeStatement) map[string]*decimal.Decimal {
	return map[string]*decimal.Decimal{
		CE01Ricavi:         &c.Ricavi,
		CE02VarRimanenze:   &c.VariazioneRimanenze,
		CE03Incrementi:     &c.IncrementiImmobilizzazioni,
		CE04AltriRicavi:    &c.AltriRicavi,
		CE05Materie:        &c.Materie,
		CE06Servizi:        &c.Servizi,
		CE07Godimento:      &c.GodimentoBeniTerzi,
		CE08Personale:      &c.Personale,
		CE09Ammortamenti:   &c.Ammortamenti,
		CE10Svalutazioni:   &c.Svalutazioni,
		CE11Accantonamenti: &c.Accantonamenti,
		CE12OneriDiversi:   &c.OneriDiversi,
		CE13ProventiPart:   &c.ProventiPartecipazioni,
		CE14ProventiFin:    &c.ProventiFinanziari,
		CE15OneriFin:       &c.OneriFinanziari,
		CE16Cambi:          &c.UtilePerditaCambi,
		CE17Rettifiche:     &c.RettificheFinanziarie,
		CE18ProventiStra:   &c.ProventiStraordinari,
		CE19OneriStra:      &c.OneriStraordinari,
		CE20Imposte:        &c.Imposte,

		CE08AccTFR:         &c.AccantonamentoTFR,
		CE09AmmImmateriali: &c.AmmImmateriali,
		CE09AmmMateriali:   &c.AmmMateriali,
		CE09AltreSval:      &c.AltreSvalutazioni,
		CE09SvalCrediti:    &c.SvalutazioneCrediti,
		CE11AccRischi:      &c.AccantonamentiRischi,
	}
}

// IsBalanceSheetKey reports whether a canonical key belongs to the balance
// sheet (sp-prefixed) rather than the income statement.
func IsBalanceSheetKey(key string) bool {
	return strings.HasPrefix(key, "sp")
}

// BalanceSheetFromMap builds a BalanceSheet from a flat field dictionary.
// Unknown keys are ignored; missing keys default to zero.
func BalanceSheetFromMap(m FieldMap) *BalanceSheet {
	b := &BalanceSheet{}
	for key, slot := range bsFields(b) {
		if v, ok := m[key]; ok {
			*slot = v
		}
	}
	return b
}

// ToMap flattens the balance sheet into its canonical dictionary form.
func (b *BalanceSheet) ToMap() FieldMap {
	m := FieldMap{}
	for key, slot := range bsFields(b) {
		m.Put(key, *slot)
	}
	return m
}

// IncomeStatementFromMap builds an IncomeStatement from a flat dictionary.
func IncomeStatementFromMap(m FieldMap) *IncomeStatement {
	c := &IncomeStatement{}
	for key, slot := range isFields(c) {
		if v, ok := m[key]; ok {
			*slot = v
		}
	}
	return c
}

// ToMap flattens the income statement into its canonical dictionary form.
func (c *IncomeStatement) ToMap() FieldMap {
	m := FieldMap{}
	for key, slot := range isFields(c) {
		m.Put(key, *slot)
	}
	return m
}
