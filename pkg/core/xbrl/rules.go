package xbrl

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	"bilancio/pkg/core/schema"
)

// FieldRule declares how one canonical field is sourced from tagged facts.
// Priorities are tried in order and the first textual match wins. When
// AccumulateAll is set, every fact matching any detail tag is summed instead
// (Italian equity reserves are reported as mutually exclusive line items
// that jointly compose one canonical field). DetailTags also serve as the
// fallback when no priority tag matched.
type FieldRule struct {
	Priorities    []string `yaml:"priorities"`
	DetailTags    []string `yaml:"detail_tags"`
	AccumulateAll bool     `yaml:"accumulate_all"`
}

// RuleSet keys field rules by canonical field name.
type RuleSet map[string]FieldRule

// LoadRules merges a YAML override file over the built-in tables, letting a
// new taxonomy version be supported without touching mapping code.
func LoadRules(path string) (RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("xbrl: reading rule file: %w", err)
	}
	var overrides RuleSet
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("xbrl: parsing rule file: %w", err)
	}

	merged := make(RuleSet, len(defaultRules))
	for field, rule := range defaultRules {
		merged[field] = rule
	}
	for field, rule := range overrides {
		merged[field] = rule
	}
	return merged, nil
}

// defaultRules covers the itcc-ci taxonomy variants seen in practice.
var defaultRules = RuleSet{
	// ----- Stato patrimoniale: attivo -----
	schema.SP01CreditiSoci: {
		Priorities: []string{
			"CreditiVersoSociPerVersamentiAncoraDovuti",
			"TotaleCreditiVersoSociPerVersamentiAncoraDovuti",
		},
	},
	schema.SP02ImmobImmateriali: {
		Priorities: []string{
			"TotaleImmobilizzazioniImmateriali",
			"ImmobilizzazioniImmateriali",
		},
	},
	schema.SP03ImmobMateriali: {
		Priorities: []string{
			"TotaleImmobilizzazioniMateriali",
			"ImmobilizzazioniMateriali",
		},
	},
	schema.SP04ImmobFinanziarie: {
		Priorities: []string{
			"TotaleImmobilizzazioniFinanziarie",
			"ImmobilizzazioniFinanziarie",
		},
		DetailTags: []string{
			"PartecipazioniImpreseControllate",
			"PartecipazioniImpreseCollegate",
			"PartecipazioniAltreImprese",
			"CreditiImmobilizzazioniFinanziarie",
			"AltriTitoliImmobilizzazioniFinanziarie",
		},
	},
	schema.SP05Rimanenze: {
		Priorities: []string{"TotaleRimanenze", "Rimanenze"},
	},
	schema.SP06CreditiBreve: {
		Priorities: []string{
			"CreditiEsigibiliEntroEsercizioSuccessivo",
			"AttivoCircolanteCreditiEsigibiliEntroEsercizioSuccessivo",
			"TotaleCreditiEsigibiliEntroEsercizioSuccessivo",
		},
	},
	schema.SP07CreditiOltre: {
		Priorities: []string{
			"CreditiEsigibiliOltreEsercizioSuccessivo",
			"AttivoCircolanteCreditiEsigibiliOltreEsercizioSuccessivo",
			"TotaleCreditiEsigibiliOltreEsercizioSuccessivo",
		},
	},
	schema.SP08AttivFinanziarie: {
		Priorities: []string{
			"TotaleAttivitaFinanziarieNonImmobilizzazioni",
			"AttivitaFinanziarieCheNonCostituisconoImmobilizzazioni",
		},
	},
	schema.SP09Disponibilita: {
		Priorities: []string{"TotaleDisponibilitaLiquide", "DisponibilitaLiquide"},
	},
	schema.SP10RateiAttivi: {
		Priorities: []string{"TotaleRateiRiscontiAttivi", "RateiRiscontiAttivi"},
	},

	// ----- Stato patrimoniale: passivo -----
	schema.SP11Capitale: {
		Priorities: []string{"CapitaleSociale", "Capitale"},
	},
	schema.SP12Riserve: {
		// Reserves are reported as separate mutually exclusive line items;
		// they are all summed into the canonical field.
		AccumulateAll: true,
		DetailTags: []string{
			"RiservaDaSoprapprezzoAzioni",
			"RiserveRivalutazione",
			"RiservaLegale",
			"RiserveStatutarie",
			"RiservaStraordinaria",
			"AltreRiserve",
			"UtiliPerditePortatiANuovo",
		},
	},
	schema.SP13UtileEsercizio: {
		Priorities: []string{
			"UtilePerditaEsercizio",
			"RisultatoEsercizio",
			"TotaleUtilePerditaEsercizio",
		},
	},
	schema.SP14FondiRischi: {
		Priorities: []string{"TotaleFondiRischiOneri", "FondiPerRischiOneri"},
	},
	schema.SP15TFR: {
		Priorities: []string{
			"TrattamentoFineRapportoLavoroSubordinato",
			"TotaleTrattamentoFineRapportoLavoroSubordinato",
		},
	},
	schema.SP16DebitiBreve: {
		Priorities: []string{
			"DebitiEsigibiliEntroEsercizioSuccessivo",
			"TotaleDebitiEsigibiliEntroEsercizioSuccessivo",
		},
		DetailTags: []string{
			"DebitiVersoBancheEntroEsercizio",
			"ObbligazioniEntroEsercizio",
			"DebitiVersoFornitoriEntroEsercizio",
			"AccontiEntroEsercizio",
			"DebitiTributariEntroEsercizio",
			"DebitiVersoIstitutiPrevidenzaEntroEsercizio",
			"AltriDebitiEntroEsercizio",
		},
	},
	schema.SP17DebitiOltre: {
		Priorities: []string{
			"DebitiEsigibiliOltreEsercizioSuccessivo",
			"TotaleDebitiEsigibiliOltreEsercizioSuccessivo",
		},
		DetailTags: []string{
			"DebitiVersoBancheOltreEsercizio",
			"ObbligazioniOltreEsercizio",
			"DebitiVersoFornitoriOltreEsercizio",
			"AccontiOltreEsercizio",
			"DebitiTributariOltreEsercizio",
			"DebitiVersoIstitutiPrevidenzaOltreEsercizio",
			"AltriDebitiOltreEsercizio",
		},
	},
	schema.SP18RateiPassivi: {
		Priorities: []string{"TotaleRateiRiscontiPassivi", "RateiRiscontiPassivi"},
	},

	// ----- Conto economico -----
	schema.CE01Ricavi: {
		Priorities: []string{"RicaviVenditePrestazioni", "TotaleRicaviVenditePrestazioni"},
	},
	schema.CE02VarRimanenze: {
		Priorities: []string{
			"VariazioniRimanenzeProdottiCorsoLavorazioneSemilavoratiFiniti",
			"VariazioniRimanenzeProdotti",
		},
	},
	schema.CE03Incrementi: {
		Priorities: []string{"IncrementiImmobilizzazioniLavoriInterni"},
	},
	schema.CE04AltriRicavi: {
		Priorities: []string{"AltriRicaviProventi", "TotaleAltriRicaviProventi"},
	},
	schema.CE05Materie: {
		Priorities: []string{
			"PerMateriePrimeSussidiarieConsumoMerci",
			"CostiProduzioneMateriePrime",
		},
	},
	schema.CE06Servizi: {
		Priorities: []string{"PerServizi", "CostiProduzioneServizi"},
	},
	schema.CE07Godimento: {
		Priorities: []string{"PerGodimentoBeniTerzi", "CostiProduzioneGodimentoBeniTerzi"},
	},
	schema.CE08Personale: {
		Priorities: []string{"TotaleCostiPersonale", "CostiProduzionePersonale"},
		DetailTags: []string{
			"SalariStipendi",
			"OneriSociali",
			"TrattamentoFineRapporto",
			"AltriCostiPersonale",
		},
	},
	schema.CE09Ammortamenti: {
		Priorities: []string{"TotaleAmmortamentiSvalutazioni", "AmmortamentiSvalutazioni"},
		DetailTags: []string{
			"AmmortamentoImmobilizzazioniImmateriali",
			"AmmortamentoImmobilizzazioniMateriali",
			"AltreSvalutazioniImmobilizzazioni",
			"SvalutazioniCreditiAttivoCircolante",
		},
	},
	schema.CE10Svalutazioni: {
		Priorities: []string{"SvalutazioniCreditiAttivoCircolanteDisponibilitaLiquide"},
	},
	schema.CE11Accantonamenti: {
		AccumulateAll: true,
		DetailTags:    []string{"AccantonamentiPerRischi", "AltriAccantonamenti"},
	},
	schema.CE12OneriDiversi: {
		Priorities: []string{"OneriDiversiGestione", "TotaleOneriDiversiGestione"},
	},
	schema.CE13ProventiPart: {
		Priorities: []string{"ProventiDaPartecipazioni", "TotaleProventiDaPartecipazioni"},
	},
	schema.CE14ProventiFin: {
		Priorities: []string{"AltriProventiFinanziari", "TotaleAltriProventiFinanziari"},
	},
	schema.CE15OneriFin: {
		Priorities: []string{"InteressiAltriOneriFinanziari", "TotaleInteressiAltriOneriFinanziari"},
	},
	schema.CE16Cambi: {
		Priorities: []string{"UtiliPerditeSuCambi"},
	},
	schema.CE17Rettifiche: {
		Priorities: []string{
			"TotaleRettificheValoreAttivitaFinanziarie",
			"RettificheValoreAttivitaFinanziarie",
		},
	},
	schema.CE18ProventiStra: {
		Priorities: []string{"ProventiStraordinari", "TotaleProventiStraordinari"},
	},
	schema.CE19OneriStra: {
		Priorities: []string{"OneriStraordinari", "TotaleOneriStraordinari"},
	},
	schema.CE20Imposte: {
		Priorities: []string{
			"ImposteRedditoEsercizio",
			"ImposteRedditoEsercizioCorrentiDifferiteAnticipate",
			"TotaleImposteRedditoEsercizio",
		},
	},
}

// balanceSheetFields marks which canonical fields belong to the balance
// sheet; everything else mapped by the rules is income statement.
var balanceSheetFields = map[string]bool{
	schema.SP01CreditiSoci: true, schema.SP02ImmobImmateriali: true,
	schema.SP03ImmobMateriali: true, schema.SP04ImmobFinanziarie: true,
	schema.SP05Rimanenze: true, schema.SP06CreditiBreve: true,
	schema.SP07CreditiOltre: true, schema.SP08AttivFinanziarie: true,
	schema.SP09Disponibilita: true, schema.SP10RateiAttivi: true,
	schema.SP11Capitale: true, schema.SP12Riserve: true,
	schema.SP13UtileEsercizio: true, schema.SP14FondiRischi: true,
	schema.SP15TFR: true, schema.SP16DebitiBreve: true,
	schema.SP17DebitiOltre: true, schema.SP18RateiPassivi: true,
}

// detailFieldTags routes specific detail tags into the schema's sub-detail
// fields, in addition to their contribution to the parent canonical field.
var detailFieldTags = map[string]string{
	"PartecipazioniImpreseControllate":       schema.SP04PartControllate,
	"PartecipazioniImpreseCollegate":         schema.SP04PartCollegate,
	"PartecipazioniAltreImprese":             schema.SP04PartAltre,
	"CreditiImmobilizzazioniFinanziarie":     schema.SP04CreditiFin,
	"AltriTitoliImmobilizzazioniFinanziarie": schema.SP04AltriTitoli,

	"RiservaDaSoprapprezzoAzioni": schema.SP12Sovrapprezzo,
	"RiserveRivalutazione":        schema.SP12Rivalutazione,
	"RiservaLegale":               schema.SP12Legale,
	"RiservaStraordinaria":        schema.SP12Straordinaria,
	"AltreRiserve":                schema.SP12Altre,
	"UtiliPerditePortatiANuovo":   schema.SP12UtiliANuovo,

	"DebitiVersoBancheEntroEsercizio":             schema.SP16Banche,
	"ObbligazioniEntroEsercizio":                  schema.SP16Obbligazioni,
	"DebitiVersoFornitoriEntroEsercizio":          schema.SP16Fornitori,
	"AccontiEntroEsercizio":                       schema.SP16Acconti,
	"DebitiTributariEntroEsercizio":               schema.SP16Tributari,
	"DebitiVersoIstitutiPrevidenzaEntroEsercizio": schema.SP16Previdenziali,
	"AltriDebitiEntroEsercizio":                   schema.SP16AltriDebiti,

	"DebitiVersoBancheOltreEsercizio":             schema.SP17Banche,
	"ObbligazioniOltreEsercizio":                  schema.SP17Obbligazioni,
	"DebitiVersoFornitoriOltreEsercizio":          schema.SP17Fornitori,
	"AccontiOltreEsercizio":                       schema.SP17Acconti,
	"DebitiTributariOltreEsercizio":               schema.SP17Tributari,
	"DebitiVersoIstitutiPrevidenzaOltreEsercizio": schema.SP17Previdenziali,
	"AltriDebitiOltreEsercizio":                   schema.SP17AltriDebiti,

	"TrattamentoFineRapporto":                 schema.CE08AccTFR,
	"AmmortamentoImmobilizzazioniImmateriali": schema.CE09AmmImmateriali,
	"AmmortamentoImmobilizzazioniMateriali":   schema.CE09AmmMateriali,
	"AltreSvalutazioniImmobilizzazioni":       schema.CE09AltreSval,
	"SvalutazioniCreditiAttivoCircolante":     schema.CE09SvalCrediti,
	"AccantonamentiPerRischi":                 schema.CE11AccRischi,
}

// anchorRule describes one aggregate anchor reconciliation: the anchor tag
// carries the authoritative total; the mapped short+long split must sum to
// it, with any residual injected into the short-term field.
type anchorRule struct {
	name       string
	anchorTags []string
	shortField string
	longField  string
}

var anchorRules = []anchorRule{
	{
		name:       "crediti",
		anchorTags: []string{"TotaleCrediti", "CreditiAttivoCircolante"},
		shortField: schema.SP06CreditiBreve,
		longField:  schema.SP07CreditiOltre,
	},
	{
		name:       "debiti",
		anchorTags: []string{"TotaleDebiti", "Debiti"},
		shortField: schema.SP16DebitiBreve,
		longField:  schema.SP17DebitiOltre,
	},
}

// legacyRules is the broad, unordered second-pass table for pre-2015
// taxonomy variants. It is consulted only for tags the priority system left
// unconsumed and never overwrites an already-populated field.
var legacyRules = map[string]string{
	"ImmobilizzazioniImmaterialiNette":   schema.SP02ImmobImmateriali,
	"ImmobilizzazioniMaterialiNette":     schema.SP03ImmobMateriali,
	"RimanenzeMagazzino":                 schema.SP05Rimanenze,
	"CreditiVersoClienti":                schema.SP06CreditiBreve,
	"DisponibilitaLiquideTotali":         schema.SP09Disponibilita,
	"CapitaleSocialeVersato":             schema.SP11Capitale,
	"FondoTrattamentoFineRapporto":       schema.SP15TFR,
	"DebitiVersoBanche":                  schema.SP16DebitiBreve,
	"RicaviDelleVendite":                 schema.CE01Ricavi,
	"CostiPerMateriePrime":               schema.CE05Materie,
	"CostiPerServizi":                    schema.CE06Servizi,
	"CostoDelPersonale":                  schema.CE08Personale,
	"AmmortamentiImmobilizzazioni":       schema.CE09Ammortamenti,
	"OneriFinanziariNetti":               schema.CE15OneriFin,
	"ImposteSulReddito":                  schema.CE20Imposte,
}
