package pdfimport

import (
	"strings"

	"bilancio/pkg/core/schema"
)

// Section is the cursor of the label-driven state machine. Several statutory
// labels are ambiguous on their own ("esigibili entro l'esercizio
// successivo" appears under both receivables and payables); the cursor
// resolves them by tracking which section header was seen last.
type Section int

const (
	SectionNone Section = iota
	SectionReceivables
	SectionPayables
)

// Line is one extracted label/value pair in document order.
type Line struct {
	Label string
	Value string
}

// labelRules maps normalized extraction labels onto canonical fields.
// Ambiguous maturity labels are handled by the section cursor instead.
var labelRules = map[string]string{
	"crediti verso soci":                      schema.SP01CreditiSoci,
	"immobilizzazioni immateriali":            schema.SP02ImmobImmateriali,
	"immobilizzazioni materiali":              schema.SP03ImmobMateriali,
	"immobilizzazioni finanziarie":            schema.SP04ImmobFinanziarie,
	"rimanenze":                               schema.SP05Rimanenze,
	"attivita finanziarie":                    schema.SP08AttivFinanziarie,
	"disponibilita liquide":                   schema.SP09Disponibilita,
	"ratei e risconti attivi":                 schema.SP10RateiAttivi,
	"capitale":                                schema.SP11Capitale,
	"capitale sociale":                        schema.SP11Capitale,
	"riserve":                                 schema.SP12Riserve,
	"utile (perdita) dell'esercizio":          schema.SP13UtileEsercizio,
	"utile dell'esercizio":                    schema.SP13UtileEsercizio,
	"fondi per rischi e oneri":                schema.SP14FondiRischi,
	"trattamento di fine rapporto":            schema.SP15TFR,
	"tfr":                                     schema.SP15TFR,
	"ratei e risconti passivi":                schema.SP18RateiPassivi,
	"totale attivo":                           KeyTotaleAttivo,
	"totale passivo":                          KeyTotalePassivo,

	"ricavi delle vendite e delle prestazioni": schema.CE01Ricavi,
	"variazioni delle rimanenze":               schema.CE02VarRimanenze,
	"incrementi di immobilizzazioni":           schema.CE03Incrementi,
	"altri ricavi e proventi":                  schema.CE04AltriRicavi,
	"per materie prime, sussidiarie, di consumo e di merci": schema.CE05Materie,
	"per servizi":                           schema.CE06Servizi,
	"per godimento di beni di terzi":        schema.CE07Godimento,
	"per il personale":                      schema.CE08Personale,
	"ammortamenti e svalutazioni":           schema.CE09Ammortamenti,
	"svalutazioni dei crediti":              schema.CE10Svalutazioni,
	"accantonamenti per rischi":             schema.CE11Accantonamenti,
	"oneri diversi di gestione":             schema.CE12OneriDiversi,
	"proventi da partecipazioni":            schema.CE13ProventiPart,
	"altri proventi finanziari":             schema.CE14ProventiFin,
	"interessi e altri oneri finanziari":    schema.CE15OneriFin,
	"utili e perdite su cambi":              schema.CE16Cambi,
	"rettifiche di valore di attivita finanziarie": schema.CE17Rettifiche,
	"proventi straordinari":                 schema.CE18ProventiStra,
	"oneri straordinari":                    schema.CE19OneriStra,
	"imposte sul reddito dell'esercizio":    schema.CE20Imposte,
	"imposte sul reddito":                   schema.CE20Imposte,
}

// Validation totals travel alongside the statement fields but are never
// persisted as line items.
const (
	KeyTotaleAttivo  = "totale_attivo"
	KeyTotalePassivo = "totale_passivo"
)

const (
	maturityShort = "esigibili entro l'esercizio successivo"
	maturityLong  = "esigibili oltre l'esercizio successivo"
)

// MapLines walks the extracted lines in document order and produces the
// canonical balance-sheet and income-statement dictionaries. Unrecognized
// labels are returned as warnings, not errors: a partially recognized
// statement still goes through validation, which is the real gate.
func MapLines(lines []Line) (schema.FieldMap, schema.FieldMap, []string) {
	bs := schema.FieldMap{}
	is := schema.FieldMap{}
	var warnings []string

	cursor := SectionNone
	for _, line := range lines {
		label := normalizeLabel(line.Label)

		switch label {
		case "crediti":
			cursor = SectionReceivables
			continue
		case "debiti":
			cursor = SectionPayables
			continue
		}

		field, ok := resolveLabel(label, cursor)
		if !ok {
			if strings.TrimSpace(line.Value) != "" {
				warnings = append(warnings, "unrecognized label: "+line.Label)
			}
			continue
		}

		v, err := ParseItalianNumber(line.Value)
		if err != nil {
			warnings = append(warnings, err.Error())
			continue
		}

		target := bs
		if strings.HasPrefix(field, "ce") {
			target = is
		}
		target.Put(field, target.Get(field).Add(v))
	}

	return bs, is, warnings
}

func resolveLabel(label string, cursor Section) (string, bool) {
	if field, ok := labelRules[label]; ok {
		return field, true
	}

	short := strings.Contains(label, maturityShort)
	long := strings.Contains(label, maturityLong)
	if !short && !long {
		return "", false
	}
	switch cursor {
	case SectionReceivables:
		if short {
			return schema.SP06CreditiBreve, true
		}
		return schema.SP07CreditiOltre, true
	case SectionPayables:
		if short {
			return schema.SP16DebitiBreve, true
		}
		return schema.SP17DebitiOltre, true
	}
	return "", false
}

// normalizeLabel lowercases, collapses whitespace and strips accents the OCR
// renders inconsistently.
func normalizeLabel(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Join(strings.Fields(s), " ")
	replacer := strings.NewReplacer("à", "a", "è", "e", "é", "e", "ì", "i", "ò", "o", "ù", "u", "’", "'")
	return replacer.Replace(s)
}
