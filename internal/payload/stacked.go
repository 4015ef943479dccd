package payload

import (
	"regexp"
	"strings"
	"time"

	"idscan/internal/fields"
)

var (
	sectionLabeledRe = regexp.MustCompile(`SECCI[OÓ]N\s*[:#]?\s*([0-9]{4})`)
	sectionBareRe    = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)
	dateSlashRe      = regexp.MustCompile(`([0-9]{2}/[0-9]{2}/[0-9]{4})`)
	sexLabeledRe     = regexp.MustCompile(`SEXO\s*[:#]?\s*([HM])`)
	letterTokenRe    = regexp.MustCompile(`^[A-ZÁÉÍÓÚÜÑ]+$`)
)

// Labeled fields as printed on the card. A labeled capture runs until the
// next label, so the order here only matters for lookup, not for bounds.
var stackedLabels = []string{
	"CLAVE DE ELECTOR",
	"FECHA DE NACIMIENTO",
	"AÑO DE REGISTRO",
	"ANO DE REGISTRO",
	"NOMBRE",
	"DOMICILIO",
	"CURP",
	"SECCIÓN",
	"SECCION",
	"SEXO",
	"VIGENCIA",
	"EMISIÓN",
	"EMISION",
	"LOCALIDAD",
	"MUNICIPIO",
	"ESTADO",
	"FOLIO",
}

// Agency boilerplate that must never be mistaken for a person's name.
var nameStopWords = map[string]bool{
	"INSTITUTO": true, "NACIONAL": true, "ELECTORAL": true, "FEDERAL": true,
	"MEXICO": true, "MÉXICO": true, "CREDENCIAL": true, "PARA": true,
	"VOTAR": true, "REGISTRO": true, "ELECTORES": true, "ELECTOR": true,
	"NOMBRE": true, "DOMICILIO": true, "CLAVE": true, "CURP": true,
	"SECCION": true, "SECCIÓN": true, "SEXO": true, "FECHA": true,
	"NACIMIENTO": true, "EDAD": true, "FOLIO": true, "VIGENCIA": true,
	"EMISION": true, "EMISIÓN": true, "LOCALIDAD": true, "MUNICIPIO": true,
	"ESTADO": true, "AÑO": true, "ANO": true, "DE": true, "DEL": true,
}

// parseStacked is the densest strategy: stacked symbols and OCR output both
// look like unlabeled or semi-labeled document text, so everything is
// recovered by tolerant pattern probes.
func parseStacked(raw string) fields.IdentityFields {
	up := strings.ToUpper(raw)
	var f fields.IdentityFields

	if c := fields.FindCURP(up); c != "" {
		f.CURP = c
	}
	if v := fields.FindVoterKey(up); v != "" {
		f.VoterKey = v
	}

	if m := sectionLabeledRe.FindStringSubmatch(up); m != nil {
		f.Section = m[1]
	} else if m := sectionBareRe.FindStringSubmatch(up); m != nil {
		f.Section = m[1]
	}

	if m := dateSlashRe.FindStringSubmatch(up); m != nil {
		if t, err := time.Parse("02/01/2006", m[1]); err == nil {
			f.BirthDate = t.Format("2006-01-02")
		}
	}

	if m := sexLabeledRe.FindStringSubmatch(up); m != nil {
		f.Sex = fields.SexFromMarker(m[1])
	}

	if name := captureAfterLabel(up, "NOMBRE"); name != "" {
		f.FullName = name
	} else if name := nameByTokenRun(up); name != "" {
		f.FullName = name
	}

	f.Address = captureAfterLabel(up, "DOMICILIO")
	return f
}

// captureAfterLabel returns the text between a label and the next known
// label, whitespace-collapsed. Empty when the label is absent.
func captureAfterLabel(text, label string) string {
	i := strings.Index(text, label)
	if i < 0 {
		return ""
	}
	rest := text[i+len(label):]
	rest = strings.TrimLeft(rest, ":# \t")
	end := len(rest)
	for _, l := range stackedLabels {
		if l == label {
			continue
		}
		if j := strings.Index(rest, l); j >= 0 && j < end {
			end = j
		}
	}
	return strings.Join(strings.Fields(rest[:end]), " ")
}

// nameByTokenRun finds the longest run of 2..5 consecutive all-letter
// tokens free of boilerplate stop words. Runs longer than five tokens are
// trimmed; name lines on the card never exceed five words.
func nameByTokenRun(text string) string {
	tokens := strings.Fields(text)
	var best []string
	var run []string
	flush := func() {
		if len(run) >= 2 && len(run) > len(best) {
			best = run
		}
		run = nil
	}
	for _, tok := range tokens {
		if letterTokenRe.MatchString(tok) && !nameStopWords[tok] {
			run = append(run, tok)
			if len(run) == 5 {
				flush()
			}
			continue
		}
		flush()
	}
	flush()
	return strings.Join(best, " ")
}
