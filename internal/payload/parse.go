// Package payload converts raw decoded strings into normalized identity
// fields. One strategy per source encoding; every extraction is best-effort
// and a missing field yields a zero value, never an error.
package payload

import (
	"strings"
	"time"

	"idscan/internal/classify"
	"idscan/internal/fields"
)

// Parse dispatches on symbology plus content sniffing. MRZ text shows up
// both in machine-readable zones read by OCR and reproduced inside some 2D
// codes, so the sniff wins over the symbology tag.
func Parse(rawText string, symbology classify.Symbology) fields.IdentityFields {
	var f fields.IdentityFields
	switch {
	case looksLikeMRZ(rawText):
		f = parseMRZ(rawText)
		f.Source = fields.SourceMRZ
	case symbology == classify.SymbologyQR:
		f = parseQR(rawText)
		f.Source = fields.SourceQR
	default:
		f = parseStacked(rawText)
		f.Source = fields.SourceStacked
	}
	f.RawEvidence = rawText
	f.ExtractedAt = time.Now().UTC()
	f.FillFromCURP()
	if f.FullName == "" {
		f.FullName = assembleName(f)
	}
	return f
}

// looksLikeMRZ requires the double-filler name marker plus a nationality
// token; either alone appears in too much unrelated text.
func looksLikeMRZ(raw string) bool {
	up := strings.ToUpper(raw)
	return strings.Contains(up, "<<") && strings.Contains(up, "MEX")
}

// assembleName concatenates MRZ name parts (given names first, Mexican
// surname order) when no explicit full name was extracted.
func assembleName(f fields.IdentityFields) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{f.GivenNames, f.PaternalSurname, f.MaternalSurname} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}
