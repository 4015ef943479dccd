package vision

import (
	"encoding/json"
	"strings"

	"idscan/internal/fields"
	"idscan/internal/util"
)

// extractionPrompt is the fixed structured-JSON instruction sent to every
// vision model. Keeping one prompt per chain keeps provider answers
// comparable when reconciling partial results.
const extractionPrompt = `You are reading a photo or scan of a Mexican voter ID card (credencial INE/IFE).
Extract the printed fields and return STRICT JSON only, no prose, exactly this shape:
{
  "fullName": string,
  "curp": string,
  "voterKey": string,
  "birthDate": string,
  "section": string,
  "sex": string,
  "address": string
}
Rules:
- Copy text exactly as printed; do not expand abbreviations.
- Leave a field as "" when it is unreadable or absent. Never guess.
- "curp" is the 18-character CURP; "voterKey" is the 18-character CLAVE DE ELECTOR.
- "birthDate" must be YYYY-MM-DD or "".
- "sex" is "H", "M" or "".
- "section" is the 4-digit SECCION.
Any text outside the JSON object is an error.`

// wireFields is the JSON shape providers are instructed to return.
type wireFields struct {
	FullName  string `json:"fullName"`
	CURP      string `json:"curp"`
	VoterKey  string `json:"voterKey"`
	BirthDate string `json:"birthDate"`
	Section   string `json:"section"`
	Sex       string `json:"sex"`
	Address   string `json:"address"`
}

// decodeWire parses a model answer, tolerating code fences, and converts it
// into the canonical field set. Malformed JSON maps to ErrBadJSON so the
// chain can advance.
func decodeWire(answer string, source fields.Source) (fields.IdentityFields, error) {
	clean := util.StripCodeFences(answer)
	var w wireFields
	if err := json.Unmarshal([]byte(clean), &w); err != nil {
		return fields.IdentityFields{}, ErrBadJSON
	}
	f := fields.IdentityFields{
		FullName:  strings.TrimSpace(w.FullName),
		CURP:      strings.ToUpper(strings.TrimSpace(w.CURP)),
		VoterKey:  strings.ToUpper(strings.TrimSpace(w.VoterKey)),
		BirthDate: strings.TrimSpace(w.BirthDate),
		Section:   strings.TrimSpace(w.Section),
		Sex:       fields.SexFromMarker(strings.TrimSpace(w.Sex)),
		Address:   strings.TrimSpace(w.Address),
		Source:    source,
	}
	// A malformed CURP is discarded rather than passed on as fact.
	if f.CURP != "" && !fields.IsCURP(f.CURP) {
		f.CURP = ""
		f.Warnings = append(f.Warnings, "curp_malformed")
	}
	return f, nil
}
