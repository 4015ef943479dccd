package payload

import (
	"strings"

	"idscan/internal/fields"
)

// parseQR handles QR payloads, which are usually verification URLs. Some
// regional card variants embed the CURP and the voter key in the query
// string, so both grammars are probed anyway.
func parseQR(raw string) fields.IdentityFields {
	up := strings.ToUpper(raw)
	var f fields.IdentityFields
	if c := fields.FindCURP(up); c != "" {
		f.CURP = c
	}
	if v := fields.FindVoterKey(up); v != "" {
		f.VoterKey = v
	}
	return f
}
