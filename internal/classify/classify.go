// Package classify decides whether a decoded payload carries extractable
// personal data or is just a verification link / noise.
package classify

import (
	"net/url"
	"strings"

	"idscan/internal/fields"
)

// Symbology identifies the code format a payload was decoded from.
type Symbology string

const (
	SymbologyQR         Symbology = "qr"
	SymbologyPDFStacked Symbology = "pdf-stacked"
	SymbologyDataMatrix Symbology = "data-matrix"
	SymbologyAztec      Symbology = "aztec"
	SymbologyUnknown    Symbology = "unknown"
)

type Reason string

const (
	ReasonURLOnly      Reason = "url_only"
	ReasonStructuredID Reason = "has_structured_id_pattern"
	ReasonLongPayload  Reason = "long_payload"
	ReasonTooShort     Reason = "too_short"
)

type Verdict struct {
	Useful bool   `json:"useful"`
	Reason Reason `json:"reason"`
}

// longPayloadMin is the length above which a non-URL payload is assumed to
// carry dense encoded data even without a recognizable ID substring.
const longPayloadMin = 50

// Classify applies the usefulness rules in strict priority order. The URL
// test must run before the length test: verification links routinely exceed
// longPayloadMin and would otherwise pass as useful.
func Classify(rawText string, _ Symbology) Verdict {
	s := strings.TrimSpace(rawText)
	if isAbsoluteURL(s) {
		return Verdict{Useful: false, Reason: ReasonURLOnly}
	}
	if fields.ContainsCURP(strings.ToUpper(s)) {
		return Verdict{Useful: true, Reason: ReasonStructuredID}
	}
	if len(s) > longPayloadMin {
		return Verdict{Useful: true, Reason: ReasonLongPayload}
	}
	return Verdict{Useful: false, Reason: ReasonTooShort}
}

func isAbsoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// Domains whose QR codes are bare verification links. Kept as a fallback
// when the cascade finds nothing richer.
var verificationDomains = []string{
	"ine.mx",
	"listanominal.ine.mx",
	"verificacion.ine.mx",
}

// IsVerificationURL reports whether raw is a link into a known document
// verification service.
func IsVerificationURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range verificationDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
