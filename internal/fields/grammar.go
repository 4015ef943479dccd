package fields

import (
	"regexp"
	"time"
)

// CURP grammar: 4 letters, 6-digit birth date, sex marker, 5 letters,
// one alphanumeric differentiator, one check digit. 18 characters total.
var (
	curpExact = regexp.MustCompile(`^[A-Z]{4}[0-9]{6}[HM][A-Z]{5}[0-9A-Z][0-9]$`)
	curpAny   = regexp.MustCompile(`[A-Z]{4}[0-9]{6}[HM][A-Z]{5}[0-9A-Z][0-9]`)

	// Clave de elector: 6 letters, 8 digits, sex marker, 3 digits.
	voterKeyAny = regexp.MustCompile(`[A-Z]{6}[0-9]{8}[HM][0-9]{3}`)
)

// IsCURP reports whether s is exactly a well-formed CURP.
func IsCURP(s string) bool { return curpExact.MatchString(s) }

// ContainsCURP reports whether s embeds a CURP-shaped substring anywhere.
func ContainsCURP(s string) bool { return curpAny.MatchString(s) }

// FindCURP returns the first CURP-shaped substring of s, or "".
func FindCURP(s string) string { return curpAny.FindString(s) }

// FindVoterKey returns the first voter-key-shaped substring of s that is not
// itself part of a CURP, or "".
func FindVoterKey(s string) string {
	for _, loc := range voterKeyAny.FindAllStringIndex(s, -1) {
		cand := s[loc[0]:loc[1]]
		if !curpAny.MatchString(cand) {
			return cand
		}
	}
	return ""
}

// CURPBirthDate derives the ISO birth date embedded at positions 4..9.
// Century comes from the differentiator at position 16: a digit means a
// 1900s birth, a letter a 2000s one. Returns "" for an impossible date.
func CURPBirthDate(curp string) string {
	if !IsCURP(curp) {
		return ""
	}
	century := "19"
	if d := curp[16]; d >= 'A' && d <= 'Z' {
		century = "20"
	}
	raw := century + curp[4:10]
	t, err := time.Parse("20060102", raw)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}

// CURPSex maps the sex marker at position 10 (H=hombre, M=mujer).
func CURPSex(curp string) Sex {
	if !IsCURP(curp) {
		return SexUnknown
	}
	switch curp[10] {
	case 'H':
		return SexMale
	case 'M':
		return SexFemale
	}
	return SexUnknown
}

// SexFromMarker maps a document sex marker (H/M as printed on the card).
func SexFromMarker(m string) Sex {
	switch m {
	case "H", "h":
		return SexMale
	case "M", "m":
		return SexFemale
	}
	return SexUnknown
}
