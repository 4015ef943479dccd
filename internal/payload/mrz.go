package payload

import (
	"regexp"
	"strings"
	"time"

	"idscan/internal/fields"
)

var (
	// 6-digit YYMMDD run immediately preceding the sex marker.
	mrzBirthSexRe = regexp.MustCompile(`([0-9]{6})([HM])`)
	// Lone sex marker, for payloads that carry no date next to it.
	mrzLoneSexRe = regexp.MustCompile(`(?:^|[^A-Z])([HM])(?:[^A-Z]|$)`)
	mrzTokenRe   = regexp.MustCompile(`[A-ZÑ0-9]+`)
	mrzLetterRe  = regexp.MustCompile(`[A-ZÑ]`)
)

// MRZ tokens that are never name parts.
var mrzNoise = map[string]bool{
	"MEX": true, "IDMEX": true, "ID": true, "INE": true, "IFE": true,
}

func parseMRZ(raw string) fields.IdentityFields {
	up := strings.ToUpper(raw)
	var f fields.IdentityFields

	// Probe the CURP before stripping the biographic run; the run's own
	// digits can sit inside the CURP.
	if c := fields.FindCURP(up); c != "" {
		f.CURP = c
	}

	if m := mrzBirthSexRe.FindStringSubmatch(up); m != nil {
		f.BirthDate = mrzDate(m[1])
		f.Sex = fields.SexFromMarker(m[2])
		// Keep the biographic run out of the name tokens below.
		up = strings.Replace(up, m[0], " ", 1)
	} else if m := mrzLoneSexRe.FindStringSubmatch(up); m != nil {
		f.Sex = fields.SexFromMarker(m[1])
	}

	seg := nameSegment(up)
	if i := strings.Index(seg, "<<"); i >= 0 {
		surnames := nameTokens(seg[:i])
		if len(surnames) > 0 {
			f.PaternalSurname = surnames[0]
		}
		if len(surnames) > 1 {
			f.MaternalSurname = strings.Join(surnames[1:], " ")
		}
		f.GivenNames = strings.Join(nameTokens(seg[i+2:]), " ")
	}
	return f
}

// nameSegment picks the line holding the double-filler name marker. When
// several lines qualify (the document-number line also uses "<<"), the one
// with the fewest digits is the name line.
func nameSegment(up string) string {
	lines := strings.Split(up, "\n")
	best, bestDigits := "", -1
	for _, ln := range lines {
		if !strings.Contains(ln, "<<") {
			continue
		}
		d := strings.Count(ln, "0") + strings.Count(ln, "1") + strings.Count(ln, "2") +
			strings.Count(ln, "3") + strings.Count(ln, "4") + strings.Count(ln, "5") +
			strings.Count(ln, "6") + strings.Count(ln, "7") + strings.Count(ln, "8") +
			strings.Count(ln, "9")
		if bestDigits == -1 || d < bestDigits {
			best, bestDigits = ln, d
		}
	}
	return best
}

// nameTokens splits a filler-separated chunk into tokens, dropping pure
// digit runs and country/document noise.
func nameTokens(chunk string) []string {
	var out []string
	for _, tok := range mrzTokenRe.FindAllString(chunk, -1) {
		if mrzNoise[tok] || !mrzLetterRe.MatchString(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// mrzDate converts YYMMDD to ISO-8601. Two-digit years above 50 belong to
// the 1900s, the rest to the 2000s. Impossible dates yield "".
func mrzDate(yymmdd string) string {
	if len(yymmdd) != 6 {
		return ""
	}
	century := "20"
	if yymmdd[:2] > "50" {
		century = "19"
	}
	t, err := time.Parse("20060102", century+yymmdd)
	if err != nil {
		return ""
	}
	return t.Format("2006-01-02")
}
