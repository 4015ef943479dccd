// Package fields defines the canonical identity-field set produced by every
// recognition path (decoded code, AI vision, OCR fallback). Absence of a
// field always means "not recovered", never a guess.
package fields

import (
	"strings"
	"time"
)

type Sex string

const (
	SexMale    Sex = "M"
	SexFemale  Sex = "F"
	SexUnknown Sex = ""
)

// Source tags which recognition path produced a field set.
type Source string

const (
	SourceMRZ     Source = "mrz"
	SourceQR      Source = "qr"
	SourceStacked Source = "stacked"
	SourceOCR     Source = "ocr"
)

// VisionSource tags a result extracted by an AI vision provider.
func VisionSource(provider string) Source {
	return Source("vision:" + provider)
}

// IdentityFields is the normalized output of the recognition pipeline.
// Every field except Source is optional.
type IdentityFields struct {
	FullName        string    `json:"fullName,omitempty"`
	GivenNames      string    `json:"givenNames,omitempty"`
	PaternalSurname string    `json:"paternalSurname,omitempty"`
	MaternalSurname string    `json:"maternalSurname,omitempty"`
	CURP            string    `json:"curp,omitempty"`
	VoterKey        string    `json:"voterKey,omitempty"`
	BirthDate       string    `json:"birthDate,omitempty"` // ISO-8601, empty when unknown
	Section         string    `json:"section,omitempty"`
	Sex             Sex       `json:"sex,omitempty"`
	Address         string    `json:"address,omitempty"`
	Source          Source    `json:"source"`
	RawEvidence     string    `json:"rawEvidence,omitempty"`
	Warnings        []string  `json:"warnings,omitempty"`
	ExtractedAt     time.Time `json:"extractedAt"`
}

// HasSignal reports whether the result carries enough personal data to be
// accepted by the failover chain (CURP or a name).
func (f *IdentityFields) HasSignal() bool {
	return strings.TrimSpace(f.CURP) != "" || strings.TrimSpace(f.FullName) != ""
}

func (f *IdentityFields) warn(w string) {
	for _, have := range f.Warnings {
		if have == w {
			return
		}
	}
	f.Warnings = append(f.Warnings, w)
}

// FillFromCURP derives birth date and sex from a valid CURP. Derived values
// only fill gaps; when a document-native value disagrees with the CURP both
// are kept and a soft warning is recorded, the mismatch is never resolved
// by guessing.
func (f *IdentityFields) FillFromCURP() {
	curp := strings.ToUpper(strings.TrimSpace(f.CURP))
	if !IsCURP(curp) {
		if curp != "" {
			f.warn("curp_malformed")
		}
		return
	}
	f.CURP = curp

	if bd := CURPBirthDate(curp); bd != "" {
		if f.BirthDate == "" {
			f.BirthDate = bd
		} else if f.BirthDate != bd {
			f.warn("birth_date_mismatch")
		}
	}
	if sx := CURPSex(curp); sx != SexUnknown {
		if f.Sex == SexUnknown {
			f.Sex = sx
		} else if f.Sex != sx {
			f.warn("sex_mismatch")
		}
	}
}
