package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCURP(t *testing.T) {
	assert.True(t, IsCURP("GOMC990101HDFRRL09"))
	assert.True(t, IsCURP("LOPM851123MDFRRLA4"))

	assert.False(t, IsCURP("gomc990101hdfrrl09"), "lowercase is not canonical")
	assert.False(t, IsCURP("GOMC990101HDFRRL0"), "too short")
	assert.False(t, IsCURP("GOMC990101XDFRRL09"), "bad sex marker")
	assert.False(t, IsCURP("XGOMC990101HDFRRL09"), "leading junk")
	assert.False(t, IsCURP(""))
}

func TestContainsAndFindCURP(t *testing.T) {
	text := "HTTPS://EXAMPLE.INE.MX/V?C=GOMC990101HDFRRL09&X=1"
	assert.True(t, ContainsCURP(text))
	assert.Equal(t, "GOMC990101HDFRRL09", FindCURP(text))

	assert.False(t, ContainsCURP("NOTHING HERE"))
	assert.Equal(t, "", FindCURP("NOTHING HERE"))
}

func TestFindVoterKey(t *testing.T) {
	assert.Equal(t, "GMRCLD99010109H400", FindVoterKey("CLAVE DE ELECTOR GMRCLD99010109H400"))
	assert.Equal(t, "", FindVoterKey("CURP GOMC990101HDFRRL09"), "a CURP must not be mistaken for a voter key")
	assert.Equal(t, "", FindVoterKey(""))
}

func TestCURPBirthDate(t *testing.T) {
	// Digit differentiator at position 16 means a 1900s birth.
	assert.Equal(t, "1999-01-01", CURPBirthDate("GOMC990101HDFRRL09"))
	// Letter differentiator means a 2000s birth.
	assert.Equal(t, "2005-01-01", CURPBirthDate("GOMC050101HDFRRLA9"))
	// Impossible calendar date yields nothing.
	assert.Equal(t, "", CURPBirthDate("GOMC990230HDFRRL09"))
	assert.Equal(t, "", CURPBirthDate("not a curp"))
}

func TestCURPSex(t *testing.T) {
	assert.Equal(t, SexMale, CURPSex("GOMC990101HDFRRL09"))
	assert.Equal(t, SexFemale, CURPSex("LOPM851123MDFRRLA4"))
	assert.Equal(t, SexUnknown, CURPSex("garbage"))
}

func TestSexFromMarker(t *testing.T) {
	assert.Equal(t, SexMale, SexFromMarker("H"))
	assert.Equal(t, SexFemale, SexFromMarker("M"))
	assert.Equal(t, SexUnknown, SexFromMarker("X"))
	assert.Equal(t, SexUnknown, SexFromMarker(""))
}

func TestFillFromCURPFillsGaps(t *testing.T) {
	f := IdentityFields{CURP: " gomc990101hdfrrl09 "}
	f.FillFromCURP()

	assert.Equal(t, "GOMC990101HDFRRL09", f.CURP, "CURP is normalized")
	assert.Equal(t, "1999-01-01", f.BirthDate)
	assert.Equal(t, SexMale, f.Sex)
	assert.Empty(t, f.Warnings)
}

func TestFillFromCURPKeepsMismatchedValues(t *testing.T) {
	f := IdentityFields{
		CURP:      "GOMC990101HDFRRL09",
		BirthDate: "1998-05-05",
		Sex:       SexFemale,
	}
	f.FillFromCURP()

	// Every conflict keeps the document-native value and records a warning.
	assert.Equal(t, "1998-05-05", f.BirthDate)
	assert.Equal(t, SexFemale, f.Sex)
	require.Len(t, f.Warnings, 2)
	assert.Contains(t, f.Warnings, "birth_date_mismatch")
	assert.Contains(t, f.Warnings, "sex_mismatch")

	// Running again must not duplicate the warnings.
	f.FillFromCURP()
	assert.Len(t, f.Warnings, 2)
}

func TestFillFromCURPMalformed(t *testing.T) {
	f := IdentityFields{CURP: "GOMC99"}
	f.FillFromCURP()
	assert.Contains(t, f.Warnings, "curp_malformed")
	assert.Equal(t, "", f.BirthDate)

	empty := IdentityFields{}
	empty.FillFromCURP()
	assert.Empty(t, empty.Warnings, "no CURP at all is not a warning")
}

func TestHasSignal(t *testing.T) {
	assert.False(t, (&IdentityFields{}).HasSignal())
	assert.False(t, (&IdentityFields{Section: "0123", VoterKey: "GMRCLD99010109H400"}).HasSignal())
	assert.True(t, (&IdentityFields{CURP: "GOMC990101HDFRRL09"}).HasSignal())
	assert.True(t, (&IdentityFields{FullName: "MARIA GOMEZ"}).HasSignal())
}

func TestVisionSource(t *testing.T) {
	assert.Equal(t, Source("vision:gemini"), VisionSource("gemini"))
}
