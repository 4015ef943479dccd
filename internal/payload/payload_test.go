package payload

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idscan/internal/classify"
	"idscan/internal/fields"
)

const mrzFixture = "IDMEX2210907890<<\n" +
	"990101H2512319MEX<<<<<<<<<<<\n" +
	"SURNAME1<SURNAME2<<GIVENNAME"

func TestParseMRZ(t *testing.T) {
	f := Parse(mrzFixture, classify.SymbologyUnknown)

	assert.Equal(t, fields.SourceMRZ, f.Source)
	assert.Equal(t, "1999-01-01", f.BirthDate)
	assert.Equal(t, fields.SexMale, f.Sex)
	assert.Equal(t, "SURNAME1", f.PaternalSurname)
	assert.Equal(t, "SURNAME2", f.MaternalSurname)
	assert.Equal(t, "GIVENNAME", f.GivenNames)
	assert.Equal(t, "GIVENNAME SURNAME1 SURNAME2", f.FullName)
	assert.Equal(t, mrzFixture, f.RawEvidence)
	assert.False(t, f.ExtractedAt.IsZero())
}

func TestParseMRZCentury(t *testing.T) {
	// Two-digit years above 50 belong to the 1900s, the rest to the 2000s.
	old := Parse("MEX\n990101H<<X", classify.SymbologyUnknown)
	assert.Equal(t, "1999-01-01", old.BirthDate)

	young := Parse("MEX\n050101M<<X", classify.SymbologyUnknown)
	assert.Equal(t, "2005-01-01", young.BirthDate)
	assert.Equal(t, fields.SexFemale, young.Sex)
}

func TestParseMRZWithEmbeddedCURP(t *testing.T) {
	raw := "IDMEX<<GOMC990101HDFRRL09\nGOMEZ<CRUZ<<MARIA"
	f := Parse(raw, classify.SymbologyUnknown)

	assert.Equal(t, "GOMC990101HDFRRL09", f.CURP)
	assert.Equal(t, "1999-01-01", f.BirthDate, "derived from the CURP")
	assert.Equal(t, fields.SexMale, f.Sex)
	assert.Equal(t, "GOMEZ", f.PaternalSurname)
	assert.Equal(t, "CRUZ", f.MaternalSurname)
	assert.Equal(t, "MARIA", f.GivenNames)
}

func TestParseQRVerificationURL(t *testing.T) {
	f := Parse("https://listanominal.ine.mx/scpln/r?x=1", classify.SymbologyQR)

	assert.Equal(t, fields.SourceQR, f.Source)
	assert.False(t, f.HasSignal(), "a bare link carries no personal data")
	assert.Equal(t, "https://listanominal.ine.mx/scpln/r?x=1", f.RawEvidence)
}

func TestParseQRWithEmbeddedIDs(t *testing.T) {
	raw := "https://v.ine.mx/r?curp=GOMC990101HDFRRL09&ce=GMRCLD99010109H400"
	f := Parse(raw, classify.SymbologyQR)

	assert.Equal(t, fields.SourceQR, f.Source)
	assert.Equal(t, "GOMC990101HDFRRL09", f.CURP)
	assert.Equal(t, "GMRCLD99010109H400", f.VoterKey)
	assert.Equal(t, "1999-01-01", f.BirthDate)
	assert.Equal(t, fields.SexMale, f.Sex)
}

const stackedFixture = `INSTITUTO NACIONAL ELECTORAL
CREDENCIAL PARA VOTAR
NOMBRE MARIA FERNANDA GOMEZ CRUZ
DOMICILIO CALLE 5 NO 10 COL CENTRO
CLAVE DE ELECTOR GMRCLD99010109H400
CURP GOMC990101HDFRRL09
FECHA DE NACIMIENTO 01/01/1999
SEXO H
SECCION 0123`

func TestParseStacked(t *testing.T) {
	f := Parse(stackedFixture, classify.SymbologyPDFStacked)

	assert.Equal(t, fields.SourceStacked, f.Source)
	assert.Equal(t, "MARIA FERNANDA GOMEZ CRUZ", f.FullName)
	assert.Equal(t, "CALLE 5 NO 10 COL CENTRO", f.Address)
	assert.Equal(t, "GMRCLD99010109H400", f.VoterKey)
	assert.Equal(t, "GOMC990101HDFRRL09", f.CURP)
	assert.Equal(t, "1999-01-01", f.BirthDate)
	assert.Equal(t, fields.SexMale, f.Sex)
	assert.Equal(t, "0123", f.Section)
	assert.Empty(t, f.Warnings, "printed values agree with the CURP")
}

func TestParseStackedMismatchWarns(t *testing.T) {
	raw := "CURP GOMC990101HDFRRL09 FECHA DE NACIMIENTO 05/05/1998 SEXO M"
	f := Parse(raw, classify.SymbologyPDFStacked)

	// Printed values survive; the CURP disagreement is only flagged.
	assert.Equal(t, "1998-05-05", f.BirthDate)
	assert.Equal(t, fields.SexFemale, f.Sex)
	assert.Contains(t, f.Warnings, "birth_date_mismatch")
	assert.Contains(t, f.Warnings, "sex_mismatch")
}

func TestParseStackedNameFallback(t *testing.T) {
	// No NOMBRE label: the longest boilerplate-free token run is the name.
	raw := "INSTITUTO NACIONAL ELECTORAL MARIA FERNANDA GOMEZ CRUZ 555"
	f := Parse(raw, classify.SymbologyUnknown)
	assert.Equal(t, "MARIA FERNANDA GOMEZ CRUZ", f.FullName)
}

func TestParseStackedSectionForms(t *testing.T) {
	labeled := Parse("SECCION: 0456 OTHER", classify.SymbologyUnknown)
	assert.Equal(t, "0456", labeled.Section)

	accented := Parse("SECCIÓN 0789", classify.SymbologyUnknown)
	assert.Equal(t, "0789", accented.Section)
}

func TestParseIsDeterministic(t *testing.T) {
	a := Parse(stackedFixture, classify.SymbologyPDFStacked)
	b := Parse(stackedFixture, classify.SymbologyPDFStacked)
	a.ExtractedAt, b.ExtractedAt = time.Time{}, time.Time{}
	require.Equal(t, a, b)
}

func TestMRZSniffBeatsSymbologyTag(t *testing.T) {
	// MRZ text reproduced inside a 2D code still parses as MRZ.
	f := Parse(mrzFixture, classify.SymbologyQR)
	assert.Equal(t, fields.SourceMRZ, f.Source)
}
