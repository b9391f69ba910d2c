package mrz

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/document"
)

const (
	td3Line1 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	td3Line2 = "L898902C36UTO7408122F1204159ZE184226B<<<<<10"
)

func TestCheckDigit(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "document number", input: "L898902C3", expected: 6},
		{name: "birth date", input: "740812", expected: 2},
		{name: "expiry date", input: "120415", expected: 9},
		{name: "all filler", input: "<<<<<<", expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, checkDigit(tc.input))
		})
	}
}

func TestDetectTD3(t *testing.T) {
	zones := Detect([]string{"EMPLOYMENT CONTRACT", td3Line1, td3Line2})
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, document.MRZTD3, z.Format)
	assert.Equal(t, "P", z.DocumentCode)
	assert.Equal(t, "UTO", z.IssuingCountry)
	assert.Equal(t, "ERIKSSON", z.PrimaryName)
	assert.Equal(t, "ANNA MARIA", z.SecondaryName)
	assert.Equal(t, "L898902C3", z.DocumentNumber)
	assert.Equal(t, "UTO", z.Nationality)
	assert.Equal(t, "740812", z.BirthDate)
	assert.Equal(t, "F", z.Sex)
	assert.Equal(t, "120415", z.ExpiryDate)
	assert.Equal(t, "ZE184226B", z.PersonalNumber)

	for field, ok := range z.ChecksumOK {
		assert.True(t, ok, "checksum for %s", field)
	}
	assert.True(t, z.Valid())
}

func TestDetectChecksumFailureIsFlagNotError(t *testing.T) {
	// Corrupt the document number check digit.
	corrupted := td3Line2[:9] + "7" + td3Line2[10:]

	zones := Detect([]string{td3Line1, corrupted})
	require.Len(t, zones, 1)

	assert.Equal(t, "L898902C3", zones[0].DocumentNumber)
	assert.False(t, zones[0].ChecksumOK["document_number"])
	assert.False(t, zones[0].Valid())
}

func TestDetectTD1(t *testing.T) {
	// Specimen identity card layout.
	l1 := "I<UTOD231458907<<<<<<<<<<<<<<<"
	l2 := "7408122F1204159UTO<<<<<<<<<<<6"
	l3 := "ERIKSSON<<ANNA<MARIA<<<<<<<<<<"

	zones := Detect([]string{l1, l2, l3})
	require.Len(t, zones, 1)

	z := zones[0]
	assert.Equal(t, document.MRZTD1, z.Format)
	assert.Equal(t, "D23145890", z.DocumentNumber)
	assert.Equal(t, "ERIKSSON", z.PrimaryName)
	assert.Equal(t, "ANNA MARIA", z.SecondaryName)
	assert.Equal(t, "740812", z.BirthDate)
	assert.Equal(t, "120415", z.ExpiryDate)
	assert.Equal(t, "UTO", z.Nationality)
	assert.True(t, z.ChecksumOK["document_number"])
	assert.True(t, z.ChecksumOK["birth_date"])
	assert.True(t, z.ChecksumOK["expiry_date"])
}

func TestDetectVisa(t *testing.T) {
	l1 := "V<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<"
	l2 := "L898902C36UTO7408122F1204159ZE184226B<<<<<10"

	zones := Detect([]string{l1, l2})
	require.Len(t, zones, 1)
	assert.Equal(t, document.MRZMRVA, zones[0].Format)

	// Visas carry no composite check digit.
	_, hasComposite := zones[0].ChecksumOK["composite"]
	assert.False(t, hasComposite)
}

func TestDetectIgnoresNonMRZLines(t *testing.T) {
	testCases := []struct {
		name  string
		lines []string
	}{
		{name: "empty input", lines: nil},
		{name: "prose only", lines: []string{"This agreement is made between the parties."}},
		{name: "wrong width", lines: []string{strings.Repeat("<", 40), strings.Repeat("<", 40)}},
		{name: "invalid characters", lines: []string{
			"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<#<",
			td3Line2,
		}},
		{name: "single TD3 line without partner", lines: []string{td3Line1}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Empty(t, Detect(tc.lines))
		})
	}
}

func TestDetectTextWithSpacedLines(t *testing.T) {
	// OCR often injects spaces into the zone.
	text := "P<UTOERIKSSON<<ANNA<MARIA <<<<<<<<<<<<<<<<<<<\n" + td3Line2
	zones := DetectText(text)
	require.Len(t, zones, 1)
	assert.Equal(t, "ERIKSSON", zones[0].PrimaryName)
}
