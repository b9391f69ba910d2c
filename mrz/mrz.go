// Package mrz detects and parses machine-readable zones (ICAO 9303) from
// extracted text. It recognizes the TD1, TD2, TD3, MRVA and MRVB layouts,
// validates per-field check digits and reports checksum failures as validity
// flags on the parsed data rather than parse errors. Non-matching candidate
// lines are discarded silently.
package mrz

import (
	"strings"

	"docscrub/document"
)

const (
	td1Width = 30
	td2Width = 36
	td3Width = 44
)

// Detect scans an ordered line sequence for MRZ-shaped runs and parses every
// match. Lines are normalized (spaces stripped, uppercased) before matching;
// candidates that fail structural parsing are dropped, never substituted.
func Detect(lines []string) []document.MRZData {
	norm := make([]string, 0, len(lines))
	for _, l := range lines {
		n := normalizeLine(l)
		if n != "" {
			norm = append(norm, n)
		}
	}

	var out []document.MRZData
	for i := 0; i < len(norm); i++ {
		switch len(norm[i]) {
		case td1Width:
			if i+2 < len(norm) && len(norm[i+1]) == td1Width && len(norm[i+2]) == td1Width {
				if d := parseTD1(norm[i], norm[i+1], norm[i+2]); d != nil {
					out = append(out, *d)
					i += 2
				}
			}
		case td2Width:
			if i+1 < len(norm) && len(norm[i+1]) == td2Width {
				if d := parseTD2(norm[i], norm[i+1]); d != nil {
					out = append(out, *d)
					i++
				}
			}
		case td3Width:
			if i+1 < len(norm) && len(norm[i+1]) == td3Width {
				if d := parseTD3(norm[i], norm[i+1]); d != nil {
					out = append(out, *d)
					i++
				}
			}
		}
	}
	return out
}

// DetectText splits free text into lines and runs Detect.
func DetectText(text string) []document.MRZData {
	return Detect(strings.Split(text, "\n"))
}

// normalizeLine strips spaces and rejects lines containing characters outside
// the MRZ alphabet or with a non-MRZ width.
func normalizeLine(l string) string {
	l = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(l), " ", ""))
	switch len(l) {
	case td1Width, td2Width, td3Width:
	default:
		return ""
	}
	for i := 0; i < len(l); i++ {
		c := l[i]
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') && c != '<' {
			return ""
		}
	}
	return l
}

// cleanField strips filler characters from a fixed-width field.
func cleanField(s string) string {
	return strings.Trim(strings.ReplaceAll(s, "<", ""), " ")
}

// splitName separates the primary (surname) and secondary (given names)
// identifiers at the double filler.
func splitName(s string) (primary, secondary string) {
	parts := strings.SplitN(s, "<<", 2)
	primary = strings.TrimSpace(strings.ReplaceAll(strings.TrimRight(parts[0], "<"), "<", " "))
	if len(parts) == 2 {
		secondary = strings.TrimSpace(strings.ReplaceAll(strings.TrimRight(parts[1], "<"), "<", " "))
	}
	return primary, secondary
}

// parseTD3 parses a passport (2 x 44) zone. The same column layout covers
// MRVA visas, which carry a 'V' document code and no composite check digit.
func parseTD3(l1, l2 string) *document.MRZData {
	format := document.MRZTD3
	if l1[0] == 'V' {
		format = document.MRZMRVA
	} else if l1[0] != 'P' {
		return nil
	}

	primary, secondary := splitName(l1[5:])
	d := &document.MRZData{
		Format:         format,
		DocumentCode:   cleanField(l1[0:2]),
		IssuingCountry: cleanField(l1[2:5]),
		PrimaryName:    primary,
		SecondaryName:  secondary,
		DocumentNumber: cleanField(l2[0:9]),
		Nationality:    cleanField(l2[10:13]),
		BirthDate:      cleanField(l2[13:19]),
		Sex:            cleanField(l2[20:21]),
		ExpiryDate:     cleanField(l2[21:27]),
		ChecksumOK: map[string]bool{
			"document_number": verify(l2[0:9], l2[9]),
			"birth_date":      verify(l2[13:19], l2[19]),
			"expiry_date":     verify(l2[21:27], l2[27]),
		},
	}

	if format == document.MRZTD3 {
		d.PersonalNumber = cleanField(l2[28:42])
		d.ChecksumOK["personal_number"] = verify(l2[28:42], l2[42])
		composite := l2[0:10] + l2[13:20] + l2[21:43]
		d.ChecksumOK["composite"] = verify(composite, l2[43])
	}
	return d
}

// parseTD2 parses an official travel document (2 x 36) zone. MRVB visas use
// the same columns with a 'V' code and no composite digit.
func parseTD2(l1, l2 string) *document.MRZData {
	format := document.MRZTD2
	if l1[0] == 'V' {
		format = document.MRZMRVB
	} else if l1[0] != 'A' && l1[0] != 'C' && l1[0] != 'I' && l1[0] != 'P' {
		return nil
	}

	primary, secondary := splitName(l1[5:])
	d := &document.MRZData{
		Format:         format,
		DocumentCode:   cleanField(l1[0:2]),
		IssuingCountry: cleanField(l1[2:5]),
		PrimaryName:    primary,
		SecondaryName:  secondary,
		DocumentNumber: cleanField(l2[0:9]),
		Nationality:    cleanField(l2[10:13]),
		BirthDate:      cleanField(l2[13:19]),
		Sex:            cleanField(l2[20:21]),
		ExpiryDate:     cleanField(l2[21:27]),
		ChecksumOK: map[string]bool{
			"document_number": verify(l2[0:9], l2[9]),
			"birth_date":      verify(l2[13:19], l2[19]),
			"expiry_date":     verify(l2[21:27], l2[27]),
		},
	}

	if format == document.MRZTD2 {
		d.PersonalNumber = cleanField(l2[28:35])
		composite := l2[0:10] + l2[13:20] + l2[21:35]
		d.ChecksumOK["composite"] = verify(composite, l2[35])
	}
	return d
}

// parseTD1 parses an ID card (3 x 30) zone.
func parseTD1(l1, l2, l3 string) *document.MRZData {
	switch l1[0] {
	case 'A', 'C', 'I':
	default:
		return nil
	}

	primary, secondary := splitName(l3)
	d := &document.MRZData{
		Format:         document.MRZTD1,
		DocumentCode:   cleanField(l1[0:2]),
		IssuingCountry: cleanField(l1[2:5]),
		PrimaryName:    primary,
		SecondaryName:  secondary,
		DocumentNumber: cleanField(l1[5:14]),
		Nationality:    cleanField(l2[15:18]),
		BirthDate:      cleanField(l2[0:6]),
		Sex:            cleanField(l2[7:8]),
		ExpiryDate:     cleanField(l2[8:14]),
		PersonalNumber: cleanField(l1[15:30]),
		ChecksumOK: map[string]bool{
			"document_number": verify(l1[5:14], l1[14]),
			"birth_date":      verify(l2[0:6], l2[6]),
			"expiry_date":     verify(l2[8:14], l2[14]),
		},
	}
	composite := l1[5:30] + l2[0:7] + l2[8:15] + l2[18:29]
	d.ChecksumOK["composite"] = verify(composite, l2[29])
	return d
}
