package pii

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PatternDetector matches personal data with regular expressions plus
// type-specific validation (Luhn for cards, area/group rules for SSNs,
// octet ranges for IP addresses). Matches that fail validation are dropped
// rather than down-weighted.
type PatternDetector struct {
	patterns []pattern
}

type pattern struct {
	entityType EntityType
	re         *regexp.Regexp
	confidence float64
	validate   func(string) bool
}

// NewPatternDetector builds a detector with the built-in pattern set.
func NewPatternDetector() *PatternDetector {
	return &PatternDetector{patterns: builtinPatterns()}
}

// AddPattern registers a custom pattern. The entity type may be a new one;
// downstream redaction treats unknown types with the default strategy.
func (d *PatternDetector) AddPattern(entityType EntityType, expr string, confidence float64) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("error compiling pattern for %s: %w", entityType, err)
	}
	if confidence <= 0 || confidence > 1 {
		return fmt.Errorf("confidence for %s out of range", entityType)
	}
	d.patterns = append(d.patterns, pattern{entityType: entityType, re: re, confidence: confidence})
	return nil
}

func (d *PatternDetector) Detect(text string) []candidate {
	var out []candidate
	for _, p := range d.patterns {
		for _, loc := range p.re.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if p.validate != nil && !p.validate(value) {
				continue
			}
			out = append(out, candidate{
				Type:       p.entityType,
				Start:      loc[0],
				End:        loc[1],
				Value:      value,
				Confidence: p.confidence,
				Source:     SourcePattern,
			})
		}
	}
	return out
}

func builtinPatterns() []pattern {
	return []pattern{
		{
			entityType: EntityEmail,
			re:         regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`),
			confidence: 0.95,
		},
		{
			entityType: EntitySSN,
			re:         regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`),
			confidence: 0.95,
			validate:   validSSN,
		},
		{
			entityType: EntityCreditCard,
			re:         regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`),
			confidence: 0.90,
			validate:   validCreditCard,
		},
		{
			entityType: EntityPhone,
			re:         regexp.MustCompile(`(?:\+?1[-. ]?)?\(?\d{3}\)?[-. ]?\d{3}[-. ]?\d{4}\b`),
			confidence: 0.85,
			validate:   validPhone,
		},
		{
			entityType: EntityIPAddress,
			re:         regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`),
			confidence: 0.90,
			validate:   validIPv4,
		},
		{
			entityType: EntityIBAN,
			re:         regexp.MustCompile(`\b[A-Z]{2}\d{2}[A-Z0-9]{11,30}\b`),
			confidence: 0.80,
		},
		{
			entityType: EntityURL,
			re:         regexp.MustCompile(`\bhttps?://[^\s<>"]+`),
			confidence: 0.85,
		},
		{
			entityType: EntityDateOfBirth,
			re:         regexp.MustCompile(`(?i)\b(?:DOB|date of birth|born)[:\s]+\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
			confidence: 0.90,
		},
		{
			entityType: EntityDate,
			re:         regexp.MustCompile(`\b\d{1,2}[/-]\d{1,2}[/-]\d{2,4}\b`),
			confidence: 0.60,
		},
		{
			entityType: EntityPassport,
			re:         regexp.MustCompile(`(?i)\bpassport\s*(?:no\.?|number)?[:\s#]+[A-Z0-9]{6,9}\b`),
			confidence: 0.85,
		},
		{
			entityType: EntityMRN,
			re:         regexp.MustCompile(`(?i)\b(?:MRN|medical record)[:\s#]+\d{6,10}\b`),
			confidence: 0.85,
		},
		{
			entityType: EntityAddress,
			re:         regexp.MustCompile(`(?i)\b\d{1,5}\s+[A-Za-z0-9.\s]{3,40}\b(?:street|st|avenue|ave|road|rd|boulevard|blvd|lane|ln|drive|dr|court|ct|way|place|pl)\b\.?`),
			confidence: 0.70,
		},
	}
}

// validSSN rejects the ranges never assigned: 000/666/9xx areas, 00 groups,
// 0000 serials, and the well-known sequential placeholder.
func validSSN(s string) bool {
	parts := strings.Split(s, "-")
	if len(parts) != 3 {
		return false
	}
	area, group, serial := parts[0], parts[1], parts[2]
	if area == "000" || area == "666" || area[0] == '9' {
		return false
	}
	if group == "00" || serial == "0000" {
		return false
	}
	digits := area + group + serial
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			return true
		}
	}
	return false // all one digit, e.g. 111-11-1111 padding
}

// validCreditCard checks digit count per major brands and the Luhn checksum.
func validCreditCard(s string) bool {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}
	switch digits[0] {
	case '4': // Visa
	case '5', '2': // Mastercard
	case '3': // Amex, Diners, JCB
	case '6': // Discover
	default:
		return false
	}
	return luhn(digits)
}

func luhn(digits string) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func validPhone(s string) bool {
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits == 10 || digits == 11
}

func validIPv4(s string) bool {
	for _, part := range strings.Split(s, ".") {
		n, err := strconv.Atoi(part)
		if err != nil || n > 255 {
			return false
		}
		if len(part) > 1 && part[0] == '0' {
			return false
		}
	}
	return true
}
