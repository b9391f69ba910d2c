package redact

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig/v3"

	"docscrub/document"
	"docscrub/internal/constants"
	"docscrub/pii"
)

// Strategy names a replacement technique. Entity types without a mapped
// strategy fall back to masking.
type Strategy string

const (
	StrategyMask         Strategy = "mask"
	StrategyTokenize     Strategy = "tokenize"
	StrategyPseudonymize Strategy = "pseudonymize"
	StrategyGeneralize   Strategy = "generalize"
)

// knownStrategy rejects policy entries before any page is touched.
func knownStrategy(s Strategy) bool {
	switch s {
	case StrategyMask, StrategyTokenize, StrategyPseudonymize, StrategyGeneralize:
		return true
	}
	return false
}

// maskValue masks an entity format-preservingly where the type has a
// conventional partial form, otherwise masks every non-space character.
// Partial forms keep enough to correlate records without exposing the value.
func maskValue(t pii.EntityType, value string) string {
	switch t {
	case pii.EntityCreditCard, pii.EntitySSN, pii.EntityPhone:
		return maskDigitsKeepLast(value, 4)
	case pii.EntityEmail:
		return maskEmail(value)
	case pii.EntityName:
		return initials(value)
	default:
		return maskAll(value)
	}
}

func maskAll(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsSpace(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(constants.DefaultMaskChar)
		}
	}
	return b.String()
}

// maskDigitsKeepLast masks all digits except the trailing keep, preserving
// separators: 4111-1111-1111-1234 becomes XXXX-XXXX-XXXX-1234.
func maskDigitsKeepLast(value string, keep int) string {
	digits := 0
	for _, r := range value {
		if unicode.IsDigit(r) {
			digits++
		}
	}
	seen := 0
	var b strings.Builder
	for _, r := range value {
		if unicode.IsDigit(r) {
			seen++
			if seen <= digits-keep {
				b.WriteRune(constants.DefaultMaskChar)
				continue
			}
		}
		b.WriteRune(r)
	}
	return b.String()
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(value string) string {
	at := strings.LastIndex(value, "@")
	if at <= 0 {
		return maskAll(value)
	}
	return value[:1] + "***" + value[at:]
}

func initials(value string) string {
	var parts []string
	for _, w := range strings.Fields(value) {
		r := []rune(w)
		parts = append(parts, string(r[0])+".")
	}
	return strings.Join(parts, " ")
}

// tokenValue derives a stable opaque token from the value. The same value
// always maps to the same token, so joins across documents survive
// redaction, and the token alone cannot be reversed.
func tokenValue(value string) string {
	sum := sha256.Sum256([]byte(value))
	return "TOK_" + hex.EncodeToString(sum[:])[:15]
}

// generalizeValue replaces the value with a bare category placeholder.
func generalizeValue(t pii.EntityType) string {
	return "[" + strings.ToUpper(string(t)) + "]"
}

// pseudonymizer renders consistent surrogate values. Each distinct value of
// a type gets a stable index fed into the type's template, so the same name
// becomes the same pseudonym throughout the document.
type pseudonymizer struct {
	templates map[pii.EntityType]*template.Template
	fallback  *template.Template
	indexes   map[pii.EntityType]map[string]int
}

var defaultPseudonymTemplates = map[pii.EntityType]string{
	pii.EntityName:     "Person {{ .Index }}",
	pii.EntityEmail:    "person{{ .Index }}@example.com",
	pii.EntityOrg:      "Organization {{ .Index }}",
	pii.EntityLocation: "Location {{ .Index }}",
	pii.EntityAddress:  "{{ .Index }} Anon Street",
}

const fallbackPseudonymTemplate = "{{ .Type | upper }}-{{ .Index }}"

func newPseudonymizer(overrides map[pii.EntityType]string) (*pseudonymizer, error) {
	p := &pseudonymizer{
		templates: make(map[pii.EntityType]*template.Template),
		indexes:   make(map[pii.EntityType]map[string]int),
	}

	parse := func(name, text string) (*template.Template, error) {
		tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("error parsing pseudonym template %q: %w", name, err)
		}
		return tmpl, nil
	}

	for t, text := range defaultPseudonymTemplates {
		tmpl, err := parse(string(t), text)
		if err != nil {
			return nil, err
		}
		p.templates[t] = tmpl
	}
	for t, text := range overrides {
		tmpl, err := parse(string(t), text)
		if err != nil {
			return nil, err
		}
		p.templates[t] = tmpl
	}

	fallback, err := parse("fallback", fallbackPseudonymTemplate)
	if err != nil {
		return nil, err
	}
	p.fallback = fallback
	return p, nil
}

type pseudonymData struct {
	Type  string
	Index int
	Token string
}

func (p *pseudonymizer) render(t pii.EntityType, value string) (string, error) {
	byValue, ok := p.indexes[t]
	if !ok {
		byValue = make(map[string]int)
		p.indexes[t] = byValue
	}
	idx, ok := byValue[value]
	if !ok {
		idx = len(byValue) + 1
		byValue[value] = idx
	}

	tmpl, ok := p.templates[t]
	if !ok {
		tmpl = p.fallback
	}

	var buf bytes.Buffer
	err := tmpl.Execute(&buf, pseudonymData{
		Type:  string(t),
		Index: idx,
		Token: tokenValue(value),
	})
	if err != nil {
		return "", &document.RedactionStrategyError{EntityType: string(t), Strategy: string(StrategyPseudonymize)}
	}
	return buf.String(), nil
}
