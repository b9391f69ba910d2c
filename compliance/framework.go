// Package compliance evaluates redaction outcomes against regulatory
// checklists. Evaluation is pure: it inspects detected entities and applied
// replacements and renders a verdict, it never modifies the document or
// triggers further redaction.
package compliance

import (
	"encoding/json"
	"fmt"

	"docscrub/pii"
	"docscrub/redact"
)

// RuleKind selects how a requirement is checked.
type RuleKind string

const (
	// RuleRedacted requires every entity of the listed types to have an
	// applied replacement.
	RuleRedacted RuleKind = "redacted"

	// RuleStrategy additionally constrains which strategies satisfy the
	// requirement.
	RuleStrategy RuleKind = "strategy"
)

// Requirement is one checklist item.
type Requirement struct {
	ID          string           `json:"id"`
	Description string           `json:"description"`
	Kind        RuleKind         `json:"kind"`
	EntityTypes []pii.EntityType `json:"entity_types"`

	// AllowedStrategies applies to RuleStrategy requirements only.
	AllowedStrategies []redact.Strategy `json:"allowed_strategies,omitempty"`
}

// Framework is a named requirement list.
type Framework struct {
	Name         string        `json:"name"`
	Requirements []Requirement `json:"requirements"`
}

// LoadFrameworks parses a JSON framework definition, for deployments that
// maintain their own checklists alongside the built-in ones.
func LoadFrameworks(data []byte) ([]Framework, error) {
	var out []Framework
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("error parsing framework definitions: %w", err)
	}
	return out, nil
}

// Builtin returns the compiled-in frameworks.
func Builtin() []Framework {
	return []Framework{gdpr(), hipaa(), pciDSS(), ccpa()}
}

// ByName returns the built-in framework with the given name.
func ByName(name string) (Framework, bool) {
	for _, f := range Builtin() {
		if f.Name == name {
			return f, true
		}
	}
	return Framework{}, false
}

func gdpr() Framework {
	return Framework{
		Name: "GDPR",
		Requirements: []Requirement{
			{
				ID:          "gdpr-identifiers",
				Description: "Direct identifiers (names, emails, phone numbers) are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityName, pii.EntityEmail, pii.EntityPhone},
			},
			{
				ID:          "gdpr-location",
				Description: "Location data and addresses are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityAddress, pii.EntityLocation},
			},
			{
				ID:          "gdpr-online-identifiers",
				Description: "Online identifiers such as IP addresses are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityIPAddress, pii.EntityURL},
			},
			{
				ID:          "gdpr-national-id",
				Description: "National identification numbers are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntitySSN, pii.EntityPassport},
			},
		},
	}
}

func hipaa() Framework {
	return Framework{
		Name: "HIPAA",
		Requirements: []Requirement{
			{
				ID:          "hipaa-names",
				Description: "Patient names are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityName},
			},
			{
				ID:          "hipaa-record-numbers",
				Description: "Medical record and account numbers are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityMRN, pii.EntitySSN},
			},
			{
				ID:          "hipaa-contact",
				Description: "Telephone numbers, emails and addresses are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityPhone, pii.EntityEmail, pii.EntityAddress},
			},
			{
				ID:          "hipaa-dates",
				Description: "Dates directly related to an individual, including birth dates, are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityDateOfBirth},
			},
			{
				ID:          "hipaa-web-identifiers",
				Description: "URLs and IP addresses are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityURL, pii.EntityIPAddress},
			},
		},
	}
}

func pciDSS() Framework {
	return Framework{
		Name: "PCI-DSS",
		Requirements: []Requirement{
			{
				ID:          "pci-pan-unreadable",
				Description: "Primary account numbers are rendered unreadable wherever stored",
				Kind:        RuleStrategy,
				EntityTypes: []pii.EntityType{pii.EntityCreditCard},
				AllowedStrategies: []redact.Strategy{
					redact.StrategyMask,
					redact.StrategyTokenize,
					redact.StrategyGeneralize,
				},
			},
			{
				ID:          "pci-iban",
				Description: "Bank account numbers are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityIBAN},
			},
		},
	}
}

func ccpa() Framework {
	return Framework{
		Name: "CCPA",
		Requirements: []Requirement{
			{
				ID:          "ccpa-identifiers",
				Description: "Personal identifiers (names, emails, phone numbers) are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityName, pii.EntityEmail, pii.EntityPhone},
			},
			{
				ID:          "ccpa-online-activity",
				Description: "IP addresses and online identifiers are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntityIPAddress, pii.EntityURL},
			},
			{
				ID:          "ccpa-government-id",
				Description: "Government identifiers such as SSNs and passports are removed or replaced",
				Kind:        RuleRedacted,
				EntityTypes: []pii.EntityType{pii.EntitySSN, pii.EntityPassport},
			},
		},
	}
}
