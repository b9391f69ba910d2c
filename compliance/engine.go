package compliance

import (
	"fmt"

	"docscrub/document"
	"docscrub/pii"
	"docscrub/redact"
)

// Status is the outcome of one requirement.
type Status string

const (
	StatusSatisfied     Status = "satisfied"
	StatusViolated      Status = "violated"
	StatusNotApplicable Status = "not_applicable"
)

// RequirementResult is the verdict for one checklist item. EntityRefs names
// the blocks of the entities that violate the requirement; it never carries
// entity values.
type RequirementResult struct {
	RequirementID string              `json:"requirement_id"`
	Description   string              `json:"description"`
	Status        Status              `json:"status"`
	EntityRefs    []document.BlockRef `json:"entity_refs,omitempty"`
}

// Report is the full verdict for one framework.
type Report struct {
	Framework string              `json:"framework"`
	Results   []RequirementResult `json:"results"`
	Passed    bool                `json:"passed"`
}

// Evaluate checks detected entities and applied replacements against a
// framework. A requirement with no matching entities is not applicable; a
// malformed requirement fails the whole evaluation.
func Evaluate(f Framework, entities []pii.Entity, replacements []redact.Replacement) (*Report, error) {
	if f.Name == "" || len(f.Requirements) == 0 {
		return nil, &document.ComplianceEvaluationError{
			Framework: f.Name,
			Err:       fmt.Errorf("framework has no requirements"),
		}
	}

	applied := make(map[appliedKey]redact.Strategy, len(replacements))
	for _, r := range replacements {
		applied[appliedKey{block: r.Block, start: r.Start, end: r.End}] = r.Strategy
	}

	report := &Report{Framework: f.Name, Passed: true}
	for _, req := range f.Requirements {
		result, err := evaluateRequirement(f.Name, req, entities, applied)
		if err != nil {
			return nil, err
		}
		if result.Status == StatusViolated {
			report.Passed = false
		}
		report.Results = append(report.Results, result)
	}
	return report, nil
}

type appliedKey struct {
	block      document.BlockRef
	start, end int
}

func evaluateRequirement(framework string, req Requirement, entities []pii.Entity, applied map[appliedKey]redact.Strategy) (RequirementResult, error) {
	if req.ID == "" || len(req.EntityTypes) == 0 {
		return RequirementResult{}, &document.ComplianceEvaluationError{
			Framework: framework,
			Err:       fmt.Errorf("requirement %q is missing an id or entity types", req.ID),
		}
	}
	if req.Kind == RuleStrategy && len(req.AllowedStrategies) == 0 {
		return RequirementResult{}, &document.ComplianceEvaluationError{
			Framework: framework,
			Err:       fmt.Errorf("requirement %q allows no strategies", req.ID),
		}
	}

	covered := make(map[pii.EntityType]bool, len(req.EntityTypes))
	for _, t := range req.EntityTypes {
		covered[t] = true
	}

	result := RequirementResult{
		RequirementID: req.ID,
		Description:   req.Description,
		Status:        StatusNotApplicable,
	}

	for _, e := range entities {
		if !covered[e.Type] {
			continue
		}
		if result.Status == StatusNotApplicable {
			result.Status = StatusSatisfied
		}

		strategy, redacted := applied[appliedKey{block: e.Block, start: e.Start, end: e.End}]
		violated := !redacted
		if !violated && req.Kind == RuleStrategy {
			violated = !strategyAllowed(strategy, req.AllowedStrategies)
		}
		if violated {
			result.Status = StatusViolated
			result.EntityRefs = append(result.EntityRefs, e.Block)
		}
	}
	return result, nil
}

func strategyAllowed(s redact.Strategy, allowed []redact.Strategy) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
