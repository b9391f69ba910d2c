// Package redact replaces detected entities in a document and regenerates
// output in the original or a requested format. Redaction is all-or-nothing:
// it works on a clone of the document and any strategy failure aborts before
// an output byte is produced.
package redact

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"docscrub/document"
	"docscrub/pii"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the redact package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Policy maps entity types to strategies. Types without a mapping use
// Default; an empty Default means mask.
type Policy struct {
	Default Strategy
	ByType  map[pii.EntityType]Strategy

	// PseudonymTemplates overrides the per-type pseudonym templates.
	PseudonymTemplates map[pii.EntityType]string
}

func (p Policy) strategyFor(t pii.EntityType) Strategy {
	if s, ok := p.ByType[t]; ok {
		return s
	}
	if p.Default != "" {
		return p.Default
	}
	return StrategyMask
}

// Replacement records one applied redaction. It carries the replacement
// text, never the original value.
type Replacement struct {
	Type     pii.EntityType    `json:"type"`
	Block    document.BlockRef `json:"block"`
	Start    int               `json:"start"`
	End      int               `json:"end"`
	Strategy Strategy          `json:"strategy"`
	Output   string            `json:"output"`
}

// Redactor applies a policy to documents.
type Redactor struct {
	policy Policy
	pseud  *pseudonymizer
	tokens *TokenStore
}

// Option configures a Redactor.
type Option func(*Redactor)

// WithTokenStore registers token mappings in an external vault so tokenized
// values stay reversible for authorized callers.
func WithTokenStore(ts *TokenStore) Option {
	return func(r *Redactor) { r.tokens = ts }
}

// New validates the policy up front so a bad strategy fails before any
// document is touched.
func New(policy Policy, opts ...Option) (*Redactor, error) {
	if policy.Default != "" && !knownStrategy(policy.Default) {
		return nil, &document.RedactionStrategyError{EntityType: "*", Strategy: string(policy.Default)}
	}
	for t, s := range policy.ByType {
		if !knownStrategy(s) {
			return nil, &document.RedactionStrategyError{EntityType: string(t), Strategy: string(s)}
		}
	}

	pseud, err := newPseudonymizer(policy.PseudonymTemplates)
	if err != nil {
		return nil, err
	}

	r := &Redactor{policy: policy, pseud: pseud}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Apply redacts every entity in a clone of the document and returns the
// clone with the applied replacements. The input document is never modified;
// on error no document is returned at all.
func (r *Redactor) Apply(ctx context.Context, doc *document.Document, entities []pii.Entity) (*document.Document, []Replacement, error) {
	out := doc.Clone()
	replacements := make([]Replacement, 0, len(entities))

	byBlock := make(map[document.BlockRef][]pii.Entity)
	for _, e := range entities {
		byBlock[e.Block] = append(byBlock[e.Block], e)
	}

	for ref, blockEntities := range byBlock {
		block := out.Resolve(ref)
		if block == nil {
			return nil, nil, fmt.Errorf("entity references missing block %s", ref)
		}

		// Apply back-to-front so earlier offsets stay valid.
		sort.Slice(blockEntities, func(i, j int) bool {
			return blockEntities[i].Start > blockEntities[j].Start
		})

		text := block.Text
		for _, e := range blockEntities {
			if e.Start < 0 || e.End > len(text) || e.Start >= e.End {
				return nil, nil, fmt.Errorf("entity span out of range in block %s", ref)
			}
			replacement, err := r.replace(ctx, e)
			if err != nil {
				return nil, nil, err
			}
			text = text[:e.Start] + replacement + text[e.End:]
			replacements = append(replacements, Replacement{
				Type:     e.Type,
				Block:    ref,
				Start:    e.Start,
				End:      e.End,
				Strategy: r.policy.strategyFor(e.Type),
				Output:   replacement,
			})
		}
		block.Text = text
	}

	sort.Slice(replacements, func(i, j int) bool {
		a, b := replacements[i], replacements[j]
		if a.Block != b.Block {
			if a.Block.Page != b.Block.Page {
				return a.Block.Page < b.Block.Page
			}
			return a.Block.Block < b.Block.Block
		}
		return a.Start < b.Start
	})

	log.WithFields(logrus.Fields{
		"document": doc.ID,
		"entities": len(entities),
	}).Info("Redaction applied")
	return out, replacements, nil
}

func (r *Redactor) replace(ctx context.Context, e pii.Entity) (string, error) {
	switch r.policy.strategyFor(e.Type) {
	case StrategyMask:
		return maskValue(e.Type, e.Value), nil
	case StrategyTokenize:
		token := tokenValue(e.Value)
		if r.tokens != nil {
			if err := r.tokens.Register(ctx, token, string(e.Type), e.Value); err != nil {
				return "", fmt.Errorf("error registering token: %w", err)
			}
		}
		return token, nil
	case StrategyPseudonymize:
		return r.pseud.render(e.Type, e.Value)
	case StrategyGeneralize:
		return generalizeValue(e.Type), nil
	default:
		return "", &document.RedactionStrategyError{
			EntityType: string(e.Type),
			Strategy:   string(r.policy.strategyFor(e.Type)),
		}
	}
}
