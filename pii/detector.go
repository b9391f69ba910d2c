package pii

import (
	"context"
	"sort"

	"docscrub/document"
	"docscrub/internal/constants"
)

// Engine runs the detection layers over a normalized document and merges
// their candidates into one non-overlapping entity list.
type Engine struct {
	pattern       *PatternDetector
	statistical   *StatisticalDetector
	mrz           *MRZDetector
	llm           *LLMDetector
	minConfidence float64
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLLM attaches the optional LLM layer.
func WithLLM(d *LLMDetector) EngineOption {
	return func(e *Engine) { e.llm = d }
}

// WithMinConfidence overrides the confidence floor below which candidates
// are discarded before merging.
func WithMinConfidence(min float64) EngineOption {
	return func(e *Engine) { e.minConfidence = min }
}

// WithCustomPattern registers an extra pattern on the engine's pattern layer.
func WithCustomPattern(entityType EntityType, expr string, confidence float64) EngineOption {
	return func(e *Engine) {
		if err := e.pattern.AddPattern(entityType, expr, confidence); err != nil {
			log.WithError(err).WithField("entity_type", entityType).Error("Ignoring invalid custom pattern")
		}
	}
}

func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		pattern:       NewPatternDetector(),
		statistical:   NewStatisticalDetector(),
		mrz:           NewMRZDetector(),
		minConfidence: constants.MinDetectionConfidence,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// DetectDocument runs every layer over every block and returns the merged,
// non-overlapping entities in document order. Pages that carry an extraction
// error marker have no blocks and contribute nothing.
func (e *Engine) DetectDocument(ctx context.Context, doc *document.Document) ([]Entity, error) {
	var all []Entity
	for _, page := range doc.Pages {
		for bi, block := range page.Blocks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			ref := document.BlockRef{Page: page.Number, Block: bi}

			if block.Type == document.BlockMRZ {
				all = append(all, e.mrz.DetectBlock(ref, block)...)
			}

			cands := e.pattern.Detect(block.Text)
			cands = append(cands, e.statistical.Detect(block.Text)...)
			if e.llm != nil {
				llmCands, err := e.llm.DetectContext(ctx, block.Text)
				if err != nil {
					log.WithError(err).WithField("page", page.Number).Warn("LLM layer failed, continuing without it")
				} else {
					cands = append(cands, llmCands...)
				}
			}
			for _, c := range cands {
				all = append(all, Entity{
					Type:       c.Type,
					Block:      ref,
					Start:      c.Start,
					End:        c.End,
					Value:      c.Value,
					Confidence: c.Confidence,
					Source:     c.Source,
				})
			}
		}
	}

	merged := Merge(all, e.minConfidence)
	log.WithFields(map[string]interface{}{
		"candidates": len(all),
		"entities":   len(merged),
	}).Debug("Detection completed")
	return merged, nil
}

// Merge resolves overlapping candidates into a non-overlapping set. For each
// contested span the higher confidence wins; at equal confidence the source
// ranking mrz > pattern > statistical decides, then the earlier start, then
// the longer span. Candidates below the confidence floor are dropped first.
func Merge(entities []Entity, minConfidence float64) []Entity {
	eligible := make([]Entity, 0, len(entities))
	for _, e := range entities {
		if e.Confidence >= minConfidence {
			eligible = append(eligible, e)
		}
	}

	// Strongest claims first so the greedy accept keeps the winners.
	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if sourceRank(a.Source) != sourceRank(b.Source) {
			return sourceRank(a.Source) > sourceRank(b.Source)
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		return a.End-a.Start > b.End-b.Start
	})

	var accepted []Entity
	for _, cand := range eligible {
		conflict := false
		for _, kept := range accepted {
			if cand.overlaps(kept) {
				conflict = true
				break
			}
		}
		if !conflict {
			accepted = append(accepted, cand)
		}
	}

	sort.Slice(accepted, func(i, j int) bool {
		a, b := accepted[i], accepted[j]
		if a.Block.Page != b.Block.Page {
			return a.Block.Page < b.Block.Page
		}
		if a.Block.Block != b.Block.Block {
			return a.Block.Block < b.Block.Block
		}
		return a.Start < b.Start
	})
	return accepted
}
