// Package pipeline orchestrates the full pass over one document: format
// dispatch, extraction, OCR for scanned pages, normalization, layered PII
// detection, policy-driven redaction and compliance evaluation. Pages run
// concurrently under a bounded OCR pool; results reassemble in page order
// and cancellation is honored at every stage boundary.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"docscrub/audit"
	"docscrub/compliance"
	"docscrub/document"
	"docscrub/extract"
	"docscrub/internal/constants"
	"docscrub/ocr"
	"docscrub/pii"
	"docscrub/redact"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the pipeline package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Config wires the pipeline's collaborators and knobs.
type Config struct {
	OCR        ocr.Config
	OCRWorkers int
	OCRTimeout time.Duration // per page, 0 for the default
	Scan       extract.ScanConfig
	Policy     redact.Policy
	Frameworks []string // names of built-in frameworks to evaluate
	LLM        *pii.LLMConfig
	TokenStore *redact.TokenStore
	AuditStore *audit.Store

	MinEntityConfidence float64
}

// Pipeline is safe for concurrent use across documents.
type Pipeline struct {
	cfg      Config
	pool     *ocr.Pool
	engine   *pii.Engine
	redactor *redact.Redactor
	audit    *audit.Store
}

// New builds a pipeline, constructing the OCR provider, detection engine and
// redactor from the config.
func New(cfg Config) (*Pipeline, error) {
	provider, err := ocr.NewProvider(cfg.OCR)
	if err != nil {
		return nil, fmt.Errorf("error creating OCR provider: %w", err)
	}

	timeout := constants.DefaultOCRPageTimeout
	if cfg.OCRTimeout > 0 {
		timeout = cfg.OCRTimeout
	}
	pool := ocr.NewPool(provider, cfg.OCRWorkers, timeout)

	var engineOpts []pii.EngineOption
	if cfg.MinEntityConfidence > 0 {
		engineOpts = append(engineOpts, pii.WithMinConfidence(cfg.MinEntityConfidence))
	}
	if cfg.LLM != nil {
		llmDetector, err := pii.NewLLMDetector(*cfg.LLM)
		if err != nil {
			return nil, fmt.Errorf("error creating LLM detector: %w", err)
		}
		engineOpts = append(engineOpts, pii.WithLLM(llmDetector))
	}
	engine := pii.NewEngine(engineOpts...)

	var redactOpts []redact.Option
	if cfg.TokenStore != nil {
		redactOpts = append(redactOpts, redact.WithTokenStore(cfg.TokenStore))
	}
	redactor, err := redact.New(cfg.Policy, redactOpts...)
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		cfg:      cfg,
		pool:     pool,
		engine:   engine,
		redactor: redactor,
		audit:    cfg.AuditStore,
	}, nil
}

// Extract classifies the input and builds the normalized document. Claimed
// may be empty; when set it is verified against the content signature.
func (p *Pipeline) Extract(ctx context.Context, data []byte, claimed string) (*document.Document, error) {
	format, err := extract.DetectFormat(data, claimed)
	if err != nil {
		return nil, err
	}

	extractor, err := extract.ForFormat(format, p.cfg.Scan)
	if err != nil {
		return nil, err
	}

	result, err := extractor.Extract(ctx, data)
	if err != nil {
		return nil, err
	}

	doc := &document.Document{
		ID:     uuid.NewString(),
		Format: format,
		Pages:  result.Pages,
	}

	if len(result.Rasters) > 0 {
		if err := p.recognize(ctx, doc, result.Rasters); err != nil {
			return nil, err
		}
	}

	for i := range doc.Pages {
		extract.FinalizePage(&doc.Pages[i])
	}

	p.record(audit.Event{
		DocumentID: doc.ID,
		Stage:      "extract",
		Detail:     string(format),
		PageCount:  len(doc.Pages),
	})
	log.WithFields(logrus.Fields{
		"document": doc.ID,
		"format":   format,
		"pages":    len(doc.Pages),
	}).Info("Extraction completed")
	return doc, nil
}

// recognize runs the OCR pool over the rasters and folds results back into
// their pages. Per-page OCR failures degrade to error markers; only
// cancellation aborts.
func (p *Pipeline) recognize(ctx context.Context, doc *document.Document, rasters []extract.Raster) error {
	tasks := make([]ocr.PageTask, len(rasters))
	for i, r := range rasters {
		tasks[i] = ocr.PageTask{Page: r.Page, Image: r.Image}
	}

	results, err := p.pool.Run(ctx, tasks)
	if err != nil {
		return err
	}

	for i, res := range results {
		page := doc.Page(res.Page)
		if page == nil {
			return fmt.Errorf("OCR result references missing page %d", res.Page)
		}
		if res.Err != nil {
			page.ExtractError = res.Err.Error()
			page.Blocks = nil
			continue
		}
		extract.MergeOCR(page, res.Blocks, rasters[i].Scale, res.Rotation)
	}
	return nil
}

// Detect runs the layered detection over a normalized document.
func (p *Pipeline) Detect(ctx context.Context, doc *document.Document) ([]pii.Entity, error) {
	entities, err := p.engine.DetectDocument(ctx, doc)
	if err != nil {
		return nil, err
	}

	byType := make(map[pii.EntityType]int)
	for _, e := range entities {
		byType[e.Type]++
	}
	for t, n := range byType {
		p.record(audit.Event{
			DocumentID: doc.ID,
			Stage:      "detect",
			EntityType: string(t),
			Count:      n,
		})
	}
	return entities, nil
}

// Redact applies the configured policy and returns the redacted document
// with its replacement log. The input document is unchanged.
func (p *Pipeline) Redact(ctx context.Context, doc *document.Document, entities []pii.Entity) (*document.Document, []redact.Replacement, error) {
	redacted, replacements, err := p.redactor.Apply(ctx, doc, entities)
	if err != nil {
		return nil, nil, err
	}
	p.record(audit.Event{
		DocumentID: doc.ID,
		Stage:      "redact",
		Count:      len(replacements),
	})
	return redacted, replacements, nil
}

// CheckCompliance evaluates the configured frameworks. Unknown framework
// names fail the call; evaluation itself never mutates anything.
func (p *Pipeline) CheckCompliance(doc *document.Document, entities []pii.Entity, replacements []redact.Replacement) ([]*compliance.Report, error) {
	names := p.cfg.Frameworks
	if len(names) == 0 {
		for _, f := range compliance.Builtin() {
			names = append(names, f.Name)
		}
	}

	var reports []*compliance.Report
	for _, name := range names {
		framework, ok := compliance.ByName(name)
		if !ok {
			return nil, &document.ComplianceEvaluationError{
				Framework: name,
				Err:       fmt.Errorf("unknown framework"),
			}
		}
		report, err := compliance.Evaluate(framework, entities, replacements)
		if err != nil {
			return nil, err
		}
		p.record(audit.Event{
			DocumentID: doc.ID,
			Stage:      "compliance",
			Detail:     fmt.Sprintf("%s passed=%t", report.Framework, report.Passed),
		})
		reports = append(reports, report)
	}
	return reports, nil
}

// Outcome bundles everything Process produces for one document.
type Outcome struct {
	Document     *document.Document
	Entities     []pii.Entity
	Redacted     *document.Document
	Replacements []redact.Replacement
	Reports      []*compliance.Report
	Output       []byte
	OutputFormat redact.OutputFormat
}

// Process runs the full pass and regenerates output in the requested format,
// or the input's native format when outputFormat is empty.
func (p *Pipeline) Process(ctx context.Context, data []byte, claimed string, outputFormat redact.OutputFormat) (*Outcome, error) {
	doc, err := p.Extract(ctx, data, claimed)
	if err != nil {
		return nil, err
	}

	entities, err := p.Detect(ctx, doc)
	if err != nil {
		return nil, err
	}

	redacted, replacements, err := p.Redact(ctx, doc, entities)
	if err != nil {
		return nil, err
	}

	reports, err := p.CheckCompliance(doc, entities, replacements)
	if err != nil {
		return nil, err
	}

	if outputFormat == "" {
		outputFormat = redact.NativeOutput(doc.Format)
	}
	output, err := redact.Render(redacted, outputFormat)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Document:     doc,
		Entities:     entities,
		Redacted:     redacted,
		Replacements: replacements,
		Reports:      reports,
		Output:       output,
		OutputFormat: outputFormat,
	}, nil
}

func (p *Pipeline) record(event audit.Event) {
	if err := p.audit.Record(event); err != nil {
		log.WithError(err).Warn("Failed to record audit event")
	}
}
