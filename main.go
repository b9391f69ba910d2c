package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"

	"docscrub/audit"
	"docscrub/extract"
	"docscrub/ocr"
	"docscrub/pii"
	"docscrub/pipeline"
	"docscrub/redact"
)

// Global Variables and Constants
var (

	// Logger
	log = logrus.New()

	// Environment Variables
	ocrProvider       = os.Getenv("OCR_PROVIDER")
	ocrLanguages      = os.Getenv("OCR_LANGUAGES")
	ocrWorkers        = os.Getenv("OCR_WORKERS")
	ocrPageTimeout    = os.Getenv("OCR_PAGE_TIMEOUT")
	googleProjectID   = os.Getenv("GOOGLE_PROJECT_ID")
	googleLocation    = os.Getenv("GOOGLE_LOCATION")
	googleProcessorID = os.Getenv("GOOGLE_PROCESSOR_ID")
	nerLlmProvider    = os.Getenv("NER_LLM_PROVIDER")
	nerLlmModel       = os.Getenv("NER_LLM_MODEL")
	openaiAPIKey      = os.Getenv("OPENAI_API_KEY")
	redactStrategy    = os.Getenv("REDACT_STRATEGY")
	outputFormat      = os.Getenv("OUTPUT_FORMAT")
	frameworks        = os.Getenv("COMPLIANCE_FRAMEWORKS")
	tokenStoreURL     = os.Getenv("TOKEN_STORE_URL")
	tokenStoreToken   = os.Getenv("TOKEN_STORE_API_TOKEN")
	auditDir          = os.Getenv("AUDIT_DB_DIR")
	logLevel          = strings.ToLower(os.Getenv("LOG_LEVEL"))
)

func main() {
	validateEnvVars()
	initLogger()

	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: %s FILE...\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := buildPipeline()
	if err != nil {
		log.Fatalf("Failed to build pipeline: %v", err)
	}

	failed := 0
	for _, path := range os.Args[1:] {
		if err := processFile(ctx, p, path); err != nil {
			if ctx.Err() != nil {
				log.Fatal("Interrupted")
			}
			color.Red("%s: %v", path, err)
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func buildPipeline() (*pipeline.Pipeline, error) {
	cfg := pipeline.Config{
		OCR: ocr.Config{
			Provider:          ocrProvider,
			Languages:         splitList(ocrLanguages),
			GoogleProjectID:   googleProjectID,
			GoogleLocation:    googleLocation,
			GoogleProcessorID: googleProcessorID,
		},
		Scan:       extract.DefaultScanConfig(),
		Policy:     redact.Policy{Default: redact.Strategy(redactStrategy)},
		Frameworks: splitList(frameworks),
	}

	if ocrWorkers != "" {
		n, err := strconv.Atoi(ocrWorkers)
		if err != nil {
			log.Fatalf("Invalid OCR_WORKERS: '%s'.", ocrWorkers)
		}
		cfg.OCRWorkers = n
	}
	if ocrPageTimeout != "" {
		d, err := time.ParseDuration(ocrPageTimeout)
		if err != nil {
			log.Fatalf("Invalid OCR_PAGE_TIMEOUT: '%s'.", ocrPageTimeout)
		}
		cfg.OCRTimeout = d
	}

	if nerLlmProvider != "" {
		cfg.LLM = &pii.LLMConfig{
			Provider: nerLlmProvider,
			Model:    nerLlmModel,
			APIKey:   openaiAPIKey,
		}
	}
	if tokenStoreURL != "" {
		cfg.TokenStore = redact.NewTokenStore(tokenStoreURL, tokenStoreToken)
	}
	if auditDir != "" {
		store, err := audit.Open(auditDir)
		if err != nil {
			return nil, err
		}
		cfg.AuditStore = store
	}

	return pipeline.New(cfg)
}

func processFile(ctx context.Context, p *pipeline.Pipeline, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	claimed := strings.TrimPrefix(filepath.Ext(path), ".")
	outcome, err := p.Process(ctx, data, claimed, redact.OutputFormat(outputFormat))
	if err != nil {
		return err
	}

	outPath := redactedPath(path, outcome.OutputFormat)
	if err := os.WriteFile(outPath, outcome.Output, 0o644); err != nil {
		return err
	}

	color.Green("%s: %d pages, %d entities redacted -> %s",
		path, len(outcome.Document.Pages), len(outcome.Replacements), outPath)
	for _, report := range outcome.Reports {
		if report.Passed {
			color.Green("  %s: passed", report.Framework)
			continue
		}
		color.Yellow("  %s: violations", report.Framework)
		for _, r := range report.Results {
			if r.Status == "violated" {
				color.Yellow("    %s: %s", r.RequirementID, r.Description)
			}
		}
	}
	return nil
}

func redactedPath(path string, format redact.OutputFormat) string {
	ext := string(format)
	if format == redact.OutputText {
		ext = "txt"
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ".redacted." + ext
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func initLogger() {
	switch logLevel {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		if logLevel != "" {
			log.Fatalf("Invalid log level: '%s'.", logLevel)
		}
	}

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	extract.SetLogLevel(log.GetLevel())
	ocr.SetLogLevel(log.GetLevel())
	pii.SetLogLevel(log.GetLevel())
	redact.SetLogLevel(log.GetLevel())
	audit.SetLogLevel(log.GetLevel())
	pipeline.SetLogLevel(log.GetLevel())
}

// validateEnvVars ensures all necessary environment variables are set
func validateEnvVars() {
	if ocrProvider == "google_docai" {
		if googleProjectID == "" {
			log.Fatal("Please set the GOOGLE_PROJECT_ID environment variable.")
		}
		if googleLocation == "" {
			log.Fatal("Please set the GOOGLE_LOCATION environment variable.")
		}
		if googleProcessorID == "" {
			log.Fatal("Please set the GOOGLE_PROCESSOR_ID environment variable.")
		}
	}

	if nerLlmProvider == "openai" && openaiAPIKey == "" {
		log.Fatal("Please set the OPENAI_API_KEY environment variable.")
	}

	if redactStrategy != "" {
		switch redactStrategy {
		case "mask", "tokenize", "pseudonymize", "generalize":
		default:
			log.Fatalf("Invalid REDACT_STRATEGY: '%s'.", redactStrategy)
		}
	}
}
