// Package ocr recognizes text on rasterized pages. It preprocesses images
// (grayscale, orientation correction, contrast enhancement), invokes a
// pluggable OCR provider and returns word-level blocks with bounding boxes
// in the input image's pixel space plus per-token confidence. Recognition
// runs on a bounded worker pool with a per-page timeout; a page that fails
// or times out degrades to an error marker, never a document failure.
package ocr

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"docscrub/document"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the ocr package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Result holds the output of recognizing one image.
type Result struct {
	// Plain text output (required)
	Text string

	// Word-level blocks with bounding boxes in input-image pixel space.
	Blocks []document.TextBlock

	// Additional provider-specific metadata
	Metadata map[string]string
}

// Provider defines the interface for OCR processing.
type Provider interface {
	ProcessImage(ctx context.Context, imageContent []byte, pageNumber int) (*Result, error)
}

// Config holds the OCR provider configuration. Language selection is a
// configuration input; the adapter never picks languages per call.
type Config struct {
	// Provider type ("tesseract" or "google_docai")
	Provider string

	// Recognition languages (ISO 639-2/T codes, e.g. "eng", "deu")
	Languages []string

	// Google Document AI settings
	GoogleProjectID   string
	GoogleLocation    string
	GoogleProcessorID string
}

// NewProvider creates a new OCR provider based on configuration.
func NewProvider(config Config) (Provider, error) {
	log.Info("Initializing OCR provider: ", config.Provider)

	switch config.Provider {
	case "", "tesseract":
		return newTesseractProvider(config), nil

	case "google_docai":
		if config.GoogleProjectID == "" || config.GoogleLocation == "" || config.GoogleProcessorID == "" {
			return nil, fmt.Errorf("missing required Google Document AI configuration")
		}
		log.WithFields(logrus.Fields{
			"location":     config.GoogleLocation,
			"processor_id": config.GoogleProcessorID,
		}).Info("Using Google Document AI provider")
		return newGoogleDocAIProvider(config)

	default:
		return nil, fmt.Errorf("unsupported OCR provider: %s", config.Provider)
	}
}
