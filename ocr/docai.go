package ocr

import (
	"context"
	"fmt"
	"strings"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"docscrub/document"
)

// GoogleDocAIProvider implements OCR using Google Document AI.
type GoogleDocAIProvider struct {
	projectID   string
	location    string
	processorID string
	client      *documentai.DocumentProcessorClient
}

func newGoogleDocAIProvider(config Config) (*GoogleDocAIProvider, error) {
	logger := log.WithFields(logrus.Fields{
		"location":     config.GoogleLocation,
		"processor_id": config.GoogleProcessorID,
	})
	logger.Info("Creating new Google Document AI provider")

	ctx := context.Background()
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.GoogleLocation)

	client, err := documentai.NewDocumentProcessorClient(ctx, option.WithEndpoint(endpoint))
	if err != nil {
		logger.WithError(err).Error("Failed to create Document AI client")
		return nil, fmt.Errorf("error creating Document AI client: %w", err)
	}

	return &GoogleDocAIProvider{
		projectID:   config.GoogleProjectID,
		location:    config.GoogleLocation,
		processorID: config.GoogleProcessorID,
		client:      client,
	}, nil
}

func (p *GoogleDocAIProvider) ProcessImage(ctx context.Context, imageContent []byte, pageNumber int) (*Result, error) {
	logger := log.WithFields(logrus.Fields{
		"processor_id": p.processorID,
		"page":         pageNumber,
	})
	logger.Debug("Starting Document AI processing")

	mtype := mimetype.Detect(imageContent)
	if !isImageMIMEType(mtype.String()) {
		return nil, fmt.Errorf("unsupported file type: %s", mtype.String())
	}

	name := fmt.Sprintf("projects/%s/locations/%s/processors/%s", p.projectID, p.location, p.processorID)

	req := &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  imageContent,
				MimeType: mtype.String(),
			},
		},
	}

	resp, err := p.client.ProcessDocument(ctx, req)
	if err != nil {
		logger.WithError(err).Error("Failed to process document")
		return nil, fmt.Errorf("error processing document: %w", err)
	}
	if resp == nil || resp.Document == nil {
		return nil, fmt.Errorf("received nil response or document from Document AI")
	}
	if resp.Document.Error != nil {
		return nil, fmt.Errorf("document processing error: %s", resp.Document.Error.Message)
	}

	blocks := tokenBlocks(resp.Document)

	metadata := map[string]string{
		"provider":   "google_docai",
		"mime_type":  mtype.String(),
		"page_count": fmt.Sprintf("%d", len(resp.Document.GetPages())),
	}
	if pages := resp.Document.GetPages(); len(pages) > 0 {
		if langs := pages[0].GetDetectedLanguages(); len(langs) > 0 {
			metadata["lang_code"] = langs[0].GetLanguageCode()
		}
	}

	logger.WithField("content_length", len(resp.Document.Text)).Info("Successfully processed document")
	return &Result{
		Text:     resp.Document.Text,
		Blocks:   blocks,
		Metadata: metadata,
	}, nil
}

// tokenBlocks converts Document AI tokens into word-level blocks. Token
// bounding polys arrive with vertices normalized to [0,1]; they are scaled
// back to the page's pixel dimensions.
func tokenBlocks(doc *documentaipb.Document) []document.TextBlock {
	var blocks []document.TextBlock
	for _, page := range doc.GetPages() {
		pageWidth := float64(page.GetDimension().GetWidth())
		pageHeight := float64(page.GetDimension().GetHeight())
		if pageWidth <= 0 || pageHeight <= 0 {
			continue
		}
		for _, token := range page.GetTokens() {
			layout := token.GetLayout()
			verts := layout.GetBoundingPoly().GetNormalizedVertices()
			if len(verts) < 4 {
				continue
			}
			text := anchorText(doc, layout.GetTextAnchor())
			if text == "" {
				continue
			}
			blocks = append(blocks, document.TextBlock{
				Text: text,
				BBox: document.BBox{
					X1: float64(verts[0].GetX()) * pageWidth,
					Y1: float64(verts[0].GetY()) * pageHeight,
					X2: float64(verts[2].GetX()) * pageWidth,
					Y2: float64(verts[2].GetY()) * pageHeight,
				},
				Confidence: float64(layout.GetConfidence()),
				Type:       document.BlockOCR,
			})
		}
	}
	return blocks
}

func anchorText(doc *documentaipb.Document, anchor *documentaipb.Document_TextAnchor) string {
	out := ""
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 || end > int64(len(doc.Text)) || start >= end {
			continue
		}
		out += doc.Text[start:end]
	}
	// Tokens carry trailing whitespace in the text anchor.
	return strings.TrimSpace(out)
}

// isImageMIMEType checks if the given MIME type is a supported image type.
func isImageMIMEType(mimeType string) bool {
	supportedTypes := map[string]bool{
		"image/jpeg": true,
		"image/jpg":  true,
		"image/png":  true,
		"image/tiff": true,
		"image/bmp":  true,
	}
	return supportedTypes[mimeType]
}

// Close releases resources used by the provider.
func (p *GoogleDocAIProvider) Close() error {
	if p.client != nil {
		return p.client.Close()
	}
	return nil
}
