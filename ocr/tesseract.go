package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"docscrub/document"
)

// TesseractProvider runs local OCR through the Tesseract engine. A fresh
// client is created per image; gosseract clients are not safe for concurrent
// reuse across pool workers.
type TesseractProvider struct {
	languages     []string
	clientFactory func() *gosseract.Client
}

func newTesseractProvider(config Config) *TesseractProvider {
	langs := config.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	log.WithField("languages", strings.Join(langs, "+")).Info("Using Tesseract provider")
	return &TesseractProvider{
		languages:     langs,
		clientFactory: gosseract.NewClient,
	}
}

// ProcessImage recognizes one image and returns word-level blocks. Tesseract
// confidences arrive on a 0-100 scale and are normalized to [0,1].
func (p *TesseractProvider) ProcessImage(ctx context.Context, imageContent []byte, pageNumber int) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client := p.clientFactory()
	defer client.Close()

	if err := client.SetImageFromBytes(imageContent); err != nil {
		return nil, fmt.Errorf("error setting image: %w", err)
	}
	if err := client.SetLanguage(p.languages...); err != nil {
		return nil, fmt.Errorf("error setting languages: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("error recognizing text: %w", err)
	}
	text = strings.TrimSpace(text)

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("error reading word boxes: %w", err)
	}

	blocks := make([]document.TextBlock, 0, len(boxes))
	for _, b := range boxes {
		word := strings.TrimSpace(b.Word)
		if word == "" {
			continue
		}
		conf := b.Confidence / 100.0
		if conf < 0 {
			conf = 0
		}
		blocks = append(blocks, document.TextBlock{
			Text: word,
			BBox: document.BBox{
				X1: float64(b.Box.Min.X),
				Y1: float64(b.Box.Min.Y),
				X2: float64(b.Box.Max.X),
				Y2: float64(b.Box.Max.Y),
			},
			Confidence: conf,
			Type:       document.BlockOCR,
		})
	}

	log.WithFields(map[string]interface{}{
		"page":  pageNumber,
		"words": len(blocks),
	}).Debug("Tesseract recognition completed")

	return &Result{
		Text:   text,
		Blocks: blocks,
		Metadata: map[string]string{
			"provider":  "tesseract",
			"languages": strings.Join(p.languages, "+"),
		},
	}, nil
}
