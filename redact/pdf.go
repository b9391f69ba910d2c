package redact

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"docscrub/document"
)

// PDF regeneration lays the redacted blocks back out on Letter pages via
// pdfcpu's JSON create API. Positions are preserved up to a uniform per-page
// scale; fonts are not recovered from the source, every block renders in
// Helvetica sized from its box height.

const (
	pdfPageWidth  = 612.0
	pdfPageHeight = 792.0

	pdfMinFontSize = 6.0
	pdfMaxFontSize = 14.0
)

type pdfCreateDecl struct {
	Pages map[string]pdfPageDecl `json:"pages"`
}

type pdfPageDecl struct {
	Content pdfContentDecl `json:"content"`
}

type pdfContentDecl struct {
	Text []pdfTextDecl `json:"text"`
}

type pdfTextDecl struct {
	Value    string     `json:"value"`
	Position [2]float64 `json:"position"`
	Font     pdfFont    `json:"font"`
}

type pdfFont struct {
	Name string  `json:"name"`
	Size float64 `json:"size"`
}

func renderPDF(doc *document.Document) ([]byte, error) {
	decl := pdfCreateDecl{Pages: make(map[string]pdfPageDecl, len(doc.Pages))}

	for pi := range doc.Pages {
		page := &doc.Pages[pi]

		scale := 1.0
		if page.Width > 0 {
			scale = pdfPageWidth / page.Width
		}
		if page.Height > 0 {
			if s := pdfPageHeight / page.Height; s < scale {
				scale = s
			}
		}

		texts := make([]pdfTextDecl, 0, len(page.Blocks)+1)
		if page.ExtractError != "" {
			texts = append(texts, pdfTextDecl{
				Value:    fmt.Sprintf("[page %d unreadable: %s]", page.Number, page.ExtractError),
				Position: [2]float64{36, pdfPageHeight - 48},
				Font:     pdfFont{Name: "Helvetica", Size: 10},
			})
		}
		for _, b := range page.Blocks {
			if b.Text == "" {
				continue
			}
			size := b.BBox.Height() * scale * 0.8
			if size < pdfMinFontSize {
				size = pdfMinFontSize
			}
			if size > pdfMaxFontSize {
				size = pdfMaxFontSize
			}
			texts = append(texts, pdfTextDecl{
				Value: b.Text,
				// pdfcpu positions from the lower-left corner.
				Position: [2]float64{b.BBox.X1 * scale, pdfPageHeight - b.BBox.Y2*scale},
				Font:     pdfFont{Name: "Helvetica", Size: size},
			})
		}

		decl.Pages[fmt.Sprintf("%d", page.Number)] = pdfPageDecl{
			Content: pdfContentDecl{Text: texts},
		}
	}

	declaration, err := json.Marshal(decl)
	if err != nil {
		return nil, fmt.Errorf("error encoding PDF declaration: %w", err)
	}

	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.Create(nil, bytes.NewReader(declaration), &out, conf); err != nil {
		return nil, fmt.Errorf("error creating PDF: %w", err)
	}
	return out.Bytes(), nil
}
