package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"docscrub/document"
)

// DOCXExtractor pulls paragraph and table-cell text from word/document.xml.
// DOCX has no page concept; the extractor synthesizes a single logical page
// with block order matching document order and synthetic bounding boxes on a
// fixed line grid, so every block still satisfies the bbox invariant.
type DOCXExtractor struct{}

// Synthetic page geometry: US Letter at 72 dpi.
const (
	docxPageWidth  = 612.0
	docxPageHeight = 792.0
	docxLineHeight = 14.0
)

type docxDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    docxBody `xml:"body"`
}

type docxBody struct {
	Paragraphs []docxParagraph `xml:"p"`
	Tables     []docxTable     `xml:"tbl"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Texts []string `xml:"t"`
}

type docxTable struct {
	Rows []docxTableRow `xml:"tr"`
}

type docxTableRow struct {
	Cells []docxTableCell `xml:"tc"`
}

type docxTableCell struct {
	Paragraphs []docxParagraph `xml:"p"`
}

func (p docxParagraph) text() string {
	var sb strings.Builder
	for _, r := range p.Runs {
		for _, t := range r.Texts {
			sb.WriteString(t)
		}
	}
	return sb.String()
}

// Extract parses the OOXML container. Paragraphs first, then table cells in
// row/column order, mirroring document order. A missing or malformed
// document.xml is a CorruptFileError; a readable container always yields a
// page, even an empty one.
func (e *DOCXExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &document.CorruptFileError{Format: document.FormatDOCX, Err: err}
	}

	var docXML []byte
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			if err != nil {
				return nil, &document.CorruptFileError{Format: document.FormatDOCX, Err: err}
			}
			docXML, err = io.ReadAll(rc)
			rc.Close()
			if err != nil {
				return nil, &document.CorruptFileError{Format: document.FormatDOCX, Err: err}
			}
			break
		}
	}
	if docXML == nil {
		return nil, &document.CorruptFileError{
			Format: document.FormatDOCX,
			Err:    fmt.Errorf("word/document.xml missing from container"),
		}
	}

	var parsed docxDocument
	if err := xml.Unmarshal(docXML, &parsed); err != nil {
		return nil, &document.CorruptFileError{Format: document.FormatDOCX, Err: err}
	}

	page := document.Page{
		Number: 1,
		Width:  docxPageWidth,
		Height: docxPageHeight,
	}

	appendBlock := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		// Clamp overflow to the last line; same-y blocks keep document order
		// through the normalizer's extraction-order tie-break.
		y := float64(len(page.Blocks)) * docxLineHeight
		if y+docxLineHeight > docxPageHeight {
			y = docxPageHeight - docxLineHeight
		}
		width := float64(len([]rune(text))) * docxLineHeight * 0.5
		box := document.BBox{X1: 0, Y1: y, X2: width, Y2: y + docxLineHeight}.Clamp(docxPageWidth, docxPageHeight)
		if !box.Valid(docxPageWidth, docxPageHeight) {
			return
		}
		page.Blocks = append(page.Blocks, document.TextBlock{
			Text:       text,
			BBox:       box,
			Confidence: 1.0,
			Type:       document.BlockText,
		})
	}

	for _, p := range parsed.Body.Paragraphs {
		appendBlock(p.text())
	}
	for _, tbl := range parsed.Body.Tables {
		for _, row := range tbl.Rows {
			for _, cell := range row.Cells {
				for _, p := range cell.Paragraphs {
					appendBlock(p.text())
				}
			}
		}
	}

	return &Result{Pages: []document.Page{page}}, nil
}
