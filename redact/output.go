package redact

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"

	"docscrub/document"
)

// OutputFormat names a regeneration target. Structural formats rebuild a
// file of that type from the redacted block tree; text and JSON serialize
// the tree itself.
type OutputFormat string

const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputCSV  OutputFormat = "csv"
	OutputPDF  OutputFormat = "pdf"
	OutputDOCX OutputFormat = "docx"
	OutputXLSX OutputFormat = "xlsx"
)

// Render serializes a redacted document into the requested format.
func Render(doc *document.Document, format OutputFormat) ([]byte, error) {
	switch format {
	case OutputText:
		return renderText(doc), nil
	case OutputJSON:
		return renderJSON(doc)
	case OutputCSV:
		return renderCSV(doc)
	case OutputPDF:
		return renderPDF(doc)
	case OutputDOCX:
		return renderDOCX(doc)
	case OutputXLSX:
		return renderXLSX(doc)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// NativeOutput maps an input format to its regeneration target.
func NativeOutput(f document.Format) OutputFormat {
	switch f {
	case document.FormatPDF, document.FormatImage:
		return OutputPDF
	case document.FormatDOCX:
		return OutputDOCX
	case document.FormatXLSX:
		return OutputXLSX
	default:
		return OutputText
	}
}

// renderText emits pages in reading order, form-feed separated, one line
// group per text line.
func renderText(doc *document.Document) []byte {
	var buf bytes.Buffer
	for pi := range doc.Pages {
		page := &doc.Pages[pi]
		if pi > 0 {
			buf.WriteByte('\f')
		}
		if page.ExtractError != "" {
			fmt.Fprintf(&buf, "[page %d unreadable: %s]\n", page.Number, page.ExtractError)
			continue
		}
		lastLine := -1
		for i, b := range page.Blocks {
			if i > 0 {
				if b.Meta.LineNum != lastLine {
					buf.WriteByte('\n')
				} else {
					buf.WriteByte(' ')
				}
			}
			buf.WriteString(b.Text)
			lastLine = b.Meta.LineNum
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func renderJSON(doc *document.Document) ([]byte, error) {
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding document: %w", err)
	}
	return out, nil
}

// renderCSV emits one row per text line: page, line number, line text.
func renderCSV(doc *document.Document) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"page", "line", "text"}); err != nil {
		return nil, fmt.Errorf("error writing CSV header: %w", err)
	}

	for pi := range doc.Pages {
		page := &doc.Pages[pi]
		line := -1
		text := ""
		flush := func() error {
			if line < 0 {
				return nil
			}
			return w.Write([]string{strconv.Itoa(page.Number), strconv.Itoa(line), text})
		}
		for _, b := range page.Blocks {
			if b.Meta.LineNum != line {
				if err := flush(); err != nil {
					return nil, fmt.Errorf("error writing CSV row: %w", err)
				}
				line = b.Meta.LineNum
				text = b.Text
				continue
			}
			text += " " + b.Text
		}
		if err := flush(); err != nil {
			return nil, fmt.Errorf("error writing CSV row: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("error flushing CSV: %w", err)
	}
	return buf.Bytes(), nil
}
