package redact

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"

	"docscrub/document"
)

// DOCX regeneration writes a minimal WordprocessingML package: one paragraph
// per text line, pages separated by explicit page breaks. Styling from the
// source document is not carried over.

const docxContentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const docxRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

func renderDOCX(doc *document.Document) ([]byte, error) {
	var body bytes.Buffer
	body.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)

	for pi := range doc.Pages {
		page := &doc.Pages[pi]
		if pi > 0 {
			body.WriteString(`<w:p><w:r><w:br w:type="page"/></w:r></w:p>`)
		}
		if page.ExtractError != "" {
			writeDocxParagraph(&body, fmt.Sprintf("[page %d unreadable: %s]", page.Number, page.ExtractError))
			continue
		}
		line := -1
		text := ""
		for _, b := range page.Blocks {
			if b.Meta.LineNum != line {
				if line >= 0 {
					writeDocxParagraph(&body, text)
				}
				line = b.Meta.LineNum
				text = b.Text
				continue
			}
			text += " " + b.Text
		}
		if line >= 0 {
			writeDocxParagraph(&body, text)
		}
	}

	body.WriteString(`</w:body></w:document>`)

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	parts := []struct {
		name    string
		content []byte
	}{
		{"[Content_Types].xml", []byte(docxContentTypes)},
		{"_rels/.rels", []byte(docxRels)},
		{"word/document.xml", body.Bytes()},
	}
	for _, part := range parts {
		w, err := zw.Create(part.name)
		if err != nil {
			return nil, fmt.Errorf("error creating %s: %w", part.name, err)
		}
		if _, err := w.Write(part.content); err != nil {
			return nil, fmt.Errorf("error writing %s: %w", part.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("error finalizing DOCX package: %w", err)
	}
	return out.Bytes(), nil
}

func writeDocxParagraph(buf *bytes.Buffer, text string) {
	buf.WriteString(`<w:p><w:r><w:t xml:space="preserve">`)
	xml.EscapeText(buf, []byte(text))
	buf.WriteString(`</w:t></w:r></w:p>`)
}
