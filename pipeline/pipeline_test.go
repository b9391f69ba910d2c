package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/document"
	"docscrub/extract"
	"docscrub/pii"
	"docscrub/redact"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Employment Record</w:t></w:r></w:p>
<w:p><w:r><w:t>Contact: 123-45-6789</w:t></w:r></w:p>
<w:p><w:r><w:t>Mail anna@example.com for questions</w:t></w:r></w:p>
</w:body>
</w:document>`

func docxBytes(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)

	w, err = zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(testDocumentXML))
	require.NoError(t, err)

	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func newTestPipeline(t *testing.T) *Pipeline {
	t.Helper()
	p, err := New(Config{Scan: extract.DefaultScanConfig()})
	require.NoError(t, err)
	return p
}

func TestProcessEndToEnd(t *testing.T) {
	p := newTestPipeline(t)

	outcome, err := p.Process(context.Background(), docxBytes(t), "docx", redact.OutputText)
	require.NoError(t, err)

	assert.Equal(t, document.FormatDOCX, outcome.Document.Format)
	require.Len(t, outcome.Document.Pages, 1)

	byType := make(map[pii.EntityType]int)
	for _, e := range outcome.Entities {
		byType[e.Type]++
	}
	assert.Equal(t, 1, byType[pii.EntitySSN])
	assert.Equal(t, 1, byType[pii.EntityEmail])

	text := string(outcome.Output)
	assert.NotContains(t, text, "123-45-6789")
	assert.NotContains(t, text, "anna@example.com")
	assert.Contains(t, text, "XXX-XX-6789")
	assert.Contains(t, text, "a***@example.com")

	// Original document keeps its values; only the clone is redacted.
	assert.Contains(t, outcome.Document.Pages[0].Text(), "123-45-6789")
	assert.NotContains(t, outcome.Redacted.Pages[0].Text(), "123-45-6789")

	require.NotEmpty(t, outcome.Reports)
	for _, report := range outcome.Reports {
		assert.NotEmpty(t, report.Results)
	}
}

func TestProcessIsDeterministic(t *testing.T) {
	p := newTestPipeline(t)
	data := docxBytes(t)

	first, err := p.Process(context.Background(), data, "docx", redact.OutputText)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		again, err := p.Process(context.Background(), data, "docx", redact.OutputText)
		require.NoError(t, err)
		assert.Equal(t, string(first.Output), string(again.Output))
		assert.Equal(t, len(first.Entities), len(again.Entities))
	}
}

func TestProcessFormatMismatch(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Process(context.Background(), docxBytes(t), "pdf", redact.OutputText)

	var mismatch *document.FormatMismatchError
	require.ErrorAs(t, err, &mismatch)
}

func TestProcessUnsupportedInput(t *testing.T) {
	p := newTestPipeline(t)

	_, err := p.Process(context.Background(), []byte("just some plain text"), "", redact.OutputText)

	var unsupported *document.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

func TestProcessCancellation(t *testing.T) {
	p := newTestPipeline(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Process(ctx, docxBytes(t), "docx", redact.OutputText)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProcessNativeOutputSelection(t *testing.T) {
	p := newTestPipeline(t)

	outcome, err := p.Process(context.Background(), docxBytes(t), "docx", "")
	require.NoError(t, err)
	assert.Equal(t, redact.OutputDOCX, outcome.OutputFormat)
	assert.Equal(t, []byte{'P', 'K'}, outcome.Output[:2])
}

func TestCheckComplianceUnknownFramework(t *testing.T) {
	p, err := New(Config{Scan: extract.DefaultScanConfig(), Frameworks: []string{"SOX"}})
	require.NoError(t, err)

	doc := &document.Document{ID: "d", Format: document.FormatDOCX, Pages: []document.Page{{Number: 1}}}
	_, err = p.CheckCompliance(doc, nil, nil)

	var evalErr *document.ComplianceEvaluationError
	require.ErrorAs(t, err, &evalErr)
	assert.Equal(t, "SOX", evalErr.Framework)
}

func TestRedactStrategyFailureProducesNoOutput(t *testing.T) {
	_, err := New(Config{
		Scan:   extract.DefaultScanConfig(),
		Policy: redact.Policy{Default: "shred"},
	})

	var strategyErr *document.RedactionStrategyError
	require.ErrorAs(t, err, &strategyErr)
}
