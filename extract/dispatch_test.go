package extract

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/document"
)

func pdfBytes() []byte {
	return []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< >>\n%%EOF")
}

func pngBytes() []byte {
	return []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
}

// ooxmlBytes builds a minimal OOXML container so mimetype can tell DOCX from
// a generic zip.
func ooxmlBytes(t *testing.T, mainPart string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("[Content_Types].xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(`<?xml version="1.0"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"/>`))
	require.NoError(t, err)
	w, err = zw.Create(mainPart)
	require.NoError(t, err)
	_, err = w.Write([]byte("<x/>"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	testCases := []struct {
		name     string
		data     []byte
		claimed  string
		expected document.Format
	}{
		{name: "pdf by signature", data: pdfBytes(), expected: document.FormatPDF},
		{name: "pdf with matching claim", data: pdfBytes(), claimed: "pdf", expected: document.FormatPDF},
		{name: "pdf with mime claim", data: pdfBytes(), claimed: "application/pdf", expected: document.FormatPDF},
		{name: "png image", data: pngBytes(), expected: document.FormatImage},
		{name: "unknown claim is ignored", data: pdfBytes(), claimed: "dat", expected: document.FormatPDF},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			format, err := DetectFormat(tc.data, tc.claimed)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, format)
		})
	}
}

func TestDetectFormatMismatch(t *testing.T) {
	_, err := DetectFormat(pdfBytes(), "docx")

	var mismatch *document.FormatMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "docx", mismatch.Claimed)
}

func TestDetectFormatUnsupported(t *testing.T) {
	_, err := DetectFormat([]byte("plain text content, nothing binary"), "")

	var unsupported *document.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
}

func TestDetectFormatDOCX(t *testing.T) {
	format, err := DetectFormat(ooxmlBytes(t, "word/document.xml"), "docx")
	require.NoError(t, err)
	assert.Equal(t, document.FormatDOCX, format)
}

func TestForFormatUnknown(t *testing.T) {
	_, err := ForFormat(document.FormatUnknown, DefaultScanConfig())
	assert.Error(t, err)
}
