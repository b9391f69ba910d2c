package redact

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docscrub/document"
)

func layoutDoc() *document.Document {
	return &document.Document{
		ID:     "out-doc",
		Format: document.FormatPDF,
		Pages: []document.Page{
			{
				Number: 1, Width: 600, Height: 800,
				Blocks: []document.TextBlock{
					{Text: "Hello", BBox: document.BBox{X1: 10, Y1: 10, X2: 60, Y2: 24}, Meta: document.BlockMeta{LineNum: 0}},
					{Text: "world", BBox: document.BBox{X1: 70, Y1: 10, X2: 120, Y2: 24}, Meta: document.BlockMeta{LineNum: 0}},
					{Text: "Second line", BBox: document.BBox{X1: 10, Y1: 40, X2: 120, Y2: 54}, Meta: document.BlockMeta{LineNum: 1}},
				},
			},
			{
				Number: 2, Width: 600, Height: 800,
				Blocks: []document.TextBlock{
					{Text: "Page two", BBox: document.BBox{X1: 10, Y1: 10, X2: 90, Y2: 24}},
				},
			},
		},
	}
}

func TestRenderText(t *testing.T) {
	out, err := Render(layoutDoc(), OutputText)
	require.NoError(t, err)
	assert.Equal(t, "Hello world\nSecond line\n\fPage two\n", string(out))
}

func TestRenderTextMarksUnreadablePages(t *testing.T) {
	doc := layoutDoc()
	doc.Pages[1].Blocks = nil
	doc.Pages[1].ExtractError = "OCR timed out on page 2"

	out, err := Render(doc, OutputText)
	require.NoError(t, err)
	assert.Contains(t, string(out), "[page 2 unreadable: OCR timed out on page 2]")
}

func TestRenderJSONRoundTrips(t *testing.T) {
	out, err := Render(layoutDoc(), OutputJSON)
	require.NoError(t, err)

	var decoded document.Document
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.Equal(t, "out-doc", decoded.ID)
	require.Len(t, decoded.Pages, 2)
	assert.Equal(t, "Hello", decoded.Pages[0].Blocks[0].Text)

	// Layout metadata is nested under page_info; absent MRZ data is null.
	assert.Contains(t, string(out), `"page_info"`)
	assert.Contains(t, string(out), `"mrz_data": null`)
}

func TestRenderCSV(t *testing.T) {
	out, err := Render(layoutDoc(), OutputCSV)
	require.NoError(t, err)

	rows, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"page", "line", "text"}, rows[0])
	assert.Equal(t, []string{"1", "0", "Hello world"}, rows[1])
	assert.Equal(t, []string{"1", "1", "Second line"}, rows[2])
	assert.Equal(t, []string{"2", "0", "Page two"}, rows[3])
}

func TestRenderXLSXRoundTrips(t *testing.T) {
	doc := &document.Document{
		ID: "wb", Format: document.FormatXLSX,
		Pages: []document.Page{{
			Number: 1, Width: 2 * xlsxCellWidth, Height: 2 * xlsxCellHeight,
			Blocks: []document.TextBlock{
				{Text: "Name", BBox: document.BBox{X1: 0, Y1: 0, X2: xlsxCellWidth, Y2: xlsxCellHeight}},
				{Text: "A. E.", BBox: document.BBox{X1: xlsxCellWidth, Y1: xlsxCellHeight, X2: 2 * xlsxCellWidth, Y2: 2 * xlsxCellHeight}},
			},
		}},
	}

	out, err := Render(doc, OutputXLSX)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Sheet1", "A1")
	require.NoError(t, err)
	assert.Equal(t, "Name", v)

	v, err = f.GetCellValue("Sheet1", "B2")
	require.NoError(t, err)
	assert.Equal(t, "A. E.", v)
}

func TestRenderDOCXContainsParagraphs(t *testing.T) {
	out, err := Render(layoutDoc(), OutputDOCX)
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(out), int64(len(out)))
	require.NoError(t, err)

	var mainPart string
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			rc, err := f.Open()
			require.NoError(t, err)
			data, err := io.ReadAll(rc)
			rc.Close()
			require.NoError(t, err)
			mainPart = string(data)
		}
	}
	require.NotEmpty(t, mainPart)
	assert.Contains(t, mainPart, "Hello world")
	assert.Contains(t, mainPart, "Second line")
	assert.Contains(t, mainPart, `<w:br w:type="page"/>`)
}

func TestRenderUnknownFormat(t *testing.T) {
	_, err := Render(layoutDoc(), "parquet")
	assert.Error(t, err)
}

func TestNativeOutput(t *testing.T) {
	assert.Equal(t, OutputPDF, NativeOutput(document.FormatPDF))
	assert.Equal(t, OutputPDF, NativeOutput(document.FormatImage))
	assert.Equal(t, OutputDOCX, NativeOutput(document.FormatDOCX))
	assert.Equal(t, OutputXLSX, NativeOutput(document.FormatXLSX))
}
