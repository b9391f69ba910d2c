package extract

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"docscrub/document"
)

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	require.NoError(t, f.SetCellStr("Sheet1", "A1", "Name"))
	require.NoError(t, f.SetCellStr("Sheet1", "B1", "Email"))
	require.NoError(t, f.SetCellStr("Sheet1", "A2", "Anna Eriksson"))
	require.NoError(t, f.SetCellStr("Sheet1", "B2", "anna@example.com"))

	_, err := f.NewSheet("Accounts")
	require.NoError(t, err)
	require.NoError(t, f.SetCellStr("Accounts", "A1", "4111-1111-1111-1111"))

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestXLSXExtract(t *testing.T) {
	e := &XLSXExtractor{}
	result, err := e.Extract(context.Background(), xlsxFixture(t))
	require.NoError(t, err)
	require.Len(t, result.Pages, 2)

	first := result.Pages[0]
	var texts []string
	for _, b := range first.Blocks {
		texts = append(texts, b.Text)
		assert.True(t, b.BBox.Valid(first.Width, first.Height), "block %q", b.Text)
	}
	assert.Equal(t, []string{"Name", "Email", "Anna Eriksson", "anna@example.com"}, texts)

	second := result.Pages[1]
	require.Len(t, second.Blocks, 1)
	assert.Equal(t, "4111-1111-1111-1111", second.Blocks[0].Text)
	assert.Equal(t, 2, second.Number)
}

func TestXLSXExtractCellGrid(t *testing.T) {
	e := &XLSXExtractor{}
	result, err := e.Extract(context.Background(), xlsxFixture(t))
	require.NoError(t, err)

	// B2 lands one cell right and one cell down.
	page := result.Pages[0]
	require.Len(t, page.Blocks, 4)
	b2 := page.Blocks[3]
	assert.Equal(t, xlsxCellWidth, b2.BBox.X1)
	assert.Equal(t, xlsxCellHeight, b2.BBox.Y1)
}

func TestXLSXExtractCorrupt(t *testing.T) {
	_, err := (&XLSXExtractor{}).Extract(context.Background(), []byte("not a workbook"))

	var corrupt *document.CorruptFileError
	require.ErrorAs(t, err, &corrupt)
	assert.Equal(t, document.FormatXLSX, corrupt.Format)
}
