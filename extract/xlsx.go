package extract

import (
	"bytes"
	"context"
	"strings"

	"github.com/xuri/excelize/v2"

	"docscrub/document"
)

// XLSXExtractor synthesizes one logical page per worksheet. Cell regions map
// to a fixed-size grid so row/column order is preserved as reading order and
// every block carries a valid bounding box.
type XLSXExtractor struct{}

// Synthetic cell geometry. Width x height of one grid cell in page units.
const (
	xlsxCellWidth  = 96.0
	xlsxCellHeight = 18.0
)

// Extract reads every worksheet with formula results resolved to values.
// A sheet that fails to read degrades to a page with an ExtractError marker;
// only an unopenable workbook is fatal.
func (e *XLSXExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &document.CorruptFileError{Format: document.FormatXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	pages := make([]document.Page, 0, len(sheets))

	for i, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := document.Page{Number: i + 1}

		rows, err := f.GetRows(sheet)
		if err != nil {
			log.WithError(err).WithField("sheet", sheet).Warn("Failed to read worksheet")
			page.Width, page.Height = xlsxCellWidth, xlsxCellHeight
			page.ExtractError = (&document.PageExtractionError{Page: i + 1, Err: err}).Error()
			pages = append(pages, page)
			continue
		}

		maxCols := 0
		for _, row := range rows {
			if len(row) > maxCols {
				maxCols = len(row)
			}
		}
		if maxCols == 0 {
			maxCols = 1
		}
		nRows := len(rows)
		if nRows == 0 {
			nRows = 1
		}
		page.Width = float64(maxCols) * xlsxCellWidth
		page.Height = float64(nRows) * xlsxCellHeight

		for r, row := range rows {
			for c, val := range row {
				if strings.TrimSpace(val) == "" {
					continue
				}
				box := document.BBox{
					X1: float64(c) * xlsxCellWidth,
					Y1: float64(r) * xlsxCellHeight,
					X2: float64(c+1) * xlsxCellWidth,
					Y2: float64(r+1) * xlsxCellHeight,
				}
				page.Blocks = append(page.Blocks, document.TextBlock{
					Text:       val,
					BBox:       box,
					Confidence: 1.0,
					Type:       document.BlockText,
				})
			}
		}
		pages = append(pages, page)
	}

	if len(pages) == 0 {
		pages = append(pages, document.Page{Number: 1, Width: xlsxCellWidth, Height: xlsxCellHeight})
	}
	return &Result{Pages: pages}, nil
}
