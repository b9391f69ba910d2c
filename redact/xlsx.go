package redact

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"docscrub/document"
)

// XLSX regeneration inverts the extractor's cell grid: each block's box maps
// back to the row and column it was lifted from, one worksheet per page.
// Formulas do not survive; cells hold the redacted literal values.

const (
	xlsxCellWidth  = 96.0
	xlsxCellHeight = 18.0
)

func renderXLSX(doc *document.Document) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	for pi := range doc.Pages {
		page := &doc.Pages[pi]
		sheet := fmt.Sprintf("Sheet%d", page.Number)
		if pi == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return nil, fmt.Errorf("error naming worksheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, fmt.Errorf("error creating worksheet: %w", err)
			}
		}

		if page.ExtractError != "" {
			cell, _ := excelize.CoordinatesToCellName(1, 1)
			msg := fmt.Sprintf("[sheet unreadable: %s]", page.ExtractError)
			if err := f.SetCellStr(sheet, cell, msg); err != nil {
				return nil, fmt.Errorf("error writing error marker: %w", err)
			}
			continue
		}

		for _, b := range page.Blocks {
			col := int(b.BBox.X1/xlsxCellWidth) + 1
			row := int(b.BBox.Y1/xlsxCellHeight) + 1
			cell, err := excelize.CoordinatesToCellName(col, row)
			if err != nil {
				return nil, fmt.Errorf("error resolving cell for block: %w", err)
			}
			if err := f.SetCellStr(sheet, cell, b.Text); err != nil {
				return nil, fmt.Errorf("error writing cell %s: %w", cell, err)
			}
		}
	}

	var out bytes.Buffer
	if err := f.Write(&out); err != nil {
		return nil, fmt.Errorf("error writing workbook: %w", err)
	}
	return out.Bytes(), nil
}
