package extract

import (
	"context"
	"image"

	"docscrub/document"
)

// Raster is a rasterized page awaiting OCR. Scale is the raster-to-page
// factor (raster pixels per page unit); the normalizer divides OCR bounding
// boxes by it to land back in page coordinates.
type Raster struct {
	Page  int // 1-based page number
	Image image.Image
	Scale float64
}

// Result is a format extractor's output: the page tree with whatever native
// text parsed, plus rasters for the pages that need OCR.
type Result struct {
	Pages   []document.Page
	Rasters []Raster
}

// Extractor is the common contract every format extractor implements.
// Corrupt or partially unreadable sources yield whatever pages parse
// successfully, with unreadable pages carrying an ExtractError marker;
// only an unopenable container fails the whole document.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (*Result, error)
}

// ForFormat returns the extractor handling the given detected format.
func ForFormat(f document.Format, scan ScanConfig) (Extractor, error) {
	switch f {
	case document.FormatPDF:
		return &PDFExtractor{Scan: scan}, nil
	case document.FormatDOCX:
		return &DOCXExtractor{}, nil
	case document.FormatXLSX:
		return &XLSXExtractor{}, nil
	case document.FormatImage:
		return &ImageExtractor{}, nil
	default:
		return nil, &document.UnsupportedFormatError{Detected: string(f)}
	}
}
