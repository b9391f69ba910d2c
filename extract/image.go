package extract

import (
	"bytes"
	"context"
	"image"

	// Register decoders for the raster formats the dispatcher admits.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"docscrub/document"
)

// ImageExtractor handles standalone raster inputs. The image is a single
// scanned page at 1:1 scale; all of its text comes from OCR.
type ImageExtractor struct{}

func (e *ImageExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, &document.CorruptFileError{Format: document.FormatImage, Err: err}
	}

	bounds := img.Bounds()
	page := document.Page{
		Number:    1,
		Width:     float64(bounds.Dx()),
		Height:    float64(bounds.Dy()),
		IsScanned: true,
	}
	return &Result{
		Pages:   []document.Page{page},
		Rasters: []Raster{{Page: 1, Image: img, Scale: 1.0}},
	}, nil
}
