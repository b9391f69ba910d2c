package ocr

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/disintegration/imaging"
)

const (
	// Images smaller than this on their shortest side are upscaled before
	// recognition; engines degrade sharply below ~300 DPI equivalents.
	minRecognitionDim = 1000

	contrastBoost = 20
)

// Preprocess prepares a raster for recognition: grayscale conversion, a
// contrast boost, light sharpening and upscaling of small images. The
// geometry of the input is preserved apart from uniform scaling, so box
// coordinates divide back cleanly.
func Preprocess(img image.Image) (image.Image, float64) {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, contrastBoost)
	out = imaging.Sharpen(out, 0.5)

	scale := 1.0
	b := out.Bounds()
	minDim := b.Dx()
	if b.Dy() < minDim {
		minDim = b.Dy()
	}
	if minDim > 0 && minDim < minRecognitionDim {
		scale = float64(minRecognitionDim) / float64(minDim)
		out = imaging.Resize(out, int(float64(b.Dx())*scale), 0, imaging.Lanczos)
	}
	return out, scale
}

// RotateUpright rotates an image so that a page scanned at the given
// rotation reads upright. imaging.Rotate90 turns counter-clockwise, which
// undoes a clockwise 90-degree scan.
func RotateUpright(img image.Image, rotation int) image.Image {
	switch rotation {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

// DetectOrientation estimates the scan rotation as one of 0, 90, 180 or 270
// degrees. Text lines produce strong horizontal banding, so the axis with the
// higher projection-profile variance is the reading axis; 180-degree flips
// are not distinguishable by this measure and resolve to 0. Best effort only.
func DetectOrientation(img image.Image) int {
	g := imaging.Grayscale(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}

	rows := make([]float64, h)
	cols := make([]float64, w)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// NRGBA grayscale, R carries the luminance.
			lum := float64(g.NRGBAAt(b.Min.X+x, b.Min.Y+y).R)
			rows[y] += lum
			cols[x] += lum
		}
	}
	for y := range rows {
		rows[y] /= float64(w)
	}
	for x := range cols {
		cols[x] /= float64(h)
	}

	if variance(rows) >= variance(cols) {
		return 0
	}
	return 90
}

func variance(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	out := 0.0
	for _, v := range vals {
		d := v - mean
		out += d * d
	}
	return out / float64(len(vals))
}

// EncodePNG serializes an image for a provider that takes raw bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("error encoding image: %w", err)
	}
	return buf.Bytes(), nil
}
