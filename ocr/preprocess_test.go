package ocr

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bandedImage draws alternating dark bands to mimic text lines. horizontal
// bands read like an upright page, vertical bands like a 90-degree scan.
func bandedImage(w, h int, horizontal bool) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			pos := y
			if !horizontal {
				pos = x
			}
			if (pos/8)%2 == 0 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func TestDetectOrientation(t *testing.T) {
	assert.Equal(t, 0, DetectOrientation(bandedImage(200, 160, true)))
	assert.Equal(t, 90, DetectOrientation(bandedImage(200, 160, false)))
}

func TestPreprocessUpscalesSmallImages(t *testing.T) {
	small := bandedImage(400, 200, true)

	out, scale := Preprocess(small)
	assert.Equal(t, 5.0, scale)
	assert.Equal(t, 1000, out.Bounds().Dy())
	assert.Equal(t, 2000, out.Bounds().Dx())
}

func TestPreprocessKeepsLargeImages(t *testing.T) {
	large := bandedImage(1200, 1600, true)

	out, scale := Preprocess(large)
	assert.Equal(t, 1.0, scale)
	assert.Equal(t, large.Bounds(), out.Bounds())
}

func TestRotateUprightDimensions(t *testing.T) {
	img := bandedImage(200, 100, true)

	rotated := RotateUpright(img, 90)
	assert.Equal(t, 100, rotated.Bounds().Dx())
	assert.Equal(t, 200, rotated.Bounds().Dy())

	same := RotateUpright(img, 180)
	assert.Equal(t, 200, same.Bounds().Dx())
	assert.Equal(t, 100, same.Bounds().Dy())
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(bandedImage(20, 20, true))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
}
