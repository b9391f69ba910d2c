package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docscrub/document"
)

func TestCorrectRotation(t *testing.T) {
	// Box measured in a 600x800 page scanned at 90 degrees.
	raw := document.BBox{X1: 10, Y1: 10, X2: 20, Y2: 50}

	testCases := []struct {
		name     string
		rotation int
		expected document.BBox
	}{
		{name: "no rotation", rotation: 0, expected: raw},
		{name: "90 degrees", rotation: 90, expected: document.BBox{X1: 10, Y1: 580, X2: 50, Y2: 590}},
		{name: "180 degrees", rotation: 180, expected: document.BBox{X1: 580, Y1: 750, X2: 590, Y2: 790}},
		{name: "270 degrees", rotation: 270, expected: document.BBox{X1: 750, Y1: 10, X2: 790, Y2: 20}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, CorrectRotation(raw, tc.rotation, 600, 800))
		})
	}
}

func TestCorrectedDims(t *testing.T) {
	w, h := CorrectedDims(90, 600, 800)
	assert.Equal(t, 800.0, w)
	assert.Equal(t, 600.0, h)

	w, h = CorrectedDims(180, 600, 800)
	assert.Equal(t, 600.0, w)
	assert.Equal(t, 800.0, h)
}

func TestMergeOCRRescalesAndPreservesRotation(t *testing.T) {
	page := &document.Page{Number: 1, Width: 600, Height: 800, IsScanned: true}
	blocks := []document.TextBlock{
		// Raster pixels at 2x the page scale.
		{Text: "word", BBox: document.BBox{X1: 20, Y1: 20, X2: 40, Y2: 100}, Confidence: 0.9, Type: document.BlockOCR},
	}

	MergeOCR(page, blocks, 2.0, 90)

	assert.Equal(t, 90, page.Rotation)
	assert.Equal(t, 800.0, page.Width)
	assert.Equal(t, 600.0, page.Height)

	require.Len(t, page.Blocks, 1)
	assert.Equal(t, document.BBox{X1: 10, Y1: 580, X2: 50, Y2: 590}, page.Blocks[0].BBox)
}

func TestMergeOCRDropsInvalidBoxes(t *testing.T) {
	page := &document.Page{Number: 1, Width: 100, Height: 100, IsScanned: true}
	blocks := []document.TextBlock{
		{Text: "ok", BBox: document.BBox{X1: 10, Y1: 10, X2: 20, Y2: 20}},
		{Text: "degenerate", BBox: document.BBox{X1: 30, Y1: 30, X2: 30, Y2: 30}},
	}

	MergeOCR(page, blocks, 1.0, 0)

	require.Len(t, page.Blocks, 1)
	assert.Equal(t, "ok", page.Blocks[0].Text)
}

func TestFinalizePageReadingOrder(t *testing.T) {
	page := &document.Page{
		Number: 1, Width: 600, Height: 800,
		Blocks: []document.TextBlock{
			{Text: "third", BBox: document.BBox{X1: 10, Y1: 100, X2: 60, Y2: 115}},
			{Text: "second", BBox: document.BBox{X1: 300, Y1: 50, X2: 360, Y2: 65}},
			{Text: "first", BBox: document.BBox{X1: 10, Y1: 52, X2: 60, Y2: 67}},
		},
	}

	FinalizePage(page)

	var texts []string
	for _, b := range page.Blocks {
		texts = append(texts, b.Text)
	}
	assert.Equal(t, []string{"first", "second", "third"}, texts)

	// first and second share a line; third starts the next one.
	assert.Equal(t, page.Blocks[0].Meta.LineNum, page.Blocks[1].Meta.LineNum)
	assert.Greater(t, page.Blocks[2].Meta.LineNum, page.Blocks[1].Meta.LineNum)
}

func TestFinalizePageTieBreakKeepsExtractionOrder(t *testing.T) {
	// Identical boxes: order of appearance decides.
	box := document.BBox{X1: 10, Y1: 10, X2: 60, Y2: 25}
	page := &document.Page{
		Number: 1, Width: 600, Height: 800,
		Blocks: []document.TextBlock{
			{Text: "one", BBox: box},
			{Text: "two", BBox: box},
			{Text: "three", BBox: box},
		},
	}

	FinalizePage(page)

	var texts []string
	for _, b := range page.Blocks {
		texts = append(texts, b.Text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)
}

func TestFinalizePageMarksMRZBlocks(t *testing.T) {
	page := &document.Page{
		Number: 1, Width: 600, Height: 800,
		Blocks: []document.TextBlock{
			{Text: "PASSPORT", BBox: document.BBox{X1: 10, Y1: 10, X2: 100, Y2: 25}},
			{
				Text: "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\nL898902C36UTO7408122F1204159ZE184226B<<<<<10",
				BBox: document.BBox{X1: 10, Y1: 700, X2: 590, Y2: 760},
			},
		},
	}

	FinalizePage(page)

	require.Len(t, page.Blocks, 2)
	mrzBlock := page.Blocks[1]
	assert.Equal(t, document.BlockMRZ, mrzBlock.Type)
	require.NotNil(t, mrzBlock.Meta.MRZ)
	assert.Equal(t, "L898902C3", mrzBlock.Meta.MRZ.DocumentNumber)
}

func TestFinalizePageMarksEveryZoneSplitAcrossBlocks(t *testing.T) {
	lines := []string{
		"P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<",
		"L898902C36UTO7408122F1204159ZE184226B<<<<<10",
		"I<UTOD231458907<<<<<<<<<<<<<<<",
		"7408122F1204159UTO<<<<<<<<<<<6",
		"ERIKSSON<<ANNA<MARIA<<<<<<<<<<",
	}

	page := &document.Page{Number: 1, Width: 612, Height: 792}
	for i, l := range lines {
		y := float64(600 + i*20)
		page.Blocks = append(page.Blocks, document.TextBlock{
			Text: l,
			BBox: document.BBox{X1: 10, Y1: y, X2: 590, Y2: y + 14},
		})
	}

	FinalizePage(page)

	var parsed []*document.MRZData
	for _, b := range page.Blocks {
		if b.Type == document.BlockMRZ {
			require.NotNil(t, b.Meta.MRZ)
			parsed = append(parsed, b.Meta.MRZ)
		}
	}

	require.Len(t, parsed, 2)
	assert.Equal(t, document.MRZTD3, parsed[0].Format)
	assert.Equal(t, "L898902C3", parsed[0].DocumentNumber)
	assert.Equal(t, document.MRZTD1, parsed[1].Format)
	assert.Equal(t, "D23145890", parsed[1].DocumentNumber)
}

func TestRescaleBlocks(t *testing.T) {
	blocks := []document.TextBlock{
		{BBox: document.BBox{X1: 100, Y1: 200, X2: 300, Y2: 400}},
	}

	out := RescaleBlocks(blocks, 4.0)
	assert.Equal(t, document.BBox{X1: 25, Y1: 50, X2: 75, Y2: 100}, out[0].BBox)

	// Scale 1 returns the input untouched.
	same := RescaleBlocks(blocks, 1.0)
	assert.Equal(t, blocks[0].BBox, same[0].BBox)
}
