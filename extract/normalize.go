package extract

import (
	"sort"
	"strings"

	"docscrub/document"
	"docscrub/mrz"
)

// The normalizer is the single point where extractor, OCR and MRZ outputs
// meet the canonical schema: OCR boxes are rescaled from raster pixels to
// page units, all boxes are re-expressed in the corrected (rotation = 0)
// orientation, and blocks from every source are interleaved into one strict
// top-to-bottom, left-to-right reading order.

// RescaleBlocks converts bounding boxes from raster pixel space to page
// coordinate space using the raster-to-page scale factor.
func RescaleBlocks(blocks []document.TextBlock, scale float64) []document.TextBlock {
	if scale == 0 || scale == 1 {
		return blocks
	}
	out := make([]document.TextBlock, len(blocks))
	for i, b := range blocks {
		b.BBox = b.BBox.Scale(1 / scale)
		out[i] = b
	}
	return out
}

// CorrectedDims returns the page dimensions in the corrected orientation:
// a 90 or 270 degree rotation transposes width and height.
func CorrectedDims(rotation int, w, h float64) (float64, float64) {
	if rotation == 90 || rotation == 270 {
		return h, w
	}
	return w, h
}

// CorrectRotation re-expresses a box measured in a page rotated by the given
// angle into the 0-degree reading orientation. w and h are the dimensions of
// the rotated (as-measured) space. A 90-degree rotation transposes x/y and
// flips one axis; 180 flips both.
func CorrectRotation(b document.BBox, rotation int, w, h float64) document.BBox {
	switch rotation {
	case 90:
		return document.BBox{X1: b.Y1, Y1: w - b.X2, X2: b.Y2, Y2: w - b.X1}
	case 180:
		return document.BBox{X1: w - b.X2, Y1: h - b.Y2, X2: w - b.X1, Y2: h - b.Y1}
	case 270:
		return document.BBox{X1: h - b.Y2, Y1: b.X1, X2: h - b.Y1, Y2: b.X2}
	default:
		return b
	}
}

// MergeOCR folds recognized blocks into a scanned page: rescale to page
// units, correct the detected rotation, record the original rotation value
// on the page and swap the page dimensions into the corrected orientation.
func MergeOCR(page *document.Page, blocks []document.TextBlock, scale float64, rotation int) {
	blocks = RescaleBlocks(blocks, scale)
	if rotation != 0 {
		for i := range blocks {
			blocks[i].BBox = CorrectRotation(blocks[i].BBox, rotation, page.Width, page.Height)
		}
		page.Rotation = rotation
		page.Width, page.Height = CorrectedDims(rotation, page.Width, page.Height)
	}
	for _, b := range blocks {
		b.BBox = b.BBox.Clamp(page.Width, page.Height)
		if !b.BBox.Valid(page.Width, page.Height) {
			continue
		}
		page.Blocks = append(page.Blocks, b)
	}
}

// FinalizePage assigns reading order and positional metadata, and marks MRZ
// blocks. Order is strictly top-to-bottom then left-to-right; blocks whose
// vertical spans overlap are treated as one line, ties broken by original
// extraction order.
func FinalizePage(page *document.Page) {
	orderBlocks(page)
	assignMeta(page)
	markMRZ(page)
}

type orderedBlock struct {
	block document.TextBlock
	orig  int
}

func orderBlocks(page *document.Page) {
	obs := make([]orderedBlock, len(page.Blocks))
	for i, b := range page.Blocks {
		obs[i] = orderedBlock{block: b, orig: i}
	}
	sort.SliceStable(obs, func(i, j int) bool {
		a, b := obs[i].block.BBox, obs[j].block.BBox
		if sameLine(a, b) {
			if a.X1 != b.X1 {
				return a.X1 < b.X1
			}
			return obs[i].orig < obs[j].orig
		}
		return a.Y1 < b.Y1
	})
	for i := range obs {
		page.Blocks[i] = obs[i].block
	}
}

// sameLine reports whether two boxes overlap vertically by at least half the
// smaller height.
func sameLine(a, b document.BBox) bool {
	top := a.Y1
	if b.Y1 > top {
		top = b.Y1
	}
	bottom := a.Y2
	if b.Y2 < bottom {
		bottom = b.Y2
	}
	overlap := bottom - top
	if overlap <= 0 {
		return false
	}
	minH := a.Height()
	if b.Height() < minH {
		minH = b.Height()
	}
	return overlap >= minH/2
}

// assignMeta numbers blocks, lines and words from the final order. A new
// line starts when the next block no longer overlaps the current line's
// vertical band; a new block group starts after a gap taller than the
// current line.
func assignMeta(page *document.Page) {
	blockNum, lineNum, wordNum := 0, 0, 0
	for i := range page.Blocks {
		if i > 0 {
			prev, cur := page.Blocks[i-1].BBox, page.Blocks[i].BBox
			if !sameLine(prev, cur) {
				lineNum++
				wordNum = 0
				if cur.Y1-prev.Y2 > prev.Height() {
					blockNum++
				}
			} else {
				wordNum++
			}
		}
		page.Blocks[i].Meta.BlockNum = blockNum
		page.Blocks[i].Meta.LineNum = lineNum
		page.Blocks[i].Meta.WordNum = wordNum
	}
}

// markMRZ runs MRZ detection over each block's own text and over the page's
// ordered line sequence, covering zones split across several blocks. Hits
// flip the contributing block to the mrz type and attach the parsed data.
func markMRZ(page *document.Page) {
	for i := range page.Blocks {
		if page.Blocks[i].Type == document.BlockMRZ {
			continue
		}
		if zones := mrz.DetectText(page.Blocks[i].Text); len(zones) > 0 {
			page.Blocks[i].Type = document.BlockMRZ
			page.Blocks[i].Meta.MRZ = &zones[0]
		}
	}

	// Cross-block pass: one MRZ line per block is the common OCR shape.
	// Blocks already claimed by the per-block pass contribute no lines, so
	// their zones are not detected twice.
	lines := make([]string, len(page.Blocks))
	for i, b := range page.Blocks {
		if b.Type != document.BlockMRZ {
			lines[i] = b.Text
		}
	}
	zones := mrz.Detect(lines)

	// Each zone attaches to the first MRZ-shaped block of its line run; the
	// run's remaining lines stay ordinary blocks and never anchor the next
	// zone.
	zi := 0
	for i := 0; i < len(page.Blocks) && zi < len(zones); i++ {
		if page.Blocks[i].Type == document.BlockMRZ || !looksLikeMRZLine(page.Blocks[i].Text) {
			continue
		}
		page.Blocks[i].Type = document.BlockMRZ
		page.Blocks[i].Meta.MRZ = &zones[zi]

		rest := 1
		if zones[zi].Format == document.MRZTD1 {
			rest = 2
		}
		zi++
		for i++; i < len(page.Blocks) && rest > 0; i++ {
			if looksLikeMRZLine(page.Blocks[i].Text) {
				rest--
			}
		}
		i--
	}
}

func looksLikeMRZLine(s string) bool {
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if n := len(s); n != 30 && n != 36 && n != 44 {
		return false
	}
	return strings.Contains(s, "<")
}
