// Package document defines the canonical page/block model every pipeline
// stage consumes and produces. A Document and its Page/TextBlock tree is
// owned exclusively by the pipeline invocation processing it; derived
// artifacts (PII entities, redaction actions) reference blocks by index,
// never by pointer.
package document

import (
	"encoding/json"
	"fmt"
)

// Format identifies a supported input document format.
type Format string

const (
	FormatPDF     Format = "pdf"
	FormatDOCX    Format = "docx"
	FormatXLSX    Format = "xlsx"
	FormatImage   Format = "image"
	FormatUnknown Format = "unknown"
)

// BlockType records where a text block's content came from.
type BlockType string

const (
	BlockText BlockType = "text" // native text layer
	BlockOCR  BlockType = "ocr"  // OCR recognition
	BlockMRZ  BlockType = "mrz"  // parsed machine-readable zone
)

// BBox is an axis-aligned bounding box (x1,y1,x2,y2) in page coordinates.
// A valid box satisfies 0 <= X1 < X2 <= page width and 0 <= Y1 < Y2 <= height.
type BBox struct {
	X1 float64
	Y1 float64
	X2 float64
	Y2 float64
}

// MarshalJSON encodes the box in the canonical [x1,y1,x2,y2] array form.
func (b BBox) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]float64{b.X1, b.Y1, b.X2, b.Y2})
}

func (b *BBox) UnmarshalJSON(data []byte) error {
	var v [4]float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*b = BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}
	return nil
}

// Valid reports whether the box is well-formed within a w x h page.
func (b BBox) Valid(w, h float64) bool {
	return b.X1 >= 0 && b.X1 < b.X2 && b.X2 <= w &&
		b.Y1 >= 0 && b.Y1 < b.Y2 && b.Y2 <= h
}

// Width returns x2-x1.
func (b BBox) Width() float64 { return b.X2 - b.X1 }

// Height returns y2-y1.
func (b BBox) Height() float64 { return b.Y2 - b.Y1 }

// Area returns the covered area.
func (b BBox) Area() float64 { return b.Width() * b.Height() }

// Scale returns the box scaled by factor s around the origin.
func (b BBox) Scale(s float64) BBox {
	return BBox{X1: b.X1 * s, Y1: b.Y1 * s, X2: b.X2 * s, Y2: b.Y2 * s}
}

// Clamp restricts the box to a w x h page.
func (b BBox) Clamp(w, h float64) BBox {
	c := b
	if c.X1 < 0 {
		c.X1 = 0
	}
	if c.Y1 < 0 {
		c.Y1 = 0
	}
	if c.X2 > w {
		c.X2 = w
	}
	if c.Y2 > h {
		c.Y2 = h
	}
	return c
}

// BlockMeta carries the positional metadata needed to reconstruct reading
// order, plus the parsed MRZ payload for MRZ blocks.
type BlockMeta struct {
	BlockNum int      `json:"block_num"`
	LineNum  int      `json:"line_num"`
	WordNum  int      `json:"word_num"`
	MRZ      *MRZData `json:"mrz_data"` // explicit null when absent
}

// TextBlock is one unit of extracted text with its position and provenance.
type TextBlock struct {
	Text       string    `json:"text"`
	BBox       BBox      `json:"bbox"`
	Confidence float64   `json:"conf"`
	Type       BlockType `json:"type"`
	Meta       BlockMeta `json:"metadata"`
}

// Page is one page of a document. For scanned pages every block originates
// from OCR or MRZ detection, never from a native text layer.
type Page struct {
	Number    int // 1-based
	Width     float64
	Height    float64
	Rotation  int // 0, 90, 180 or 270 as declared by the source
	IsScanned bool
	Blocks    []TextBlock

	// ExtractError marks a page whose extraction failed; the page stays in
	// the document with zero blocks so page numbering is preserved.
	ExtractError string
}

// pageInfo is the nested layout object of the canonical JSON shape.
type pageInfo struct {
	Width     float64 `json:"width"`
	Height    float64 `json:"height"`
	Rotation  int     `json:"rotation"`
	IsScanned bool    `json:"is_scanned"`
}

type pageJSON struct {
	Number       int         `json:"page"`
	Blocks       []TextBlock `json:"text_blocks"`
	PageInfo     pageInfo    `json:"page_info"`
	ExtractError string      `json:"extract_error,omitempty"`
}

// MarshalJSON emits the canonical extraction shape: layout metadata nested
// under page_info, blocks under text_blocks.
func (p Page) MarshalJSON() ([]byte, error) {
	blocks := p.Blocks
	if blocks == nil {
		blocks = []TextBlock{}
	}
	return json.Marshal(pageJSON{
		Number: p.Number,
		Blocks: blocks,
		PageInfo: pageInfo{
			Width:     p.Width,
			Height:    p.Height,
			Rotation:  p.Rotation,
			IsScanned: p.IsScanned,
		},
		ExtractError: p.ExtractError,
	})
}

func (p *Page) UnmarshalJSON(data []byte) error {
	var pj pageJSON
	if err := json.Unmarshal(data, &pj); err != nil {
		return err
	}
	*p = Page{
		Number:       pj.Number,
		Width:        pj.PageInfo.Width,
		Height:       pj.PageInfo.Height,
		Rotation:     pj.PageInfo.Rotation,
		IsScanned:    pj.PageInfo.IsScanned,
		Blocks:       pj.Blocks,
		ExtractError: pj.ExtractError,
	}
	return nil
}

// Text joins the page's block texts in block order, newline separated.
func (p *Page) Text() string {
	out := ""
	for i, b := range p.Blocks {
		if i > 0 {
			out += "\n"
		}
		out += b.Text
	}
	return out
}

// Document is the root of the extraction output.
type Document struct {
	ID     string `json:"id"`
	Format Format `json:"format"`
	Pages  []Page `json:"pages"`
}

// Page returns the 1-based page n, or nil when out of range.
func (d *Document) Page(n int) *Page {
	if n < 1 || n > len(d.Pages) {
		return nil
	}
	return &d.Pages[n-1]
}

// Clone returns a deep copy of the document. Redaction works on a clone so
// a failure mid-way never leaves a half-redacted original.
func (d *Document) Clone() *Document {
	out := &Document{ID: d.ID, Format: d.Format, Pages: make([]Page, len(d.Pages))}
	for i, p := range d.Pages {
		cp := p
		cp.Blocks = make([]TextBlock, len(p.Blocks))
		copy(cp.Blocks, p.Blocks)
		for j := range cp.Blocks {
			if m := cp.Blocks[j].Meta.MRZ; m != nil {
				mc := *m
				mc.ChecksumOK = make(map[string]bool, len(m.ChecksumOK))
				for k, v := range m.ChecksumOK {
					mc.ChecksumOK[k] = v
				}
				cp.Blocks[j].Meta.MRZ = &mc
			}
		}
		out.Pages[i] = cp
	}
	return out
}

// BlockRef addresses a block by position instead of pointer, so derived
// artifacts stay valid across copies of the tree.
type BlockRef struct {
	Page  int `json:"page"`  // 1-based
	Block int `json:"block"` // index into Page.Blocks
}

func (r BlockRef) String() string { return fmt.Sprintf("p%d/b%d", r.Page, r.Block) }

// Resolve returns the referenced block, or nil when the reference is stale.
func (d *Document) Resolve(r BlockRef) *TextBlock {
	p := d.Page(r.Page)
	if p == nil || r.Block < 0 || r.Block >= len(p.Blocks) {
		return nil
	}
	return &p.Blocks[r.Block]
}
