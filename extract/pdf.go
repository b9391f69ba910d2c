package extract

import (
	"context"
	"html"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/gen2brain/go-fitz"
	"golang.org/x/sync/errgroup"

	"docscrub/document"
	"docscrub/internal/constants"
)

// ScanConfig controls scanned-page classification.
type ScanConfig struct {
	// TextLengthThreshold: pages with fewer stripped runes of native text are
	// treated as scanned.
	TextLengthThreshold int
	// TextAreaRatio: pages whose native text spans cover less than this
	// fraction of the page area are treated as scanned.
	TextAreaRatio float64
	// RasterDPI is the render resolution for scanned pages.
	RasterDPI float64
}

// DefaultScanConfig returns the documented classification defaults.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		TextLengthThreshold: constants.ScanTextLengthThreshold,
		TextAreaRatio:       constants.ScanTextAreaRatio,
		RasterDPI:           constants.RasterDPI,
	}
}

// PDFExtractor extracts the native text layer per page, classifies scanned
// pages by text coverage and rasterizes them for OCR.
type PDFExtractor struct {
	Scan ScanConfig
}

// pdfPoints is the PDF coordinate resolution; raster scale is DPI/pdfPoints.
const pdfPoints = 72.0

// Extract processes every page in parallel. Page order in the result is the
// source order regardless of completion order. A failing page degrades to an
// empty page with an ExtractError marker; only an unopenable container is
// fatal for the document.
func (e *PDFExtractor) Extract(ctx context.Context, data []byte) (*Result, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &document.CorruptFileError{Format: document.FormatPDF, Err: err}
	}
	defer doc.Close()

	total := doc.NumPage()
	pages := make([]document.Page, total)
	rasters := make([]*Raster, total)

	// libmupdf is not thread-safe; serialize calls into the document handle
	// while keeping per-page post-processing parallel.
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	for n := 0; n < total; n++ {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page, raster := e.extractPage(doc, &mu, n)
			pages[n] = page
			rasters[n] = raster
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &Result{Pages: pages}
	for _, r := range rasters {
		if r != nil {
			res.Rasters = append(res.Rasters, *r)
		}
	}
	return res, nil
}

func (e *PDFExtractor) extractPage(doc *fitz.Document, mu *sync.Mutex, n int) (document.Page, *Raster) {
	pageLog := log.WithField("page", n+1)

	mu.Lock()
	bound, boundErr := doc.Bound(n)
	text, textErr := doc.Text(n)
	markup, htmlErr := doc.HTML(n, false)
	mu.Unlock()

	page := document.Page{Number: n + 1}
	if boundErr != nil {
		pageLog.WithError(boundErr).Warn("Failed to read page bounds")
		page.Width, page.Height = 612, 792
		page.ExtractError = (&document.PageExtractionError{Page: n + 1, Err: boundErr}).Error()
		return page, nil
	}
	page.Width = float64(bound.Dx())
	page.Height = float64(bound.Dy())

	if textErr != nil {
		pageLog.WithError(textErr).Warn("Failed to extract page text")
		page.ExtractError = (&document.PageExtractionError{Page: n + 1, Err: textErr}).Error()
		return page, nil
	}

	var blocks []document.TextBlock
	if htmlErr == nil {
		blocks = parsePositionedBlocks(markup, page.Width, page.Height)
	}
	if len(blocks) == 0 {
		blocks = syntheticLineBlocks(text, page.Width, page.Height)
	}
	page.Blocks = blocks
	page.IsScanned = e.isScanned(text, blocks, page.Width*page.Height)

	if !page.IsScanned {
		return page, nil
	}

	// Scanned page: drop incidental native fragments so every block on the
	// page originates from OCR or MRZ detection, then rasterize.
	page.Blocks = nil

	mu.Lock()
	img, imgErr := doc.ImageDPI(n, e.Scan.RasterDPI)
	mu.Unlock()
	if imgErr != nil {
		pageLog.WithError(imgErr).Warn("Rasterization failed")
		page.ExtractError = (&document.PageExtractionError{Page: n + 1, Err: imgErr}).Error()
		return page, nil
	}
	return page, &Raster{Page: n + 1, Image: img, Scale: e.Scan.RasterDPI / pdfPoints}
}

// isScanned applies the two-stage classification: too little text, or text
// covering too small a share of the page area.
func (e *PDFExtractor) isScanned(text string, blocks []document.TextBlock, pageArea float64) bool {
	if len(strings.TrimSpace(text)) < e.Scan.TextLengthThreshold {
		return true
	}
	if pageArea <= 0 {
		return false
	}
	var textArea float64
	for _, b := range blocks {
		textArea += b.BBox.Area()
	}
	return textArea/pageArea < e.Scan.TextAreaRatio
}

// MuPDF's HTML output positions each line absolutely:
//
//	<p style="top:70.5pt;left:108.0pt;line-height:11.6pt;">...</p>
var positionedLineRe = regexp.MustCompile(`(?s)<p style="top:([0-9.]+)pt;left:([0-9.]+)pt;line-height:([0-9.]+)pt;?[^"]*">(.*?)</p>`)

var tagRe = regexp.MustCompile(`<[^>]+>`)

// parsePositionedBlocks recovers line-level blocks with layout-metadata
// positions from the page's HTML rendering. Line width is estimated from the
// glyph count at the line height, clamped to the page.
func parsePositionedBlocks(markup string, w, h float64) []document.TextBlock {
	matches := positionedLineRe.FindAllStringSubmatch(markup, -1)
	blocks := make([]document.TextBlock, 0, len(matches))
	for _, m := range matches {
		top, _ := strconv.ParseFloat(m[1], 64)
		left, _ := strconv.ParseFloat(m[2], 64)
		lineHeight, _ := strconv.ParseFloat(m[3], 64)
		text := strings.TrimSpace(html.UnescapeString(tagRe.ReplaceAllString(m[4], "")))
		if text == "" {
			continue
		}
		if lineHeight <= 0 {
			lineHeight = 12
		}
		width := float64(len([]rune(text))) * lineHeight * 0.5
		box := document.BBox{X1: left, Y1: top, X2: left + width, Y2: top + lineHeight}.Clamp(w, h)
		if !box.Valid(w, h) {
			continue
		}
		blocks = append(blocks, document.TextBlock{
			Text:       text,
			BBox:       box,
			Confidence: 1.0,
			Type:       document.BlockText,
		})
	}
	return blocks
}

// syntheticLineBlocks lays plain text lines down a default grid when no
// positioned rendering is available. Order still matches document order.
func syntheticLineBlocks(text string, w, h float64) []document.TextBlock {
	const lineHeight = 14.0
	lines := strings.Split(text, "\n")
	blocks := make([]document.TextBlock, 0, len(lines))
	y := 0.0
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			y += lineHeight
			continue
		}
		if y+lineHeight > h {
			y = h - lineHeight
		}
		width := float64(len([]rune(line))) * lineHeight * 0.5
		box := document.BBox{X1: 0, Y1: y, X2: width, Y2: y + lineHeight}.Clamp(w, h)
		if box.Valid(w, h) {
			blocks = append(blocks, document.TextBlock{
				Text:       line,
				BBox:       box,
				Confidence: 1.0,
				Type:       document.BlockText,
			})
		}
		y += lineHeight
	}
	return blocks
}
