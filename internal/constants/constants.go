package constants

import "time"

// Scanned-page classification defaults. A PDF page with less stripped text
// than ScanTextLengthThreshold runes, or whose text spans cover less than
// ScanTextAreaRatio of the page area, is treated as scanned.
const (
	ScanTextLengthThreshold = 100
	ScanTextAreaRatio       = 0.01
)

// RasterDPI is the resolution scanned pages are rasterized at before OCR.
const RasterDPI = 300

// OCR pool defaults. The pool size is independent of caller concurrency.
const (
	DefaultOCRWorkers     = 4
	DefaultOCRPageTimeout = 120 * time.Second
)

// MinDetectionConfidence is applied to merged PII candidates; anything below
// is dropped from the final entity set.
const MinDetectionConfidence = 0.5

// DefaultMaskChar fills masked spans when no other mask rune is configured.
const DefaultMaskChar = 'X'
