// Package extract turns raw document bytes into the canonical page/block
// tree. It dispatches on content signature, pulls native text layers where
// they exist, classifies scanned PDF pages and rasterizes them for OCR, and
// normalizes every source into corrected page coordinates with a strict
// reading order.
package extract

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	"docscrub/document"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the extract package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// DetectFormat classifies raw bytes by content signature. The claimed type
// (extension or MIME string, as supplied with the upload) is verified against
// the signature: a supported claim that contradicts the detected signature is
// a FormatMismatchError, an unrecognized signature an UnsupportedFormatError.
// Classification has no side effects.
func DetectFormat(data []byte, claimed string) (document.Format, error) {
	mtype := mimetype.Detect(data)
	detected := formatForMIME(mtype)

	log.WithFields(logrus.Fields{
		"mime_type": mtype.String(),
		"claimed":   claimed,
	}).Debug("Detected content type")

	if detected == document.FormatUnknown {
		return document.FormatUnknown, &document.UnsupportedFormatError{Detected: mtype.String()}
	}
	if claim := formatForClaim(claimed); claim != document.FormatUnknown && claim != detected {
		return document.FormatUnknown, &document.FormatMismatchError{Claimed: claimed, Detected: mtype.String()}
	}
	return detected, nil
}

func formatForMIME(m *mimetype.MIME) document.Format {
	switch {
	case m.Is("application/pdf"):
		return document.FormatPDF
	case m.Is("application/vnd.openxmlformats-officedocument.wordprocessingml.document"):
		return document.FormatDOCX
	case m.Is("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"):
		return document.FormatXLSX
	case m.Is("image/jpeg"), m.Is("image/png"), m.Is("image/tiff"), m.Is("image/bmp"):
		return document.FormatImage
	default:
		return document.FormatUnknown
	}
}

// formatForClaim maps a caller-declared extension or MIME string onto a
// format. Claims we cannot interpret are ignored rather than failed: the
// signature is authoritative either way.
func formatForClaim(claimed string) document.Format {
	c := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(claimed), "."))
	switch c {
	case "pdf", "application/pdf":
		return document.FormatPDF
	case "docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return document.FormatDOCX
	case "xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":
		return document.FormatXLSX
	case "jpg", "jpeg", "png", "tiff", "tif", "bmp",
		"image/jpeg", "image/png", "image/tiff", "image/bmp":
		return document.FormatImage
	default:
		return document.FormatUnknown
	}
}
