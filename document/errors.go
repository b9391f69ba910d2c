package document

import "fmt"

// Error taxonomy for the pipeline. Document-level errors are fatal for the
// document they name; page-level conditions degrade to an ExtractError marker
// on the page instead. None of these messages may carry detected PII values.

// UnsupportedFormatError reports an input whose content signature matches no
// supported format.
type UnsupportedFormatError struct {
	Detected string // MIME type as detected, may be empty
}

func (e *UnsupportedFormatError) Error() string {
	if e.Detected == "" {
		return "unsupported document format"
	}
	return fmt.Sprintf("unsupported document format: %s", e.Detected)
}

// FormatMismatchError reports a claimed type contradicted by the content
// signature. The claim is never silently trusted.
type FormatMismatchError struct {
	Claimed  string
	Detected string
}

func (e *FormatMismatchError) Error() string {
	return fmt.Sprintf("claimed format %q does not match detected content type %s", e.Claimed, e.Detected)
}

// CorruptFileError reports a container the format parser cannot open. Fatal
// for this document only; other documents in a batch continue.
type CorruptFileError struct {
	Format Format
	Err    error
}

func (e *CorruptFileError) Error() string {
	return fmt.Sprintf("corrupt %s file: %v", e.Format, e.Err)
}

func (e *CorruptFileError) Unwrap() error { return e.Err }

// PageExtractionError reports a single unreadable page. Recoverable: the
// page is marked and document processing continues.
type PageExtractionError struct {
	Page int
	Err  error
}

func (e *PageExtractionError) Error() string {
	return fmt.Sprintf("page %d extraction failed: %v", e.Page, e.Err)
}

func (e *PageExtractionError) Unwrap() error { return e.Err }

// OCRTimeoutError reports OCR exceeding its per-page time limit. Recoverable
// per page.
type OCRTimeoutError struct {
	Page int
}

func (e *OCRTimeoutError) Error() string {
	return fmt.Sprintf("OCR timed out on page %d", e.Page)
}

// OCRFailure reports a non-timeout OCR error on one page.
type OCRFailure struct {
	Page int
	Err  error
}

func (e *OCRFailure) Error() string {
	return fmt.Sprintf("OCR failed on page %d: %v", e.Page, e.Err)
}

func (e *OCRFailure) Unwrap() error { return e.Err }

// RedactionStrategyError reports an unmapped or invalid strategy for an
// entity type that must be redacted. Fatal: an incomplete redaction is worse
// than none, so no partial output is produced.
type RedactionStrategyError struct {
	EntityType string
	Strategy   string
}

func (e *RedactionStrategyError) Error() string {
	return fmt.Sprintf("invalid redaction strategy %q for entity type %q", e.Strategy, e.EntityType)
}

// ComplianceEvaluationError reports a malformed framework rule set. Fatal
// for that compliance check only.
type ComplianceEvaluationError struct {
	Framework string
	Err       error
}

func (e *ComplianceEvaluationError) Error() string {
	return fmt.Sprintf("compliance evaluation for %s failed: %v", e.Framework, e.Err)
}

func (e *ComplianceEvaluationError) Unwrap() error { return e.Err }
