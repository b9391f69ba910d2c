package pii

import (
	"strings"

	"docscrub/document"
)

// MRZDetector turns parsed machine-readable zone data into entities. It does
// not re-scan text; it consumes the structured data the normalizer attached
// to MRZ blocks. Confidence is fixed high when the relevant check digit
// verified and reduced when it did not, so a checksum failure degrades the
// claim instead of erasing it.
type MRZDetector struct{}

func NewMRZDetector() *MRZDetector {
	return &MRZDetector{}
}

const (
	mrzConfidenceVerified = 0.98
	mrzConfidenceDegraded = 0.75
)

// DetectBlock extracts entities from one MRZ block. Spans are anchored into
// the block's raw text where the field value is locatable; fields whose
// parsed form differs from the raw zone (dates, assembled names) span the
// whole block.
func (d *MRZDetector) DetectBlock(ref document.BlockRef, block document.TextBlock) []Entity {
	data := block.Meta.MRZ
	if data == nil {
		return nil
	}

	var out []Entity
	add := func(t EntityType, value, checksumKey string) {
		if value == "" {
			return
		}
		conf := mrzConfidenceVerified
		if checksumKey != "" {
			if ok, present := data.ChecksumOK[checksumKey]; present && !ok {
				conf = mrzConfidenceDegraded
			}
		}
		start, end := locate(block.Text, value)
		out = append(out, Entity{
			Type:       t,
			Block:      ref,
			Start:      start,
			End:        end,
			Value:      value,
			Confidence: conf,
			Source:     SourceMRZ,
		})
	}

	add(EntityPassport, data.DocumentNumber, "document_number")
	add(EntityDateOfBirth, data.BirthDate, "birth_date")
	add(EntityDate, data.ExpiryDate, "expiry_date")
	add(EntityName, fullName(data.PrimaryName, data.SecondaryName), "")
	if data.PersonalNumber != "" {
		add(EntityMRN, data.PersonalNumber, "personal_number")
	}
	return out
}

func fullName(primary, secondary string) string {
	switch {
	case primary == "":
		return secondary
	case secondary == "":
		return primary
	default:
		return secondary + " " + primary
	}
}

// locate finds the value inside the raw zone text, falling back to the whole
// block when the parsed form no longer matches the raw characters.
func locate(text, value string) (int, int) {
	upper := strings.ToUpper(text)
	probe := strings.ToUpper(strings.ReplaceAll(value, " ", "<"))
	if idx := strings.Index(upper, probe); idx >= 0 {
		return idx, idx + len(probe)
	}
	if idx := strings.Index(upper, strings.ToUpper(value)); idx >= 0 {
		return idx, idx + len(value)
	}
	// First word of the value is usually intact in the zone.
	if first := strings.Split(strings.ToUpper(value), " "); len(first) > 0 && first[0] != "" {
		if idx := strings.Index(upper, first[0]); idx >= 0 {
			return idx, idx + len(first[0])
		}
	}
	return 0, len(text)
}
