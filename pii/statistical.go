package pii

import (
	"regexp"
	"strings"
)

// StatisticalDetector finds likely names, organizations and locations from
// lexical shape and nearby context words. It is deliberately conservative:
// its confidences sit below the pattern layer's so a regex hit on the same
// span wins the merge.
type StatisticalDetector struct{}

func NewStatisticalDetector() *StatisticalDetector {
	return &StatisticalDetector{}
}

var (
	capitalizedSeq = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+){1,3}\b`)

	nameContext = []string{"name", "mr", "mrs", "ms", "dr", "patient", "applicant", "attn", "contact", "signed", "dear"}
	orgContext  = []string{"inc", "llc", "ltd", "corp", "company", "gmbh"}
	locContext  = []string{"city", "state", "country", "province", "county"}

	orgSuffix = regexp.MustCompile(`\b[A-Z][A-Za-z&.\s]{2,40}\s(?:Inc|LLC|Ltd|Corp|GmbH|Co)\.?\b`)
)

// commonWords are capitalized sequences that are sentence furniture, not
// entities.
var commonWords = map[string]bool{
	"The": true, "This": true, "That": true, "These": true, "Those": true,
	"United States": true, "New": true, "Dear Sir": true,
}

func (d *StatisticalDetector) Detect(text string) []candidate {
	var out []candidate

	for _, loc := range orgSuffix.FindAllStringIndex(text, -1) {
		out = append(out, candidate{
			Type:       EntityOrg,
			Start:      loc[0],
			End:        loc[1],
			Value:      text[loc[0]:loc[1]],
			Confidence: 0.65,
			Source:     SourceStatistical,
		})
	}

	for _, loc := range capitalizedSeq.FindAllStringIndex(text, -1) {
		value := text[loc[0]:loc[1]]
		if commonWords[value] || commonWords[strings.Split(value, " ")[0]] {
			continue
		}
		conf := 0.45
		ctx := strings.ToLower(contextBefore(text, loc[0], 24))
		switch {
		case hasAny(ctx, nameContext):
			conf = 0.70
		case hasAny(ctx, locContext):
			out = append(out, candidate{
				Type: EntityLocation, Start: loc[0], End: loc[1],
				Value: value, Confidence: 0.65, Source: SourceStatistical,
			})
			continue
		case hasAny(ctx, orgContext):
			continue // covered by the suffix pattern
		}
		out = append(out, candidate{
			Type:       EntityName,
			Start:      loc[0],
			End:        loc[1],
			Value:      value,
			Confidence: conf,
			Source:     SourceStatistical,
		})
	}

	return out
}

func contextBefore(text string, pos, width int) string {
	start := pos - width
	if start < 0 {
		start = 0
	}
	return text[start:pos]
}

func hasAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
