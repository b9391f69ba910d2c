// Package pii finds personally identifiable information in normalized
// documents. Several detectors run over the same text (regex patterns,
// lexical statistics, parsed machine-readable zones and optionally an LLM)
// and their candidates are merged into one non-overlapping entity list per
// block, keeping the most confident claim for each span.
package pii

import (
	"github.com/sirupsen/logrus"

	"docscrub/document"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the pii package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// EntityType names a category of personal data. The set is open: custom
// patterns may introduce new types without code changes.
type EntityType string

const (
	EntityName        EntityType = "name"
	EntityEmail       EntityType = "email"
	EntityPhone       EntityType = "phone"
	EntitySSN         EntityType = "ssn"
	EntityCreditCard  EntityType = "credit_card"
	EntityMRN         EntityType = "mrn"
	EntityPassport    EntityType = "passport"
	EntityIPAddress   EntityType = "ip_address"
	EntityDateOfBirth EntityType = "date_of_birth"
	EntityIBAN        EntityType = "iban"
	EntityURL         EntityType = "url"
	EntityAddress     EntityType = "address"
	EntityOrg         EntityType = "organization"
	EntityLocation    EntityType = "location"
	EntityDate        EntityType = "date"
)

// Source identifies which detection layer produced an entity. When two
// candidates tie on confidence, sources rank mrz > pattern > statistical.
type Source string

const (
	SourcePattern     Source = "pattern"
	SourceStatistical Source = "statistical"
	SourceMRZ         Source = "mrz"
)

func sourceRank(s Source) int {
	switch s {
	case SourceMRZ:
		return 3
	case SourcePattern:
		return 2
	case SourceStatistical:
		return 1
	default:
		return 0
	}
}

// Entity is one detected span of personal data, anchored to a block by
// byte offsets into the block's text.
type Entity struct {
	Type       EntityType        `json:"type"`
	Block      document.BlockRef `json:"block"`
	Start      int               `json:"start"`
	End        int               `json:"end"`
	Value      string            `json:"value"`
	Confidence float64           `json:"confidence"`
	Source     Source            `json:"source"`
}

func (e Entity) overlaps(o Entity) bool {
	return e.Block == o.Block && e.Start < o.End && o.Start < e.End
}

// candidate is a detector hit before it is anchored to a block.
type candidate struct {
	Type       EntityType
	Start      int
	End        int
	Value      string
	Confidence float64
	Source     Source
}
