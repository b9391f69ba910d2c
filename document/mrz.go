package document

// MRZFormat names a standardized machine-readable-zone layout.
type MRZFormat string

const (
	MRZTD1  MRZFormat = "TD1"  // 3 lines x 30, ID cards
	MRZTD2  MRZFormat = "TD2"  // 2 lines x 36, older ID documents
	MRZTD3  MRZFormat = "TD3"  // 2 lines x 44, passports
	MRZMRVA MRZFormat = "MRVA" // 2 lines x 44, visa type A
	MRZMRVB MRZFormat = "MRVB" // 2 lines x 36, visa type B
)

// MRZData holds the fields parsed out of a machine-readable zone. Dates stay
// in the raw YYMMDD form the zone encodes. ChecksumOK records the per-field
// check-digit outcome; a false flag means the digit did not verify, not that
// the field value is absent.
type MRZData struct {
	Format         MRZFormat       `json:"format"`
	DocumentCode   string          `json:"document_code"`
	IssuingCountry string          `json:"issuing_country"`
	PrimaryName    string          `json:"primary_name"`
	SecondaryName  string          `json:"secondary_name,omitempty"`
	DocumentNumber string          `json:"document_number"`
	Nationality    string          `json:"nationality"`
	BirthDate      string          `json:"birth_date"`
	Sex            string          `json:"sex"`
	ExpiryDate     string          `json:"expiry_date"`
	PersonalNumber string          `json:"personal_number,omitempty"`
	ChecksumOK     map[string]bool `json:"checksum_ok"`
}

// Valid reports whether every checked field verified.
func (m *MRZData) Valid() bool {
	for _, ok := range m.ChecksumOK {
		if !ok {
			return false
		}
	}
	return len(m.ChecksumOK) > 0
}
