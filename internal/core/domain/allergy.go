package domain

// Well-known severities. Severity is stored as free text, so other values
// are accepted as-is.
const (
	SeverityMild     = "mild"
	SeverityModerate = "moderate"
	SeveritySevere   = "severe"

	DefaultSeverity = SeverityMild
)

// Allergy is a catalogue entry that users can be linked to.
type Allergy struct {
	ID          int64   `json:"allergy_id"`
	Name        string  `json:"name"`
	Severity    string  `json:"severity"`
	Description *string `json:"description"`

	// UserCount is only populated by list queries.
	UserCount int `json:"user_count"`
}
