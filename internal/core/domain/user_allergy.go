package domain

import "time"

// UserAllergy links exactly one user to one allergy. The (UserID, AllergyID)
// pair is unique and the row is removed when either parent is deleted.
type UserAllergy struct {
	ID            int64
	UserID        int64
	AllergyID     int64
	Notes         *string
	DiagnosedDate *time.Time
}

// UserAllergyDetail is a relationship row joined with its allergy.
type UserAllergyDetail struct {
	AllergyID     int64
	Name          string
	Severity      string
	Description   *string
	Notes         *string
	DiagnosedDate *time.Time
}

// AllergyUserDetail is a relationship row joined with its user.
type AllergyUserDetail struct {
	UserID        int64
	Name          string
	Age           *int
	Email         string
	Notes         *string
	DiagnosedDate *time.Time
}

// DateLayout is the wire format of DiagnosedDate.
const DateLayout = "2006-01-02"

// ParseDiagnosedDate parses a YYYY-MM-DD calendar date. An empty string
// yields nil.
func ParseDiagnosedDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, NewValidationError("diagnosed_date", "must be a date in YYYY-MM-DD format")
	}
	return &t, nil
}
