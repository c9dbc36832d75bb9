package domain

// UserAllergyCount is the number of allergies linked to a user.
type UserAllergyCount struct {
	UserID       int64  `json:"user_id"`
	Name         string `json:"name"`
	AllergyCount int    `json:"allergy_count"`
}

// AllergyStat aggregates the users affected by one allergy. AverageAge is
// nil when no affected user has a recorded age.
type AllergyStat struct {
	AllergyID     int64    `json:"allergy_id"`
	Name          string   `json:"name"`
	Severity      string   `json:"severity"`
	AffectedUsers int      `json:"affected_users"`
	AverageAge    *float64 `json:"average_age_affected"`
}
