package domain

// User is a person whose allergies are tracked.
type User struct {
	ID    int64  `json:"user_id"`
	Name  string `json:"name"`
	Age   *int   `json:"age"`
	Email string `json:"email"`

	// AllergyCount is only populated by list queries.
	AllergyCount int `json:"allergy_count"`
}
