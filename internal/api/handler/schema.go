package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type createUserRequest struct {
	Name  string `json:"name"  validate:"required"`
	Age   *int   `json:"age"   validate:"omitempty,min=0"`
	Email string `json:"email" validate:"required"`
}

// updateUserRequest fields are optional; absent and null values leave the
// column untouched.
type updateUserRequest struct {
	Name  *string `json:"name"`
	Age   *int    `json:"age"   validate:"omitempty,min=0"`
	Email *string `json:"email"`
}

type createAllergyRequest struct {
	Name        string  `json:"name"     validate:"required"`
	Severity    string  `json:"severity"`
	Description *string `json:"description"`
}

type updateAllergyRequest struct {
	Name        *string `json:"name"`
	Severity    *string `json:"severity"`
	Description *string `json:"description"`
}

type assignAllergyRequest struct {
	AllergyID int64   `json:"allergy_id"     validate:"required,gt=0"`
	Notes     *string `json:"notes"`
	// DiagnosedDate is a calendar date, YYYY-MM-DD.
	DiagnosedDate string `json:"diagnosed_date"`
}

// --- Response types ---

type statusResponse struct {
	Status       string `json:"status"`
	DBConnection string `json:"db_connection"`
	Timestamp    string `json:"timestamp"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type removedResponse struct {
	Message string `json:"message"`
	Removed int64  `json:"removed"`
}

type userAllergyResponse struct {
	AllergyID     int64   `json:"allergy_id"`
	Name          string  `json:"name"`
	Severity      string  `json:"severity"`
	Description   *string `json:"description"`
	Notes         *string `json:"notes"`
	DiagnosedDate *string `json:"diagnosed_date"`
}

// userDetailResponse is the user row with its allergies embedded.
type userDetailResponse struct {
	UserID    int64                 `json:"user_id"`
	Name      string                `json:"name"`
	Age       *int                  `json:"age"`
	Email     string                `json:"email"`
	Allergies []userAllergyResponse `json:"allergies"`
}

type userResponse struct {
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
	Age    *int   `json:"age"`
	Email  string `json:"email"`
}

type allergyResponse struct {
	AllergyID   int64   `json:"allergy_id"`
	Name        string  `json:"name"`
	Severity    string  `json:"severity"`
	Description *string `json:"description"`
}

type allergyUserResponse struct {
	UserID        int64   `json:"user_id"`
	Name          string  `json:"name"`
	Age           *int    `json:"age"`
	Email         string  `json:"email"`
	Notes         *string `json:"notes"`
	DiagnosedDate *string `json:"diagnosed_date"`
}

type assignmentResponse struct {
	UserAllergyID int64   `json:"user_allergy_id"`
	UserID        int64   `json:"user_id"`
	AllergyID     int64   `json:"allergy_id"`
	Notes         *string `json:"notes"`
	DiagnosedDate *string `json:"diagnosed_date"`
}

type auditEventResponse struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	EntityID   int64             `json:"entity_id"`
	Action     string            `json:"action"`
	RelatedID  int64             `json:"related_id,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	OccurredAt string            `json:"occurred_at"`
}
