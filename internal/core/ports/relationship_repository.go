package ports

import (
	"context"
	"time"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// AssignAllergyInput links a user to an allergy.
type AssignAllergyInput struct {
	AllergyID     int64
	Notes         *string
	DiagnosedDate *time.Time
}

// RelationshipRepository manages user_allergies rows.
type RelationshipRepository interface {
	// Assign verifies both parents exist and the pair is not yet linked, then
	// inserts the row, all in one transaction. It returns ErrUserNotFound,
	// ErrAllergyNotFound or ErrAllergyAlreadyAssigned on the matching failure.
	Assign(ctx context.Context, userID int64, in AssignAllergyInput) (*domain.UserAllergy, error)
	ListAllergiesForUser(ctx context.Context, userID int64) ([]domain.UserAllergyDetail, error)
	ListUsersForAllergy(ctx context.Context, allergyID int64) ([]domain.AllergyUserDetail, error)
	// Remove deletes a single link or returns ErrAssignmentNotFound.
	Remove(ctx context.Context, userID, allergyID int64) error
	// RemoveAllForUser and RemoveAllForAllergy are idempotent and return the
	// number of rows deleted.
	RemoveAllForUser(ctx context.Context, userID int64) (int64, error)
	RemoveAllForAllergy(ctx context.Context, allergyID int64) (int64, error)
}
