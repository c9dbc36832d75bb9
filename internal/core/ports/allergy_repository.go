package ports

import (
	"context"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// CreateAllergyInput carries the columns of a new allergies row.
// An empty Severity is stored as domain.DefaultSeverity.
type CreateAllergyInput struct {
	Name        string
	Severity    string
	Description *string
}

// UpdateAllergyInput carries a partial update. Nil fields are left untouched.
type UpdateAllergyInput struct {
	Name        *string
	Severity    *string
	Description *string
}

// IsEmpty reports whether no field is set.
func (in UpdateAllergyInput) IsEmpty() bool {
	return in.Name == nil && in.Severity == nil && in.Description == nil
}

// AllergyRepository defines persistence operations for allergies.
type AllergyRepository interface {
	// List returns every allergy with UserCount populated, ordered by name.
	List(ctx context.Context) ([]domain.Allergy, error)
	FindByID(ctx context.Context, id int64) (*domain.Allergy, error)
	Create(ctx context.Context, in CreateAllergyInput) (*domain.Allergy, error)
	Update(ctx context.Context, id int64, in UpdateAllergyInput) (*domain.Allergy, error)
	Delete(ctx context.Context, id int64) error
}
