package ports

import (
	"context"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// CreateUserInput carries the columns of a new users row.
type CreateUserInput struct {
	Name  string
	Age   *int
	Email string
}

// UpdateUserInput carries a partial update. Nil fields are left untouched.
type UpdateUserInput struct {
	Name  *string
	Age   *int
	Email *string
}

// IsEmpty reports whether no field is set.
func (in UpdateUserInput) IsEmpty() bool {
	return in.Name == nil && in.Age == nil && in.Email == nil
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	// List returns every user with AllergyCount populated, ordered by name.
	List(ctx context.Context) ([]domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	Create(ctx context.Context, in CreateUserInput) (*domain.User, error)
	// Update applies the non-nil fields and returns the refreshed row.
	Update(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error)
	// Delete removes the user; relationship rows go with it through the
	// foreign key cascade.
	Delete(ctx context.Context, id int64) error
}
