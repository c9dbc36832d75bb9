package ports

import (
	"context"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// UserProfile is a user together with the allergies assigned to it.
type UserProfile struct {
	User      domain.User
	Allergies []domain.UserAllergyDetail
}

// UserService defines use-case operations for users.
type UserService interface {
	ListUsers(ctx context.Context) ([]domain.User, error)
	GetUser(ctx context.Context, id int64) (*UserProfile, error)
	CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error)
	UpdateUser(ctx context.Context, id int64, in UpdateUserInput) (*domain.User, error)
	DeleteUser(ctx context.Context, id int64) error
}

// AllergyService defines use-case operations for allergies.
type AllergyService interface {
	ListAllergies(ctx context.Context) ([]domain.Allergy, error)
	GetAllergy(ctx context.Context, id int64) (*domain.Allergy, error)
	CreateAllergy(ctx context.Context, in CreateAllergyInput) (*domain.Allergy, error)
	UpdateAllergy(ctx context.Context, id int64, in UpdateAllergyInput) (*domain.Allergy, error)
	DeleteAllergy(ctx context.Context, id int64) error
}

// RelationshipService manages the links between users and allergies.
type RelationshipService interface {
	AssignAllergy(ctx context.Context, userID int64, in AssignAllergyInput) (*domain.UserAllergy, error)
	ListAllergiesForUser(ctx context.Context, userID int64) ([]domain.UserAllergyDetail, error)
	ListUsersForAllergy(ctx context.Context, allergyID int64) ([]domain.AllergyUserDetail, error)
	RemoveAssignment(ctx context.Context, userID, allergyID int64) error
	RemoveAllForUser(ctx context.Context, userID int64) (int64, error)
	RemoveAllForAllergy(ctx context.Context, allergyID int64) (int64, error)
}

// StatsService serves aggregate reports.
type StatsService interface {
	UserAllergyCounts(ctx context.Context) ([]domain.UserAllergyCount, error)
	AllergyStats(ctx context.Context) ([]domain.AllergyStat, error)
}
