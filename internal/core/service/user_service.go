package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

type UserService struct {
	users  ports.UserRepository
	links  ports.RelationshipRepository
	hooks  SideEffects
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, links ports.RelationshipRepository, hooks SideEffects, logger zerolog.Logger) *UserService {
	return &UserService{users: users, links: links, hooks: hooks, logger: logger}
}

func (s *UserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// GetUser returns the user together with its assigned allergies.
func (s *UserService) GetUser(ctx context.Context, id int64) (*ports.UserProfile, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	allergies, err := s.links.ListAllergiesForUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return &ports.UserProfile{User: *user, Allergies: allergies}, nil
}

// CreateUser requires a non-empty name and email; age, when given, must
// not be negative.
func (s *UserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)

	if in.Name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if in.Email == "" {
		return nil, domain.NewValidationError("email", "is required")
	}
	if in.Age != nil && *in.Age < 0 {
		return nil, domain.NewValidationError("age", "must not be negative")
	}

	user, err := s.users.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Msg("user created")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:     domain.EntityUser,
		EntityID:   user.ID,
		Action:     domain.ActionCreated,
		Attributes: map[string]string{"name": user.Name, "email": user.Email},
	})
	return user, nil
}

// UpdateUser applies a partial update. At least one field must be set.
func (s *UserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	if in.IsEmpty() {
		return nil, domain.NewValidationError("", "no valid fields to update")
	}
	in.Name = trimmed(in.Name)
	in.Email = trimmed(in.Email)

	if in.Name != nil && *in.Name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if in.Email != nil && *in.Email == "" {
		return nil, domain.NewValidationError("email", "must not be empty")
	}
	if in.Age != nil && *in.Age < 0 {
		return nil, domain.NewValidationError("age", "must not be negative")
	}

	user, err := s.users.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", id).Msg("user updated")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:     domain.EntityUser,
		EntityID:   id,
		Action:     domain.ActionUpdated,
		Attributes: userChanges(in),
	})
	return user, nil
}

// DeleteUser removes the user and, through the cascade, all of its
// allergy assignments.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", id).Msg("user deleted")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:   domain.EntityUser,
		EntityID: id,
		Action:   domain.ActionDeleted,
	})
	return nil
}

func userChanges(in ports.UpdateUserInput) map[string]string {
	attrs := make(map[string]string, 3)
	if in.Name != nil {
		attrs["name"] = *in.Name
	}
	if in.Age != nil {
		attrs["age"] = strconv.Itoa(*in.Age)
	}
	if in.Email != nil {
		attrs["email"] = *in.Email
	}
	return attrs
}

// trimmed returns a trimmed copy of *p so the caller's value is untouched.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}
