package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

type RelationshipService struct {
	users  ports.UserRepository
	links  ports.RelationshipRepository
	hooks  SideEffects
	logger zerolog.Logger
}

func NewRelationshipService(users ports.UserRepository, links ports.RelationshipRepository, hooks SideEffects, logger zerolog.Logger) *RelationshipService {
	return &RelationshipService{users: users, links: links, hooks: hooks, logger: logger}
}

// AssignAllergy links an allergy to a user. The existence and uniqueness
// checks run inside the repository transaction; a concurrent duplicate is
// rejected by the unique key and surfaces as ErrAllergyAlreadyAssigned.
func (s *RelationshipService) AssignAllergy(ctx context.Context, userID int64, in ports.AssignAllergyInput) (*domain.UserAllergy, error) {
	if in.AllergyID == 0 {
		return nil, domain.NewValidationError("allergy_id", "is required")
	}

	link, err := s.links.Assign(ctx, userID, in)
	if err != nil {
		if errors.Is(err, domain.ErrAllergyAlreadyAssigned) {
			s.logger.Debug().Int64("user_id", userID).Int64("allergy_id", in.AllergyID).Msg("duplicate assignment rejected")
		}
		return nil, err
	}

	attrs := map[string]string{}
	if link.DiagnosedDate != nil {
		attrs["diagnosed_date"] = link.DiagnosedDate.Format(domain.DateLayout)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Int64("allergy_id", in.AllergyID).
		Int64("user_allergy_id", link.ID).
		Msg("allergy assigned")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:     domain.EntityUser,
		EntityID:   userID,
		Action:     domain.ActionAllergyAssigned,
		RelatedID:  in.AllergyID,
		Attributes: attrs,
	})
	return link, nil
}

// ListAllergiesForUser returns ErrUserNotFound for an unknown user rather
// than an empty list.
func (s *RelationshipService) ListAllergiesForUser(ctx context.Context, userID int64) ([]domain.UserAllergyDetail, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	details, err := s.links.ListAllergiesForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list allergies for user %d: %w", userID, err)
	}
	return details, nil
}

func (s *RelationshipService) ListUsersForAllergy(ctx context.Context, allergyID int64) ([]domain.AllergyUserDetail, error) {
	details, err := s.links.ListUsersForAllergy(ctx, allergyID)
	if err != nil {
		return nil, fmt.Errorf("list users for allergy %d: %w", allergyID, err)
	}
	return details, nil
}

func (s *RelationshipService) RemoveAssignment(ctx context.Context, userID, allergyID int64) error {
	if err := s.links.Remove(ctx, userID, allergyID); err != nil {
		return err
	}

	s.logger.Info().Int64("user_id", userID).Int64("allergy_id", allergyID).Msg("allergy unassigned")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:    domain.EntityUser,
		EntityID:  userID,
		Action:    domain.ActionAllergyRemoved,
		RelatedID: allergyID,
	})
	return nil
}

// RemoveAllForUser is idempotent; removing nothing is not an error and
// emits no event.
func (s *RelationshipService) RemoveAllForUser(ctx context.Context, userID int64) (int64, error) {
	n, err := s.links.RemoveAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("remove assignments of user %d: %w", userID, err)
	}
	if n > 0 {
		s.cleared(ctx, domain.EntityUser, userID, n)
	}
	return n, nil
}

func (s *RelationshipService) RemoveAllForAllergy(ctx context.Context, allergyID int64) (int64, error) {
	n, err := s.links.RemoveAllForAllergy(ctx, allergyID)
	if err != nil {
		return 0, fmt.Errorf("remove assignments of allergy %d: %w", allergyID, err)
	}
	if n > 0 {
		s.cleared(ctx, domain.EntityAllergy, allergyID, n)
	}
	return n, nil
}

func (s *RelationshipService) cleared(ctx context.Context, entity domain.EntityKind, id, removed int64) {
	s.logger.Info().Str("entity", string(entity)).Int64("id", id).Int64("removed", removed).Msg("assignments cleared")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:     entity,
		EntityID:   id,
		Action:     domain.ActionAssignmentsReset,
		Attributes: map[string]string{"removed": strconv.FormatInt(removed, 10)},
	})
}
