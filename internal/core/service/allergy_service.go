package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

type AllergyService struct {
	allergies ports.AllergyRepository
	hooks     SideEffects
	logger    zerolog.Logger
}

func NewAllergyService(allergies ports.AllergyRepository, hooks SideEffects, logger zerolog.Logger) *AllergyService {
	return &AllergyService{allergies: allergies, hooks: hooks, logger: logger}
}

func (s *AllergyService) ListAllergies(ctx context.Context) ([]domain.Allergy, error) {
	allergies, err := s.allergies.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list allergies: %w", err)
	}
	return allergies, nil
}

func (s *AllergyService) GetAllergy(ctx context.Context, id int64) (*domain.Allergy, error) {
	return s.allergies.FindByID(ctx, id)
}

// CreateAllergy requires a name and falls back to the default severity.
func (s *AllergyService) CreateAllergy(ctx context.Context, in ports.CreateAllergyInput) (*domain.Allergy, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Severity = strings.TrimSpace(in.Severity)

	if in.Name == "" {
		return nil, domain.NewValidationError("name", "is required")
	}
	if in.Severity == "" {
		in.Severity = domain.DefaultSeverity
	}

	allergy, err := s.allergies.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.logger.Info().Int64("allergy_id", allergy.ID).Str("severity", allergy.Severity).Msg("allergy created")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:     domain.EntityAllergy,
		EntityID:   allergy.ID,
		Action:     domain.ActionCreated,
		Attributes: map[string]string{"name": allergy.Name, "severity": allergy.Severity},
	})
	return allergy, nil
}

func (s *AllergyService) UpdateAllergy(ctx context.Context, id int64, in ports.UpdateAllergyInput) (*domain.Allergy, error) {
	if in.IsEmpty() {
		return nil, domain.NewValidationError("", "no valid fields to update")
	}
	in.Name = trimmed(in.Name)
	in.Severity = trimmed(in.Severity)

	if in.Name != nil && *in.Name == "" {
		return nil, domain.NewValidationError("name", "must not be empty")
	}
	if in.Severity != nil && *in.Severity == "" {
		return nil, domain.NewValidationError("severity", "must not be empty")
	}

	allergy, err := s.allergies.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}

	attrs := make(map[string]string, 3)
	if in.Name != nil {
		attrs["name"] = *in.Name
	}
	if in.Severity != nil {
		attrs["severity"] = *in.Severity
	}
	if in.Description != nil {
		attrs["description"] = *in.Description
	}

	s.logger.Info().Int64("allergy_id", id).Msg("allergy updated")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:     domain.EntityAllergy,
		EntityID:   id,
		Action:     domain.ActionUpdated,
		Attributes: attrs,
	})
	return allergy, nil
}

func (s *AllergyService) DeleteAllergy(ctx context.Context, id int64) error {
	if err := s.allergies.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info().Int64("allergy_id", id).Msg("allergy deleted")
	s.hooks.committed(ctx, s.logger, domain.ChangeEvent{
		Entity:   domain.EntityAllergy,
		EntityID: id,
		Action:   domain.ActionDeleted,
	})
	return nil
}
