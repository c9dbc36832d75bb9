package handler

import (
	"time"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(domain.DateLayout)
	return &s
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{UserID: u.ID, Name: u.Name, Age: u.Age, Email: u.Email}
}

func toUserDetailResponse(p *ports.UserProfile) userDetailResponse {
	return userDetailResponse{
		UserID:    p.User.ID,
		Name:      p.User.Name,
		Age:       p.User.Age,
		Email:     p.User.Email,
		Allergies: toUserAllergyResponses(p.Allergies),
	}
}

func toUserAllergyResponses(details []domain.UserAllergyDetail) []userAllergyResponse {
	out := make([]userAllergyResponse, 0, len(details))
	for _, d := range details {
		out = append(out, userAllergyResponse{
			AllergyID:     d.AllergyID,
			Name:          d.Name,
			Severity:      d.Severity,
			Description:   d.Description,
			Notes:         d.Notes,
			DiagnosedDate: formatDate(d.DiagnosedDate),
		})
	}
	return out
}

func toAllergyResponse(a *domain.Allergy) allergyResponse {
	return allergyResponse{AllergyID: a.ID, Name: a.Name, Severity: a.Severity, Description: a.Description}
}

func toAllergyUserResponses(details []domain.AllergyUserDetail) []allergyUserResponse {
	out := make([]allergyUserResponse, 0, len(details))
	for _, d := range details {
		out = append(out, allergyUserResponse{
			UserID:        d.UserID,
			Name:          d.Name,
			Age:           d.Age,
			Email:         d.Email,
			Notes:         d.Notes,
			DiagnosedDate: formatDate(d.DiagnosedDate),
		})
	}
	return out
}

func toAssignmentResponse(link *domain.UserAllergy) assignmentResponse {
	return assignmentResponse{
		UserAllergyID: link.ID,
		UserID:        link.UserID,
		AllergyID:     link.AllergyID,
		Notes:         link.Notes,
		DiagnosedDate: formatDate(link.DiagnosedDate),
	}
}

func toAuditEventResponses(events []domain.ChangeEvent) []auditEventResponse {
	out := make([]auditEventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventResponse{
			ID:         e.ID,
			Entity:     string(e.Entity),
			EntityID:   e.EntityID,
			Action:     string(e.Action),
			RelatedID:  e.RelatedID,
			Attributes: e.Attributes,
			OccurredAt: e.OccurredAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
