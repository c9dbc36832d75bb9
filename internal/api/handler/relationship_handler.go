package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
	"github.com/allergytrack/allergy-tracker/internal/pkg/metrics"
)

// RelationshipHandler handles the user ↔ allergy assignment routes.
type RelationshipHandler struct {
	service ports.RelationshipService
}

func NewRelationshipHandler(service ports.RelationshipService) *RelationshipHandler {
	return &RelationshipHandler{service: service}
}

// ListForUser handles GET /api/users/:id/allergies.
//
// @Summary      List the allergies assigned to a user
// @Tags         relationships
// @Produce      json
// @Param        id   path      int  true  "User ID"
// @Success      200  {array}   userAllergyResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/users/{id}/allergies [get]
func (h *RelationshipHandler) ListForUser(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	details, err := h.service.ListAllergiesForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserAllergyResponses(details))
}

// Assign handles POST /api/users/:id/allergies.
//
// @Summary      Assign an allergy to a user
// @Tags         relationships
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "User ID"
// @Param        body  body      assignAllergyRequest  true  "Assignment"
// @Success      201   {object}  assignmentResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/users/{id}/allergies [post]
func (h *RelationshipHandler) Assign(c echo.Context) error {
	link, err := h.assign(c)
	metrics.AssignmentsTotal.WithLabelValues(assignResult(err)).Inc()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAssignmentResponse(link))
}

func (h *RelationshipHandler) assign(c echo.Context) (*domain.UserAllergy, error) {
	userID, err := pathID(c, "id")
	if err != nil {
		return nil, err
	}
	var req assignAllergyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return nil, err
	}
	diagnosed, err := domain.ParseDiagnosedDate(req.DiagnosedDate)
	if err != nil {
		return nil, err
	}

	return h.service.AssignAllergy(c.Request().Context(), userID, ports.AssignAllergyInput{
		AllergyID:     req.AllergyID,
		Notes:         req.Notes,
		DiagnosedDate: diagnosed,
	})
}

func assignResult(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrAllergyAlreadyAssigned):
		return "conflict"
	case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrAllergyNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	default:
		return "error"
	}
}

// RemoveOne handles DELETE /api/users/:id/allergies/:allergyId.
//
// @Summary      Remove one allergy from a user
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id         path      int  true  "User ID"
// @Param        allergyId  path      int  true  "Allergy ID"
// @Success      200        {object}  messageResponse
// @Failure      400        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Failure      500        {object}  errorResponse
// @Router       /api/users/{id}/allergies/{allergyId} [delete]
func (h *RelationshipHandler) RemoveOne(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	allergyID, err := pathID(c, "allergyId")
	if err != nil {
		return err
	}
	if err := h.service.RemoveAssignment(c.Request().Context(), userID, allergyID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "allergy removed from user"})
}

// RemoveAllForUser handles DELETE /api/users/:id/allergies. Removing from a
// user with no assignments succeeds with removed=0.
//
// @Summary      Remove every allergy from a user
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User ID"
// @Success      200  {object}  removedResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/users/{id}/allergies [delete]
func (h *RelationshipHandler) RemoveAllForUser(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.service.RemoveAllForUser(c.Request().Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, removedResponse{Message: "user allergies removed", Removed: n})
}

// ListForAllergy handles GET /api/allergies/:id/users.
//
// @Summary      List the users who have an allergy
// @Tags         relationships
// @Produce      json
// @Param        id   path      int  true  "Allergy ID"
// @Success      200  {array}   allergyUserResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/allergies/{id}/users [get]
func (h *RelationshipHandler) ListForAllergy(c echo.Context) error {
	allergyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	details, err := h.service.ListUsersForAllergy(c.Request().Context(), allergyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAllergyUserResponses(details))
}

// RemoveAllForAllergy handles DELETE /api/allergies/:id/users.
//
// @Summary      Remove an allergy from every user
// @Tags         relationships
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Allergy ID"
// @Success      200  {object}  removedResponse
// @Failure      400  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/allergies/{id}/users [delete]
func (h *RelationshipHandler) RemoveAllForAllergy(c echo.Context) error {
	allergyID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	n, err := h.service.RemoveAllForAllergy(c.Request().Context(), allergyID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, removedResponse{Message: "allergy assignments removed", Removed: n})
}
