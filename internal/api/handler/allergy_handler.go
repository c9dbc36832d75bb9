package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

// AllergyHandler handles HTTP requests for the allergy catalogue.
type AllergyHandler struct {
	service ports.AllergyService
}

func NewAllergyHandler(service ports.AllergyService) *AllergyHandler {
	return &AllergyHandler{service: service}
}

// List handles GET /api/allergies.
//
// @Summary      List allergies with their user count
// @Tags         allergies
// @Produce      json
// @Success      200  {array}   domain.Allergy
// @Failure      500  {object}  errorResponse
// @Router       /api/allergies [get]
func (h *AllergyHandler) List(c echo.Context) error {
	allergies, err := h.service.ListAllergies(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, allergies)
}

// Get handles GET /api/allergies/:id.
//
// @Summary      Get an allergy
// @Tags         allergies
// @Produce      json
// @Param        id   path      int  true  "Allergy ID"
// @Success      200  {object}  allergyResponse
// @Failure      400  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/allergies/{id} [get]
func (h *AllergyHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	allergy, err := h.service.GetAllergy(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAllergyResponse(allergy))
}

// Create handles POST /api/allergies.
//
// @Summary      Create an allergy
// @Description  Severity defaults to "mild" when omitted.
// @Tags         allergies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createAllergyRequest  true  "Allergy"
// @Success      201   {object}  allergyResponse
// @Failure      400   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/allergies [post]
func (h *AllergyHandler) Create(c echo.Context) error {
	var req createAllergyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	allergy, err := h.service.CreateAllergy(c.Request().Context(), ports.CreateAllergyInput{
		Name:        strings.TrimSpace(req.Name),
		Severity:    strings.TrimSpace(req.Severity),
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toAllergyResponse(allergy))
}

// Update handles PUT and PATCH /api/allergies/:id.
//
// @Summary      Update an allergy
// @Tags         allergies
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int                   true  "Allergy ID"
// @Param        body  body      updateAllergyRequest  true  "Fields to change"
// @Success      200   {object}  allergyResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/allergies/{id} [put]
// @Router       /api/allergies/{id} [patch]
func (h *AllergyHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req updateAllergyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	allergy, err := h.service.UpdateAllergy(c.Request().Context(), id, ports.UpdateAllergyInput{
		Name:        req.Name,
		Severity:    req.Severity,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAllergyResponse(allergy))
}

// Delete handles DELETE /api/allergies/:id.
//
// @Summary      Delete an allergy
// @Tags         allergies
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Allergy ID"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      500  {object}  errorResponse
// @Router       /api/allergies/{id} [delete]
func (h *AllergyHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.service.DeleteAllergy(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "allergy deleted"})
}
