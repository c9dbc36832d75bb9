package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

type StatsHandler struct {
	service ports.StatsService
}

func NewStatsHandler(service ports.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Allergies handles GET /api/stats.
//
// @Summary      Affected users and their average age per allergy
// @Description  Ordered by affected_users descending. average_age_affected is null when no affected user has an age.
// @Tags         stats
// @Produce      json
// @Success      200  {array}   domain.AllergyStat
// @Failure      500  {object}  errorResponse
// @Router       /api/stats [get]
func (h *StatsHandler) Allergies(c echo.Context) error {
	stats, err := h.service.AllergyStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats)
}

// Users handles GET /api/stats/users.
//
// @Summary      Allergy count per user
// @Tags         stats
// @Produce      json
// @Success      200  {array}   domain.UserAllergyCount
// @Failure      500  {object}  errorResponse
// @Router       /api/stats/users [get]
func (h *StatsHandler) Users(c echo.Context) error {
	counts, err := h.service.UserAllergyCounts(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, counts)
}
