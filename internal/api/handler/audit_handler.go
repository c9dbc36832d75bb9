package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

const defaultAuditLimit = 50

// AuditHandler serves the change history recorded by the audit sink. A nil
// repository means auditing is disabled and every lookup returns 404.
type AuditHandler struct {
	repo ports.AuditRepository
}

func NewAuditHandler(repo ports.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// List handles GET /api/audit/:entity/:id.
//
// @Summary      Change history of a user or allergy, newest first
// @Tags         audit
// @Produce      json
// @Param        entity  path      string  true   "Entity kind"  Enums(user, allergy)
// @Param        id      path      int     true   "Entity ID"
// @Param        limit   query     int     false  "Maximum number of events (default 50)"
// @Success      200     {array}   auditEventResponse
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Failure      500     {object}  errorResponse
// @Router       /api/audit/{entity}/{id} [get]
func (h *AuditHandler) List(c echo.Context) error {
	if h.repo == nil {
		return echo.NewHTTPError(http.StatusNotFound, "audit trail is not enabled")
	}

	entity := domain.EntityKind(c.Param("entity"))
	if entity != domain.EntityUser && entity != domain.EntityAllergy {
		return domain.NewValidationError("entity", "must be one of: user allergy")
	}
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}

	limit := defaultAuditLimit
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return domain.NewValidationError("limit", "must be a positive integer")
		}
	}

	events, err := h.repo.ListByEntity(c.Request().Context(), entity, id, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toAuditEventResponses(events))
}
