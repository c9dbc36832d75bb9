package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

func renderError(t *testing.T, err error, exposeInternal bool) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	NewHTTPErrorHandler(zerolog.Nop(), exposeInternal)(err, c)

	var body errorResponse
	if jsonErr := json.Unmarshal(rec.Body.Bytes(), &body); jsonErr != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), jsonErr)
	}
	return rec.Code, body.Error
}

func TestHTTPErrorHandler_DomainErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", domain.NewValidationError("email", "is required"), http.StatusBadRequest, "email is required"},
		{"user not found", domain.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"wrapped allergy not found", fmt.Errorf("get: %w", domain.ErrAllergyNotFound), http.StatusNotFound, "get: allergy not found"},
		{"assignment not found", domain.ErrAssignmentNotFound, http.StatusNotFound, "allergy not assigned to user"},
		{"already assigned", domain.ErrAllergyAlreadyAssigned, http.StatusConflict, "allergy already assigned to user"},
		{"email taken", domain.ErrEmailTaken, http.StatusConflict, "email already in use"},
		{"echo error", echo.NewHTTPError(http.StatusUnauthorized, "invalid token"), http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := renderError(t, tt.err, false)
			if code != tt.code {
				t.Errorf("expected %d, got %d", tt.code, code)
			}
			if msg != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, msg)
			}
		})
	}
}

func TestHTTPErrorHandler_InternalErrorHidden(t *testing.T) {
	code, msg := renderError(t, errors.New("dial tcp 10.0.0.3:3306: connection refused"), false)
	if code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", code)
	}
	if msg != "internal server error" {
		t.Fatalf("internal detail leaked: %q", msg)
	}
}

func TestHTTPErrorHandler_InternalErrorExposedInDevelopment(t *testing.T) {
	code, msg := renderError(t, errors.New("deadlock found"), true)
	if code != http.StatusInternalServerError || msg != "deadlock found" {
		t.Fatalf("expected 500 with detail, got %d %q", code, msg)
	}
}
