package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

type stubUserService struct {
	listFn   func(ctx context.Context) ([]domain.User, error)
	getFn    func(ctx context.Context, id int64) (*ports.UserProfile, error)
	createFn func(ctx context.Context, in ports.CreateUserInput) (*domain.User, error)
	updateFn func(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubUserService) ListUsers(ctx context.Context) ([]domain.User, error) {
	return s.listFn(ctx)
}

func (s *stubUserService) GetUser(ctx context.Context, id int64) (*ports.UserProfile, error) {
	return s.getFn(ctx, id)
}

func (s *stubUserService) CreateUser(ctx context.Context, in ports.CreateUserInput) (*domain.User, error) {
	return s.createFn(ctx, in)
}

func (s *stubUserService) UpdateUser(ctx context.Context, id int64, in ports.UpdateUserInput) (*domain.User, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubUserService) DeleteUser(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubAllergyService struct {
	listFn   func(ctx context.Context) ([]domain.Allergy, error)
	getFn    func(ctx context.Context, id int64) (*domain.Allergy, error)
	createFn func(ctx context.Context, in ports.CreateAllergyInput) (*domain.Allergy, error)
	updateFn func(ctx context.Context, id int64, in ports.UpdateAllergyInput) (*domain.Allergy, error)
	deleteFn func(ctx context.Context, id int64) error
}

func (s *stubAllergyService) ListAllergies(ctx context.Context) ([]domain.Allergy, error) {
	return s.listFn(ctx)
}

func (s *stubAllergyService) GetAllergy(ctx context.Context, id int64) (*domain.Allergy, error) {
	return s.getFn(ctx, id)
}

func (s *stubAllergyService) CreateAllergy(ctx context.Context, in ports.CreateAllergyInput) (*domain.Allergy, error) {
	return s.createFn(ctx, in)
}

func (s *stubAllergyService) UpdateAllergy(ctx context.Context, id int64, in ports.UpdateAllergyInput) (*domain.Allergy, error) {
	return s.updateFn(ctx, id, in)
}

func (s *stubAllergyService) DeleteAllergy(ctx context.Context, id int64) error {
	return s.deleteFn(ctx, id)
}

type stubRelationshipService struct {
	assignFn        func(ctx context.Context, userID int64, in ports.AssignAllergyInput) (*domain.UserAllergy, error)
	forUserFn       func(ctx context.Context, userID int64) ([]domain.UserAllergyDetail, error)
	forAllergyFn    func(ctx context.Context, allergyID int64) ([]domain.AllergyUserDetail, error)
	removeFn        func(ctx context.Context, userID, allergyID int64) error
	removeUserFn    func(ctx context.Context, userID int64) (int64, error)
	removeAllergyFn func(ctx context.Context, allergyID int64) (int64, error)
}

func (s *stubRelationshipService) AssignAllergy(ctx context.Context, userID int64, in ports.AssignAllergyInput) (*domain.UserAllergy, error) {
	return s.assignFn(ctx, userID, in)
}

func (s *stubRelationshipService) ListAllergiesForUser(ctx context.Context, userID int64) ([]domain.UserAllergyDetail, error) {
	return s.forUserFn(ctx, userID)
}

func (s *stubRelationshipService) ListUsersForAllergy(ctx context.Context, allergyID int64) ([]domain.AllergyUserDetail, error) {
	return s.forAllergyFn(ctx, allergyID)
}

func (s *stubRelationshipService) RemoveAssignment(ctx context.Context, userID, allergyID int64) error {
	return s.removeFn(ctx, userID, allergyID)
}

func (s *stubRelationshipService) RemoveAllForUser(ctx context.Context, userID int64) (int64, error) {
	return s.removeUserFn(ctx, userID)
}

func (s *stubRelationshipService) RemoveAllForAllergy(ctx context.Context, allergyID int64) (int64, error) {
	return s.removeAllergyFn(ctx, allergyID)
}

type stubAuditRepository struct {
	events []domain.ChangeEvent
	limit  int
}

func (s *stubAuditRepository) Insert(_ context.Context, e domain.ChangeEvent) error {
	s.events = append(s.events, e)
	return nil
}

func (s *stubAuditRepository) ListByEntity(_ context.Context, entity domain.EntityKind, id int64, limit int) ([]domain.ChangeEvent, error) {
	s.limit = limit
	var out []domain.ChangeEvent
	for _, e := range s.events {
		if e.Entity == entity && e.EntityID == id {
			out = append(out, e)
		}
	}
	return out, nil
}

// newContext builds an echo context for a JSON request with the given path
// parameters (names and values alternate).
func newContext(method, target, body string, params ...string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c, rec
}
