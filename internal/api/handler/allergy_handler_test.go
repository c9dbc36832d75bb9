package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

func TestAllergyHandler_Create(t *testing.T) {
	stub := &stubAllergyService{
		createFn: func(ctx context.Context, in ports.CreateAllergyInput) (*domain.Allergy, error) {
			if in.Name != "Peanut" || in.Severity != "" || in.Description == nil {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Allergy{ID: 1, Name: in.Name, Severity: domain.DefaultSeverity, Description: in.Description}, nil
		},
	}
	c, rec := newContext(http.MethodPost, "/api/allergies", `{"name":"Peanut","description":"legume"}`)

	if err := NewAllergyHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var resp allergyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Severity != "mild" || resp.AllergyID != 1 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestAllergyHandler_Create_MissingName(t *testing.T) {
	stub := &stubAllergyService{}
	c, _ := newContext(http.MethodPost, "/api/allergies", `{"severity":"severe"}`)

	if err := NewAllergyHandler(stub).Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAllergyHandler_Update(t *testing.T) {
	stub := &stubAllergyService{
		updateFn: func(ctx context.Context, id int64, in ports.UpdateAllergyInput) (*domain.Allergy, error) {
			if in.Severity == nil || *in.Severity != "severe" || in.Name != nil {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.Allergy{ID: id, Name: "Peanut", Severity: *in.Severity}, nil
		},
	}
	c, rec := newContext(http.MethodPut, "/api/allergies/1", `{"severity":"severe"}`, "id", "1")

	if err := NewAllergyHandler(stub).Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAllergyHandler_Get_NotFound(t *testing.T) {
	stub := &stubAllergyService{
		getFn: func(ctx context.Context, id int64) (*domain.Allergy, error) {
			return nil, domain.ErrAllergyNotFound
		},
	}
	c, _ := newContext(http.MethodGet, "/api/allergies/3", "", "id", "3")

	if err := NewAllergyHandler(stub).Get(c); !errors.Is(err, domain.ErrAllergyNotFound) {
		t.Fatalf("expected ErrAllergyNotFound, got %v", err)
	}
}

func TestAllergyHandler_Delete(t *testing.T) {
	stub := &stubAllergyService{
		deleteFn: func(ctx context.Context, id int64) error {
			if id != 2 {
				t.Fatalf("unexpected id %d", id)
			}
			return nil
		},
	}
	c, rec := newContext(http.MethodDelete, "/api/allergies/2", "", "id", "2")

	if err := NewAllergyHandler(stub).Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
