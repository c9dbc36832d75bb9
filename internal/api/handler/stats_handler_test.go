package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

type stubStatsService struct {
	counts []domain.UserAllergyCount
	stats  []domain.AllergyStat
	err    error
}

func (s *stubStatsService) UserAllergyCounts(context.Context) ([]domain.UserAllergyCount, error) {
	return s.counts, s.err
}

func (s *stubStatsService) AllergyStats(context.Context) ([]domain.AllergyStat, error) {
	return s.stats, s.err
}

func TestStatsHandler_Allergies_NullAverage(t *testing.T) {
	stub := &stubStatsService{stats: []domain.AllergyStat{
		{AllergyID: 2, Name: "Pollen", Severity: "mild", AffectedUsers: 0},
	}}
	c, rec := newContext(http.MethodGet, "/api/stats", "")

	if err := NewStatsHandler(stub).Allergies(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"affected_users":0`) || !strings.Contains(body, `"average_age_affected":null`) {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestStatsHandler_Users(t *testing.T) {
	stub := &stubStatsService{counts: []domain.UserAllergyCount{{UserID: 1, Name: "Ana", AllergyCount: 3}}}
	c, rec := newContext(http.MethodGet, "/api/stats/users", "")

	if err := NewStatsHandler(stub).Users(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"allergy_count":3`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestStatsHandler_PropagatesError(t *testing.T) {
	boom := errors.New("db down")
	c, _ := newContext(http.MethodGet, "/api/stats", "")

	if err := NewStatsHandler(&stubStatsService{err: boom}).Allergies(c); !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}
}
