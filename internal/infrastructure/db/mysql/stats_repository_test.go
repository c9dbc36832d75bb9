package mysql

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestStatsRepository_AllergyStats(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStatsRepository(db)

	mock.ExpectQuery(q("ORDER BY affected_users DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"allergy_id", "name", "severity", "affected_users", "average_age_affected"}).
			AddRow(1, "Peanut", "severe", 2, []byte("31.5000")).
			AddRow(2, "Latex", "mild", 0, nil))

	stats, err := repo.AllergyStats(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(stats))
	}
	if stats[0].AverageAge == nil || *stats[0].AverageAge != 31.5 {
		t.Errorf("unexpected average: %+v", stats[0].AverageAge)
	}
	if stats[1].AffectedUsers != 0 || stats[1].AverageAge != nil {
		t.Errorf("allergy without users should have 0 users and nil average: %+v", stats[1])
	}
}

func TestStatsRepository_UserAllergyCounts(t *testing.T) {
	db, mock := newMock(t)
	repo := NewStatsRepository(db)

	mock.ExpectQuery(q("COUNT(ua.allergy_id) AS allergy_count")).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "name", "allergy_count"}).
			AddRow(1, "Ana", 2).
			AddRow(2, "Bea", 0))

	counts, err := repo.UserAllergyCounts(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(counts) != 2 || counts[0].AllergyCount != 2 || counts[1].AllergyCount != 0 {
		t.Errorf("unexpected counts: %+v", counts)
	}
}
