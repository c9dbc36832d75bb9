package mysql

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// StatsRepository implements ports.StatsRepository on MySQL.
type StatsRepository struct {
	db *sql.DB
}

func NewStatsRepository(db *sql.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// UserAllergyCounts left-joins the relationship table so users without
// allergies are reported with a count of zero.
func (r *StatsRepository) UserAllergyCounts(ctx context.Context) ([]domain.UserAllergyCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.user_id, u.name, COUNT(ua.allergy_id) AS allergy_count
		FROM users u
		LEFT JOIN user_allergies ua ON u.user_id = ua.user_id
		GROUP BY u.user_id, u.name
		ORDER BY u.name`)
	if err != nil {
		return nil, fmt.Errorf("query user allergy counts: %w", err)
	}
	defer rows.Close()

	counts := []domain.UserAllergyCount{}
	for rows.Next() {
		var c domain.UserAllergyCount
		if err := rows.Scan(&c.UserID, &c.Name, &c.AllergyCount); err != nil {
			return nil, fmt.Errorf("scan user allergy count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user allergy counts: %w", err)
	}
	return counts, nil
}

// AllergyStats reports, per allergy, how many users have it and their
// average age. AVG ignores NULL ages and yields NULL for an allergy nobody
// has, which is returned as a nil AverageAge.
func (r *StatsRepository) AllergyStats(ctx context.Context) ([]domain.AllergyStat, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			a.allergy_id,
			a.name,
			a.severity,
			COUNT(ua.user_id) AS affected_users,
			AVG(u.age) AS average_age_affected
		FROM allergies a
		LEFT JOIN user_allergies ua ON a.allergy_id = ua.allergy_id
		LEFT JOIN users u ON ua.user_id = u.user_id
		GROUP BY a.allergy_id, a.name, a.severity
		ORDER BY affected_users DESC, a.name`)
	if err != nil {
		return nil, fmt.Errorf("query allergy stats: %w", err)
	}
	defer rows.Close()

	stats := []domain.AllergyStat{}
	for rows.Next() {
		var (
			s   domain.AllergyStat
			avg sql.NullFloat64
		)
		if err := rows.Scan(&s.AllergyID, &s.Name, &s.Severity, &s.AffectedUsers, &avg); err != nil {
			return nil, fmt.Errorf("scan allergy stat: %w", err)
		}
		s.AverageAge = floatPtr(avg)
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate allergy stats: %w", err)
	}
	return stats, nil
}
