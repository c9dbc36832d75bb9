package ports

import (
	"context"
	"time"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// StatsRepository runs read-only aggregate queries.
type StatsRepository interface {
	UserAllergyCounts(ctx context.Context) ([]domain.UserAllergyCount, error)
	AllergyStats(ctx context.Context) ([]domain.AllergyStat, error)
}

// StatsCache stores serialized aggregate results. Get reports a miss with
// found == false and a nil error.
//
// Generation changes on every Invalidate. Callers read it before querying
// storage and key their entries with it, so a result computed before a
// mutation can never be served after that mutation's Invalidate.
type StatsCache interface {
	Generation(ctx context.Context) (int64, error)
	Get(ctx context.Context, key string) (data []byte, found bool, err error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Invalidate(ctx context.Context) error
}
