package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

const (
	cacheKeyAllergyStats      = "stats:allergies"
	cacheKeyUserAllergyCounts = "stats:users"

	defaultStatsTTL = 30 * time.Second
)

// StatsService reads aggregates through an optional cache. Cache failures
// fall back to the repository.
type StatsService struct {
	repo   ports.StatsRepository
	cache  ports.StatsCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewStatsService(repo ports.StatsRepository, cache ports.StatsCache, ttl time.Duration, logger zerolog.Logger) *StatsService {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

func (s *StatsService) UserAllergyCounts(ctx context.Context) ([]domain.UserAllergyCount, error) {
	key, cacheable := s.cacheKey(ctx, cacheKeyUserAllergyCounts)

	var counts []domain.UserAllergyCount
	if cacheable && s.fromCache(ctx, key, &counts) {
		return counts, nil
	}

	counts, err := s.repo.UserAllergyCounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("user allergy counts: %w", err)
	}
	if cacheable {
		s.store(ctx, key, counts)
	}
	return counts, nil
}

func (s *StatsService) AllergyStats(ctx context.Context) ([]domain.AllergyStat, error) {
	key, cacheable := s.cacheKey(ctx, cacheKeyAllergyStats)

	var stats []domain.AllergyStat
	if cacheable && s.fromCache(ctx, key, &stats) {
		return stats, nil
	}

	stats, err := s.repo.AllergyStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("allergy stats: %w", err)
	}
	if cacheable {
		s.store(ctx, key, stats)
	}
	return stats, nil
}

// cacheKey binds base to the current cache generation. It must be called
// before the repository is queried. ok is false when there is no cache or
// the generation cannot be read; the result is then neither read nor stored.
func (s *StatsService) cacheKey(ctx context.Context, base string) (key string, ok bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", base).Msg("stats cache generation unavailable, querying database")
		return "", false
	}
	return fmt.Sprintf("%s:%d", base, gen), true
}

func (s *StatsService) fromCache(ctx context.Context, key string, dst any) bool {
	data, found, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache read failed, querying database")
		return false
	}
	if !found {
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		return false
	}
	return true
}

func (s *StatsService) store(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats encode failed")
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("stats cache write failed")
	}
}
