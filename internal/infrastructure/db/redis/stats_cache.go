package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/allergytrack/allergy-tracker/internal/pkg/metrics"
)

const (
	keyPrefix     = "allergy-tracker:"
	entryPrefix   = keyPrefix + "entry:"
	generationKey = keyPrefix + "generation"
	scanCount     = 100
)

// StatsCache implements ports.StatsCache.
//
// Key format:
//
//	allergy-tracker:entry:<key>   cached payload, expires after its TTL
//	allergy-tracker:generation    counter bumped by Invalidate, no TTL
type StatsCache struct {
	client *redis.Client
}

// NewStatsCache creates a StatsCache wrapping the given Redis client.
func NewStatsCache(client *redis.Client) *StatsCache {
	return &StatsCache{client: client}
}

// Generation returns the current invalidation counter, 0 before the first
// Invalidate.
func (c *StatsCache) Generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, nil
	case err != nil:
		metrics.StatsCacheTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("stats cache generation: %w", err)
	}
	return gen, nil
}

// Get returns the cached payload for key and whether it was present.
func (c *StatsCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, entryPrefix+key).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		metrics.StatsCacheTotal.WithLabelValues("miss").Inc()
		return nil, false, nil
	case err != nil:
		metrics.StatsCacheTotal.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("stats cache get: %w", err)
	}
	metrics.StatsCacheTotal.WithLabelValues("hit").Inc()
	return data, true, nil
}

// Set stores data under key; it expires after ttl.
func (c *StatsCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, entryPrefix+key, data, ttl).Err(); err != nil {
		return fmt.Errorf("stats cache set: %w", err)
	}
	return nil
}

// Invalidate bumps the generation, which retires every entry keyed with an
// older one, then deletes the stored entries. Once the bump succeeds a
// failed delete only leaves unreachable entries behind until their TTL.
func (c *StatsCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, generationKey).Err(); err != nil {
		return fmt.Errorf("stats cache generation bump: %w", err)
	}

	var keys []string
	iter := c.client.Scan(ctx, 0, entryPrefix+"*", scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("stats cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("stats cache invalidate: %w", err)
	}
	return nil
}

// Ping reports whether the server is reachable; used by the readiness probe.
func (c *StatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
