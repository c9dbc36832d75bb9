package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
	"github.com/allergytrack/allergy-tracker/internal/core/ports"
)

// SideEffects holds the optional collaborators notified after a mutation
// commits. Either field may be nil.
type SideEffects struct {
	Cache    ports.StatsCache
	Notifier ports.EventNotifier
}

// committed invalidates cached aggregates and enqueues the change event.
// Failures here are logged; the mutation itself has already succeeded.
func (s SideEffects) committed(ctx context.Context, log zerolog.Logger, event domain.ChangeEvent) {
	if s.Cache != nil {
		if err := s.Cache.Invalidate(ctx); err != nil {
			log.Warn().Err(err).Str("key", event.Key()).Msg("stats cache invalidation failed")
		}
	}
	if s.Notifier == nil {
		return
	}
	event.ID = uuid.NewString()
	event.OccurredAt = time.Now().UTC()
	s.Notifier.Enqueue(event)
}
