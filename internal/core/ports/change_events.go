package ports

import (
	"context"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

// EventNotifier accepts committed changes for asynchronous delivery.
// Enqueue must not block the caller on downstream sinks.
type EventNotifier interface {
	Enqueue(event domain.ChangeEvent)
}

// AuditRepository persists change events so an entity's history can be read back.
type AuditRepository interface {
	Insert(ctx context.Context, event domain.ChangeEvent) error
	// ListByEntity returns the newest events first, at most limit of them.
	ListByEntity(ctx context.Context, entity domain.EntityKind, id int64, limit int) ([]domain.ChangeEvent, error)
}

// EventPublisher forwards change events to a message broker.
type EventPublisher interface {
	Publish(ctx context.Context, event domain.ChangeEvent) error
}
