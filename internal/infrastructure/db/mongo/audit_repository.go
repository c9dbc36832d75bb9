package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

const (
	collectionAudit = "audit_events"
	maxAuditLimit   = 500
)

// AuditRepository implements ports.AuditRepository on the audit_events
// collection. Documents are append-only.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection(collectionAudit)}
}

type auditDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	EventID    string             `bson:"event_id"`
	Entity     string             `bson:"entity"`
	EntityID   int64              `bson:"entity_id"`
	Action     string             `bson:"action"`
	RelatedID  int64              `bson:"related_id,omitempty"`
	Attributes map[string]string  `bson:"attributes,omitempty"`
	OccurredAt time.Time          `bson:"occurred_at"`
	RecordedAt time.Time          `bson:"recorded_at"`
}

func toAuditDoc(e domain.ChangeEvent, recordedAt time.Time) auditDoc {
	return auditDoc{
		EventID:    e.ID,
		Entity:     string(e.Entity),
		EntityID:   e.EntityID,
		Action:     string(e.Action),
		RelatedID:  e.RelatedID,
		Attributes: e.Attributes,
		OccurredAt: e.OccurredAt.UTC(),
		RecordedAt: recordedAt.UTC(),
	}
}

func (d auditDoc) toDomain() domain.ChangeEvent {
	return domain.ChangeEvent{
		ID:         d.EventID,
		Entity:     domain.EntityKind(d.Entity),
		EntityID:   d.EntityID,
		Action:     domain.ChangeAction(d.Action),
		RelatedID:  d.RelatedID,
		Attributes: d.Attributes,
		OccurredAt: d.OccurredAt,
	}
}

// Insert appends the event to the audit trail. An event already stored
// under the same event_id is not an error.
func (r *AuditRepository) Insert(ctx context.Context, event domain.ChangeEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, toAuditDoc(event, time.Now()))
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByEntity returns the newest events for one entity first. limit is
// clamped to (0, maxAuditLimit].
func (r *AuditRepository) ListByEntity(ctx context.Context, entity domain.EntityKind, id int64, limit int) ([]domain.ChangeEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if limit <= 0 || limit > maxAuditLimit {
		limit = maxAuditLimit
	}

	filter := bson.M{"entity": string(entity), "entity_id": id}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetLimit(int64(limit))

	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []auditDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode audit events: %w", err)
	}

	events := make([]domain.ChangeEvent, 0, len(docs))
	for _, d := range docs {
		events = append(events, d.toDomain())
	}
	return events, nil
}

// EnsureIndexes creates the lookup index used by ListByEntity and a unique
// index on event_id so a redelivered event is stored once.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "entity", Value: 1}, {Key: "entity_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "event_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
