package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := &Publisher{writer: w}
	event := domain.ChangeEvent{
		ID:         "evt-1",
		Entity:     domain.EntityAllergy,
		EntityID:   3,
		Action:     domain.ActionDeleted,
		OccurredAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	if err := p.Publish(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(w.msgs))
	}

	msg := w.msgs[0]
	if string(msg.Key) != "allergy:3" {
		t.Errorf("unexpected key %q", msg.Key)
	}
	var decoded domain.ChangeEvent
	if err := json.Unmarshal(msg.Value, &decoded); err != nil {
		t.Fatalf("value is not JSON: %v", err)
	}
	if decoded.ID != "evt-1" || decoded.Action != domain.ActionDeleted {
		t.Errorf("unexpected payload: %+v", decoded)
	}
	if len(msg.Headers) != 2 || string(msg.Headers[0].Value) != "deleted" {
		t.Errorf("unexpected headers: %+v", msg.Headers)
	}
}

func TestPublisher_PublishError(t *testing.T) {
	boom := errors.New("leader not available")
	p := &Publisher{writer: &recordingWriter{err: boom}}

	err := p.Publish(context.Background(), domain.ChangeEvent{Entity: domain.EntityUser, EntityID: 1})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped writer error, got %v", err)
	}
}

func TestPublisher_Close(t *testing.T) {
	w := &recordingWriter{}
	if err := (&Publisher{writer: w}).Close(); err != nil || !w.closed {
		t.Fatalf("close: err=%v closed=%v", err, w.closed)
	}
}
