package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/allergytrack/allergy-tracker/internal/core/domain"
)

const writeTimeout = 10 * time.Second

// messageWriter is the subset of *kafka.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Config captures the broker list and destination topic.
type Config struct {
	Brokers []string
	Topic   string
}

// Publisher implements ports.EventPublisher. Messages are keyed by the
// entity key and partitioned by hash, so events for one entity stay ordered.
type Publisher struct {
	writer messageWriter
}

// NewPublisher builds a Publisher over a kafka.Writer for cfg.
func NewPublisher(cfg Config) *Publisher {
	return &Publisher{writer: &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		AllowAutoTopicCreation: true,
	}}
}

// Publish writes one change event as JSON.
func (p *Publisher) Publish(ctx context.Context, event domain.ChangeEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode change event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "action", Value: []byte(event.Action)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
		Time: event.OccurredAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Close flushes pending writes and releases broker connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
