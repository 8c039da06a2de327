// Package kafka publishes domain events to a Kafka-compatible broker.
//
// Card creation emits a small JSON event so downstream consumers (search
// indexing, analytics) can react without polling the database. Delivery is
// best effort; a broker outage never fails the originating request.
package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/plugin/kotel"

	"github.com/fairyhunter13/history-ai-wiki/internal/adapter/observability"
	"github.com/fairyhunter13/history-ai-wiki/internal/domain"
)

// CardCreatedEvent is the wire format for a card creation event.
type CardCreatedEvent struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Keywords  []string `json:"keywords"`
	CreatedAt string   `json:"created_at"`
}

// Publisher wraps a Kafka producer and implements domain.EventPublisher.
type Publisher struct {
	client *kgo.Client
	topic  string
}

// NewPublisher constructs a Publisher for the given brokers and topic.
func NewPublisher(brokers []string, topic string) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("no seed brokers provided")
	}
	tracer := kotel.NewKotel(kotel.WithTracer(kotel.NewTracer()))
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.RequestRetries(5),
		kgo.WithHooks(tracer.Hooks()...),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	slog.Info("kafka publisher created", slog.Any("brokers", brokers), slog.String("topic", topic))
	return &Publisher{client: client, topic: topic}, nil
}

// EncodeCardCreated marshals the event payload for a card.
func EncodeCardCreated(c domain.Card) ([]byte, error) {
	return json.Marshal(CardCreatedEvent{
		ID:        c.ID,
		Title:     c.Title,
		Keywords:  c.Keywords,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// PublishCardCreated emits a card.created event keyed by the card id.
func (p *Publisher) PublishCardCreated(ctx domain.Context, c domain.Card) error {
	payload, err := EncodeCardCreated(c)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	rec := &kgo.Record{Topic: p.topic, Key: []byte(c.ID), Value: payload}
	if err := p.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce: %w", err)
	}
	observability.EventsPublishedTotal.WithLabelValues(p.topic).Inc()
	return nil
}

// Close flushes and closes the underlying client.
func (p *Publisher) Close() {
	p.client.Close()
}
