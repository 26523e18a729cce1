package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// envelope is the wire format of every event.
type envelope struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       Event     `json:"data"`
}

// KafkaPublisher writes events to one topic, partitioned by order ID.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
	logger zerolog.Logger
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string, logger zerolog.Logger) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka publisher requires a topic")
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}
	return newKafkaPublisher(writer, topic, logger), nil
}

func newKafkaPublisher(writer messageWriter, topic string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		topic:  topic,
		now:    time.Now,
		logger: logger.With().Str("component", "kafka-publisher").Str("topic", topic).Logger(),
	}
}

// Publish writes the event wrapped in an envelope.
func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	at := p.now().UTC()
	env := envelope{
		ID:         ulid.MustNew(ulid.Timestamp(at), ulid.DefaultEntropy()).String(),
		Type:       event.EventType(),
		OccurredAt: at,
		Data:       event,
	}

	payload, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", env.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:     []byte(event.OrderKey().String()),
		Value:   payload,
		Time:    at,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(env.Type)}},
	})
	if err != nil {
		p.logger.Error().Err(err).Str("event_type", env.Type).Msg("failed to publish event")
		return fmt.Errorf("failed to publish %s event: %w", env.Type, err)
	}

	p.logger.Debug().
		Str("event_id", env.ID).
		Str("event_type", env.Type).
		Str("order_id", event.OrderKey().String()).
		Msg("event published")

	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
