// internal/adapters/kafka/publisher.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/ammerola/bloodbank-be/internal/core/domain"
	"github.com/ammerola/bloodbank-be/internal/core/ports"
)

// DefaultTopic carries every ledger event
const DefaultTopic = "inventory.events"

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes ledger events to Kafka, keyed by blood group so events of
// one ledger stay on one partition in commit order
type Publisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
}

// Statically assert that *Publisher implements the EventPublisher interface.
var _ ports.EventPublisher = (*Publisher)(nil)

// NewPublisher creates a publisher for the given brokers and topic
func NewPublisher(brokers []string, topic string, logger *slog.Logger) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return newPublisher(writer, topic, logger)
}

func newPublisher(w messageWriter, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{
		writer: w,
		topic:  topic,
		logger: logger.With(slog.String("component", "kafka_publisher"), slog.String("topic", topic)),
	}
}

// PublishLedgerEvents writes msgs as one batch
func (p *Publisher) PublishLedgerEvents(ctx context.Context, msgs []domain.LedgerEventMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	batch, err := buildMessages(msgs)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		return fmt.Errorf("failed to publish %d ledger events: %w", len(batch), err)
	}

	p.logger.DebugContext(ctx, "ledger events published", slog.Int("count", len(batch)))
	return nil
}

// Close flushes pending writes
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func buildMessages(msgs []domain.LedgerEventMessage) ([]kafka.Message, error) {
	out := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		data, err := json.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal ledger event: %w", err)
		}
		ts := m.Event.Timestamp
		if ts.IsZero() {
			ts = time.Now().UTC()
		}
		out = append(out, kafka.Message{
			Key:   []byte(m.BloodGroup),
			Value: data,
			Time:  ts,
			Headers: []kafka.Header{
				{Key: "action", Value: []byte(m.Event.Action)},
			},
		})
	}
	return out, nil
}

// NopPublisher drops events; used when no brokers are configured
type NopPublisher struct{}

var _ ports.EventPublisher = NopPublisher{}

func (NopPublisher) PublishLedgerEvents(context.Context, []domain.LedgerEventMessage) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
