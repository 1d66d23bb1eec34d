package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
)

// HeaderEventType carries Event.Type on every published message.
const HeaderEventType = "event-type"

// Event is one message to publish. Key picks the partition; Value is
// encoded as JSON.
type Event struct {
	Key   string
	Type  string
	Value any
}

func (e Event) message(now time.Time) (kafka.Message, error) {
	value, err := json.Marshal(e.Value)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encoding %s event: %w", e.Type, err)
	}
	msg := kafka.Message{Key: []byte(e.Key), Value: value, Time: now}
	if e.Type != "" {
		msg.Headers = []kafka.Header{{Key: HeaderEventType, Value: []byte(e.Type)}}
	}
	return msg, nil
}

// Producer writes events to a single topic.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	topic   string
	logger  *slog.Logger
}

// NewProducer creates a Producer for topic.
func NewProducer(cfg config.KafkaConfig, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchSize:              100,
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            3,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
		brokers: cfg.Brokers,
		topic:   topic,
		logger:  slog.Default().With("component", "kafka-producer", "topic", topic),
	}
}

func (p *Producer) Topic() string { return p.topic }

// Publish writes events in one synchronous batch.
func (p *Producer) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}
	now := time.Now()
	batch := make([]kafka.Message, len(events))
	for i, e := range events {
		msg, err := e.message(now)
		if err != nil {
			return err
		}
		batch[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, batch...); err != nil {
		p.logger.Error("publish failed", "count", len(batch), "error", err)
		return fmt.Errorf("publishing %d events to %s: %w", len(batch), p.topic, err)
	}
	p.logger.Debug("published", "count", len(batch))
	return nil
}

// Ping dials the first reachable broker, which lets health checks report
// Kafka alongside the database.
func (p *Producer) Ping(ctx context.Context) error {
	if len(p.brokers) == 0 {
		return errors.New("no kafka brokers configured")
	}
	var errs []error
	for _, addr := range p.brokers {
		conn, err := kafka.DialContext(ctx, "tcp", addr)
		if err == nil {
			return conn.Close()
		}
		errs = append(errs, fmt.Errorf("%s: %w", addr, err))
		if ctx.Err() != nil {
			break
		}
	}
	return errors.Join(errs...)
}

// Close flushes anything still buffered.
func (p *Producer) Close() error {
	return p.writer.Close()
}
