// Package kafka wraps segmentio/kafka-go for the archive's event topics.
// Producers write JSON events tagged with an event-type header; consumers
// hand each message to a MessageHandler and commit once it is settled.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/News-Archive-Platform/pkg/resilience"
)

// MessageHandler processes one message. A returned error is retried a few
// times before the message is given up on.
type MessageHandler func(ctx context.Context, key []byte, value []byte) error

// Consumer feeds one topic to a MessageHandler under a consumer group.
type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	retry   resilience.RetryConfig
	logger  *slog.Logger

	handled atomic.Int64
	skipped atomic.Int64
}

// NewConsumer creates a Consumer for topic. An empty group falls back to the
// configured one; services pass their own so each sees every event.
func NewConsumer(cfg config.KafkaConfig, topic, group string, handler MessageHandler) *Consumer {
	if group == "" {
		group = cfg.ConsumerGroup
	}
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     cfg.Brokers,
			Topic:       topic,
			GroupID:     group,
			MinBytes:    1,
			MaxBytes:    10e6,
			MaxWait:     500 * time.Millisecond,
			StartOffset: kafka.LastOffset,
		}),
		handler: handler,
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second},
		logger:  slog.Default().With("component", "kafka-consumer", "topic", topic, "group", group),
	}
}

// Start consumes until ctx is cancelled. A message whose handler keeps
// failing is logged and committed so the partition keeps moving.
func (c *Consumer) Start(ctx context.Context) error {
	defer c.reader.Close()
	c.logger.Info("consumer started")

	for {
		msg, err := c.reader.FetchMessage(ctx)
		switch {
		case ctx.Err() != nil || errors.Is(err, context.Canceled):
			c.logger.Info("consumer stopping",
				"handled", c.handled.Load(),
				"skipped", c.skipped.Load(),
			)
			return nil
		case err != nil:
			c.logger.Error("fetch failed", "error", err)
			continue
		}

		c.settle(ctx, msg)
		if ctx.Err() != nil {
			continue
		}
		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed", "partition", msg.Partition, "offset", msg.Offset, "error", err)
		}
	}
}

func (c *Consumer) settle(ctx context.Context, msg kafka.Message) {
	op := fmt.Sprintf("handle %s/%d@%d", msg.Topic, msg.Partition, msg.Offset)
	err := resilience.Retry(ctx, op, c.retry, func() error {
		return c.handler(ctx, msg.Key, msg.Value)
	})
	switch {
	case err == nil:
		c.handled.Add(1)
		return
	case ctx.Err() != nil:
		return
	}
	c.skipped.Add(1)
	c.logger.Error("giving up on message",
		"partition", msg.Partition,
		"offset", msg.Offset,
		"event_type", headerValue(msg.Headers, HeaderEventType),
		"error", err,
	)
}

func headerValue(headers []kafka.Header, key string) string {
	for _, h := range headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var out T
	if err := json.Unmarshal(value, &out); err != nil {
		return out, fmt.Errorf("decoding kafka message: %w", err)
	}
	return out, nil
}
