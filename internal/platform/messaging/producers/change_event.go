package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// ChangeEventProducer publishes transaction change events. Events are keyed by
// business id so every change of one business lands on the same partition in order.
type ChangeEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

var _ MessagePublisher = (*ChangeEventProducer)(nil)

// NewChangeEventProducer ensures the events topic exists and opens a synchronous writer
func NewChangeEventProducer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ChangeEventProducer, error) {
	if cfg.TransactionEventsTopic == "" {
		return nil, fmt.Errorf("kafka transaction events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for change event producer: %w", err)
	}
	defer conn.Close()

	if err := ensureTopic(conn, cfg.TransactionEventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, topicReadBackoff, logger); err != nil {
		return nil, fmt.Errorf("failed to ensure topic %s exists for change event producer: %w", cfg.TransactionEventsTopic, err)
	}

	// the outbox relay marks a message processed only after the broker acked it
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.TransactionEventsTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &ChangeEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.TransactionEventsTopic,
	}, nil
}

func (p *ChangeEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal change event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish change event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish change event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published change event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ChangeEventProducer) Close() error {
	p.logger.Info("Closing change event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close change event writer for topic %s: %w", p.topic, err)
	}
	return nil
}
