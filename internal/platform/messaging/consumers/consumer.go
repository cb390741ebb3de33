package consumers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessageHandler processes one message. A nil return commits the offset.
type MessageHandler func(ctx context.Context, msg kafka.Message) error

// Consumer defines the message queue consumer interface
type Consumer interface {
	Subscribe(ctx context.Context, handler MessageHandler) error
	Close() error
}

// messageReader is the part of *kafka.Reader the consumer drives
type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	maxHandleAttempts = 5
	initialBackoff    = 500 * time.Millisecond
	maxBackoff        = 30 * time.Second
)

// KafkaConsumer implements Consumer using a Kafka consumer group.
// Messages of a partition are handled one at a time, in offset order.
type KafkaConsumer struct {
	reader  messageReader
	logger  *slog.Logger
	topic   string
	groupID string
	backoff time.Duration
}

func NewKafkaConsumer(_ context.Context, logger *slog.Logger, cfg *config.KafkaConfig) *KafkaConsumer {
	return &KafkaConsumer{
		logger:  logger,
		topic:   cfg.TransactionEventsTopic,
		groupID: cfg.ConsumerGroup,
		backoff: initialBackoff,
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:     []string{cfg.Brokers},
			Topic:       cfg.TransactionEventsTopic,
			GroupID:     cfg.ConsumerGroup,
			MinBytes:    cfg.MinBytes,
			MaxBytes:    cfg.MaxBytes,
			MaxWait:     cfg.MaxWait,
			StartOffset: kafka.FirstOffset,
		}),
	}
}

// Subscribe starts consuming in the background until ctx is canceled
func (c *KafkaConsumer) Subscribe(ctx context.Context, handler MessageHandler) error {
	c.logger.Info("Subscribed to Kafka topic",
		"topic", c.topic,
		"group_id", c.groupID,
	)

	go c.consume(ctx, handler)
	return nil
}

func (c *KafkaConsumer) consume(ctx context.Context, handler MessageHandler) {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				c.logger.Info("Context canceled, stopping consumer", "topic", c.topic, "group_id", c.groupID)
				return
			}
			c.logger.Error("Failed to fetch message from Kafka", "topic", c.topic, "error", err)
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}

		c.logger.Debug("Received message from Kafka",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
		)

		if !c.handleWithRetry(ctx, handler, msg) {
			if ctx.Err() != nil {
				return
			}
			// left uncommitted, redelivered after the next rebalance
			continue
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("Failed to commit message after successful processing",
				"topic", msg.Topic,
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", err,
			)
		}
	}
}

// handleWithRetry retries transient failures with exponential backoff.
// Holding the message blocks later offsets of the partition.
func (c *KafkaConsumer) handleWithRetry(ctx context.Context, handler MessageHandler, msg kafka.Message) bool {
	backoff := c.backoff
	for attempt := 1; attempt <= maxHandleAttempts; attempt++ {
		err := handler(ctx, msg)
		if err == nil {
			return true
		}

		c.logger.Error("Failed to process message",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"key", string(msg.Key),
			"attempt", attempt,
			"error", err,
		)

		if attempt == maxHandleAttempts || !sleep(ctx, backoff) {
			break
		}
		backoff = min(backoff*2, maxBackoff)
	}

	c.logger.Error("Giving up on message, offset not committed",
		"topic", msg.Topic,
		"partition", msg.Partition,
		"offset", msg.Offset,
	)
	return false
}

func sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *KafkaConsumer) Close() error {
	if c.reader != nil {
		return c.reader.Close()
	}
	return nil
}
