package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/platform/messaging/producers"
	"github.com/cashday-ledger/internal/summary_processor/service"
	"github.com/segmentio/kafka-go"
)

// ChangeEventHandler feeds transaction change events from Kafka into the lifecycle controller
type ChangeEventHandler struct {
	lifecycle service.LifecycleController
	producer  producers.DeadLetterPublisher
	logger    *slog.Logger
}

func NewChangeEventHandler(
	logger *slog.Logger,
	lifecycle service.LifecycleController,
	producer producers.DeadLetterPublisher,
) *ChangeEventHandler {
	return &ChangeEventHandler{
		lifecycle: lifecycle,
		producer:  producer,
		logger:    logger,
	}
}

// HandleMessage returns nil when the offset may be committed. Transient
// failures are returned so the consumer redelivers.
func (h *ChangeEventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event transaction.ChangeEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		h.logger.Error("Failed to unmarshal change event from Kafka message",
			"error", err,
			"message_key", string(msg.Key),
			"offset", msg.Offset)
		return h.park(ctx, msg, fmt.Sprintf("undecodable change event: %s", err.Error()))
	}

	logger := h.logger
	if event.CorrelationID != "" {
		logger = h.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Received transaction change event",
		"event_id", event.EventID.String(),
		"transaction_id", event.TransactionID.String(),
		"business_id", event.BusinessID,
		"operation", event.Operation)

	outcome, err := h.lifecycle.HandleChange(ctx, event)
	if err != nil {
		if service.IsFatal(err) {
			logger.Error("Change event can never be applied",
				"event_id", event.EventID.String(),
				"business_id", event.BusinessID,
				"error", err)
			return h.park(ctx, msg, err.Error())
		}
		logger.Error("Failed to handle change event",
			"event_id", event.EventID.String(),
			"business_id", event.BusinessID,
			"error", err)
		return fmt.Errorf("handling change event %s failed: %w", event.EventID.String(), err)
	}

	logger.Info("Change event handled",
		"event_id", event.EventID.String(),
		"status", outcome.Status,
		"day", outcome.Day,
		"reason", outcome.Reason)
	return nil
}

func (h *ChangeEventHandler) park(ctx context.Context, msg kafka.Message, reason string) error {
	err := h.producer.PublishToDLQ(ctx, msg, reason)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, producers.ErrDLQDisabled):
		h.logger.Error("Dropping unprocessable message, DLQ disabled",
			"message_key", string(msg.Key),
			"offset", msg.Offset,
			"reason", reason)
		return nil
	default:
		return fmt.Errorf("failed to park message at offset %d: %w", msg.Offset, err)
	}
}
