package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/domain/outbox"
	"github.com/cashday-ledger/internal/platform/messaging/producers"
)

// EventRelay publishes one outbox message to the change-event topic
type EventRelay interface {
	Relay(ctx context.Context, message *outbox.Message) error
}

// EventRelayImpl implements EventRelay
type EventRelayImpl struct {
	outboxRepo outbox.Repository
	publisher  producers.MessagePublisher
	logger     *slog.Logger
}

func NewEventRelay(
	outboxRepo outbox.Repository,
	publisher producers.MessagePublisher,
	logger *slog.Logger,
) EventRelay {
	return &EventRelayImpl{
		outboxRepo: outboxRepo,
		publisher:  publisher,
		logger:     logger,
	}
}

// Relay publishes the stored payload keyed by business id, then marks the row processed.
// A crash between the two republishes the event, which consumers tolerate.
func (r *EventRelayImpl) Relay(ctx context.Context, message *outbox.Message) error {
	event, err := message.ChangeEvent()
	if err != nil {
		r.logger.Error("Failed to unmarshal change event from outbox payload",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err)
		if updateErr := r.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			r.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error",
				"outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := r.logger
	if event.CorrelationID != "" {
		logger = r.logger.With("correlation_id", event.CorrelationID)
	}

	if err := r.publisher.Publish(ctx, message.BusinessID, message.Payload); err != nil {
		return fmt.Errorf("failed to publish outbox %d: %w", message.ID, err)
	}

	if err := r.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "transaction_id", message.TransactionID, "error", err)
		return fmt.Errorf("published outbox %d, but failed to mark it PROCESSED: %w", message.ID, err)
	}

	logger.Info("Change event relayed",
		"outbox_id", message.ID,
		"event_id", event.EventID.String(),
		"business_id", message.BusinessID,
		"operation", event.Operation)
	return nil
}
