// Package ledger writes the raw transaction log together with its outbox change events.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/outbox"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type correlationKey struct{}

// WithCorrelationID attaches a correlation id that is copied onto emitted change events
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, correlationKey{}, id)
}

// CorrelationID returns the id set by WithCorrelationID, if any
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// Writer is the only path that mutates the transactions table. Every write
// and its change event commit in the same PostgreSQL transaction.
type Writer struct {
	db           persistence.TxRunner
	transactions transaction.Repository
	outbox       outbox.Repository
	logger       *slog.Logger
	now          func() time.Time
}

func NewWriter(
	db persistence.TxRunner,
	transactions transaction.Repository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
) *Writer {
	return &Writer{
		db:           db,
		transactions: transactions,
		outbox:       outboxRepo,
		logger:       logger,
		now:          time.Now,
	}
}

// Append validates and inserts rec, assigning an id when missing
func (w *Writer) Append(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error) {
	if rec.UUID == uuid.Nil {
		rec.UUID = uuid.New()
	}
	if err := rec.Validate(); err != nil {
		return transaction.ChangeEvent{}, err
	}

	logger := w.loggerFor(ctx)
	event := transaction.NewCreatedEvent(*rec, w.now())
	event.CorrelationID = CorrelationID(ctx)

	err := w.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := w.transactions.WithTx(tx).Create(ctx, rec); err != nil {
			return err
		}
		return w.enqueue(ctx, tx, event)
	})
	if err != nil {
		logger.Error("Failed to append transaction",
			"transaction_id", rec.UUID.String(),
			"business_id", rec.BusinessID,
			"type", rec.Type,
			"error", err)
		return transaction.ChangeEvent{}, err
	}

	logger.Info("Transaction appended",
		"transaction_id", rec.UUID.String(),
		"business_id", rec.BusinessID,
		"type", rec.Type,
		"event_id", event.EventID.String())
	return event, nil
}

// Remove deletes a record after check accepts it. check runs inside the
// transaction against the stored row; a nil check deletes unconditionally.
func (w *Writer) Remove(
	ctx context.Context,
	businessID string,
	id uuid.UUID,
	check func(*transaction.Record) error,
) (transaction.ChangeEvent, error) {
	logger := w.loggerFor(ctx)

	var event transaction.ChangeEvent
	err := w.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		txRepo := w.transactions.WithTx(tx)

		rec, err := txRepo.GetByID(ctx, businessID, id)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(rec); err != nil {
				return err
			}
		}
		if err := txRepo.Delete(ctx, businessID, id); err != nil {
			return err
		}

		event = transaction.NewDeletedEvent(*rec, w.now())
		event.CorrelationID = CorrelationID(ctx)
		return w.enqueue(ctx, tx, event)
	})
	if err != nil {
		logger.Warn("Failed to remove transaction",
			"transaction_id", id.String(),
			"business_id", businessID,
			"error", err)
		return transaction.ChangeEvent{}, err
	}

	logger.Info("Transaction removed",
		"transaction_id", id.String(),
		"business_id", businessID,
		"event_id", event.EventID.String())
	return event, nil
}

func (w *Writer) enqueue(ctx context.Context, tx pgx.Tx, event transaction.ChangeEvent) error {
	message, err := outbox.NewMessage(event)
	if err != nil {
		return fmt.Errorf("failed to create outbox message payload for tx %s: %w", event.TransactionID.String(), err)
	}
	if err := w.outbox.WithTx(tx).Create(ctx, message); err != nil {
		return fmt.Errorf("failed to create outbox message for tx %s: %w", event.TransactionID.String(), err)
	}
	return nil
}

func (w *Writer) loggerFor(ctx context.Context) *slog.Logger {
	if id := CorrelationID(ctx); id != "" {
		return w.logger.With("correlation_id", id)
	}
	return w.logger
}
