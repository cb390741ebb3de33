package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/google/uuid"
)

// ErrNotDeletable is returned when a register transaction is protected from deletion
type ErrNotDeletable struct {
	ID     uuid.UUID
	Reason string
}

func (e ErrNotDeletable) Error() string {
	return fmt.Sprintf("transaction %s cannot be deleted: %s", e.ID, e.Reason)
}

// TransactionServiceImpl implements the TransactionService interface
type TransactionServiceImpl struct {
	writer     LedgerWriter
	businesses BusinessReader
	resolver   *businessday.Resolver
	logger     *slog.Logger
	now        func() time.Time
}

func NewTransactionService(
	logger *slog.Logger,
	writer LedgerWriter,
	businesses BusinessReader,
	resolver *businessday.Resolver,
) TransactionService {
	return &TransactionServiceImpl{
		writer:     writer,
		businesses: businesses,
		resolver:   resolver,
		logger:     logger,
		now:        time.Now,
	}
}

// Record appends rec for an existing business. createdAt defaults to now.
func (s *TransactionServiceImpl) Record(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error) {
	if _, err := s.businesses.GetByID(ctx, rec.BusinessID); err != nil {
		return transaction.ChangeEvent{}, err
	}
	if rec.CreatedAt == nil {
		now := s.now()
		rec.CreatedAt = &now
	}
	if rec.Source == "" {
		rec.Source = transaction.SourceManual
	}
	return s.writer.Append(ctx, rec)
}

// Delete removes a transaction. Openings are permanent and a closure can only
// be removed during its own business day.
func (s *TransactionServiceImpl) Delete(ctx context.Context, businessID string, id uuid.UUID) (transaction.ChangeEvent, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return transaction.ChangeEvent{}, err
	}
	loc, err := s.resolver.Location(b.TZ())
	if err != nil {
		return transaction.ChangeEvent{}, err
	}

	now := s.now()
	return s.writer.Remove(ctx, businessID, id, func(rec *transaction.Record) error {
		switch rec.Type {
		case transaction.TypeOpening:
			return ErrNotDeletable{ID: id, Reason: "openings are permanent"}
		case transaction.TypeClosure:
			closure, ok := transaction.ClosureOf(*rec)
			if !ok || !closure.DeletableOn(now, loc) {
				s.logger.Warn("Rejected closure deletion outside its business day",
					"business_id", businessID, "transaction_id", id.String())
				return ErrNotDeletable{ID: id, Reason: "closures can only be removed on the day they belong to"}
			}
		}
		return nil
	})
}
