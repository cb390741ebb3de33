package transaction

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository reads and writes the raw transaction log
type Repository interface {
	Create(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, businessID string, id uuid.UUID) (*Record, error)
	Delete(ctx context.Context, businessID string, id uuid.UUID) error

	// ListByRange returns every record with createdAt in [start, end)
	ListByRange(ctx context.Context, businessID string, start, end time.Time) ([]Record, error)

	// FindLatestBefore returns the newest record of the given type created strictly before the instant
	FindLatestBefore(ctx context.Context, businessID string, txType Type, before time.Time) (*Record, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrTransactionNotFound indicates a missing transaction
type ErrTransactionNotFound struct {
	ID uuid.UUID
}

func (e ErrTransactionNotFound) Error() string {
	if e.ID == uuid.Nil {
		return "transaction not found"
	}
	return "transaction not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrTransactionNotFound
func (e ErrTransactionNotFound) Is(target error) bool {
	t, ok := target.(ErrTransactionNotFound)
	if !ok {
		return false
	}
	return t.ID == uuid.Nil || e.ID == t.ID
}
