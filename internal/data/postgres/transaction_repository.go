// Package postgres provides PostgreSQL implementations of the domain repositories.
// The transaction log, businesses and the outbox live here; summaries are cached elsewhere.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const transactionColumns = `uuid, business_id, type, account, category, subcategory, description, amount,
		payments, payment_status, from_account, to_account, register, source, copilot_mode, metadata, created_at`

// TransactionRepository implements the transaction.Repository interface for PostgreSQL
type TransactionRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewTransactionRepository creates a new PostgreSQL transaction repository
func NewTransactionRepository(logger *slog.Logger, db *persistence.PostgresDB) transaction.Repository {
	return &TransactionRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *TransactionRepository) WithTx(tx pgx.Tx) transaction.Repository {
	return &TransactionRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create inserts a record. Records are never updated in place by this service.
func (r *TransactionRepository) Create(ctx context.Context, rec *transaction.Record) error {
	query := `
		INSERT INTO transactions (` + transactionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	payments, register, metadata, err := encodeRecordJSON(rec)
	if err != nil {
		return fmt.Errorf("failed to encode transaction %s: %w", rec.UUID, err)
	}

	_, err = r.querier.Exec(ctx, query,
		rec.UUID,
		rec.BusinessID,
		string(rec.Type),
		string(rec.Account),
		rec.Category,
		rec.Subcategory,
		rec.Description,
		rec.Amount,
		payments,
		string(rec.PaymentStatus),
		string(rec.FromAccount),
		string(rec.ToAccount),
		register,
		rec.Source,
		rec.CopilotMode,
		metadata,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create transaction", "transaction_id", rec.UUID.String(), "error", err)
		return fmt.Errorf("failed to create transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a record scoped to its business
func (r *TransactionRepository) GetByID(ctx context.Context, businessID string, id uuid.UUID) (*transaction.Record, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE business_id = $1 AND uuid = $2
	`

	rec, err := scanRecord(r.querier.QueryRow(ctx, query, businessID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{ID: id}
		}
		r.logger.Error("Failed to get transaction", "transaction_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	return rec, nil
}

func (r *TransactionRepository) Delete(ctx context.Context, businessID string, id uuid.UUID) error {
	query := `
		DELETE FROM transactions
		WHERE business_id = $1 AND uuid = $2
	`

	result, err := r.querier.Exec(ctx, query, businessID, id)
	if err != nil {
		r.logger.Error("Failed to delete transaction", "transaction_id", id.String(), "error", err)
		return fmt.Errorf("failed to delete transaction: %w", err)
	}

	if result.RowsAffected() == 0 {
		return transaction.ErrTransactionNotFound{ID: id}
	}

	return nil
}

// ListByRange returns the records created in [start, end), oldest first
func (r *TransactionRepository) ListByRange(ctx context.Context, businessID string, start, end time.Time) ([]transaction.Record, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE business_id = $1 AND created_at >= $2 AND created_at < $3
		ORDER BY created_at ASC, uuid ASC
	`

	rows, err := r.querier.Query(ctx, query, businessID, start, end)
	if err != nil {
		r.logger.Error("Failed to list transactions", "business_id", businessID, "error", err)
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var records []transaction.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			r.logger.Error("Failed to scan transaction", "business_id", businessID, "error", err)
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over transactions", "business_id", businessID, "error", err)
		return nil, fmt.Errorf("error iterating over transactions: %w", err)
	}

	return records, nil
}

// FindLatestBefore returns the newest record of txType created strictly before the instant
func (r *TransactionRepository) FindLatestBefore(ctx context.Context, businessID string, txType transaction.Type, before time.Time) (*transaction.Record, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM transactions
		WHERE business_id = $1 AND type = $2 AND created_at < $3
		ORDER BY created_at DESC, uuid DESC
		LIMIT 1
	`

	rec, err := scanRecord(r.querier.QueryRow(ctx, query, businessID, string(txType), before))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, transaction.ErrTransactionNotFound{}
		}
		r.logger.Error("Failed to find latest transaction",
			"business_id", businessID,
			"type", string(txType),
			"error", err,
		)
		return nil, fmt.Errorf("failed to find latest %s: %w", txType, err)
	}

	return rec, nil
}

func scanRecord(row pgx.Row) (*transaction.Record, error) {
	var (
		rec                                      transaction.Record
		txType, account, status, fromAcc, toAcc  string
		paymentsJSON, registerJSON, metadataJSON []byte
	)

	err := row.Scan(
		&rec.UUID,
		&rec.BusinessID,
		&txType,
		&account,
		&rec.Category,
		&rec.Subcategory,
		&rec.Description,
		&rec.Amount,
		&paymentsJSON,
		&status,
		&fromAcc,
		&toAcc,
		&registerJSON,
		&rec.Source,
		&rec.CopilotMode,
		&metadataJSON,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.Type = transaction.Type(txType)
	rec.Account = transaction.Account(account)
	rec.PaymentStatus = transaction.PaymentStatus(status)
	rec.FromAccount = transaction.Account(fromAcc)
	rec.ToAccount = transaction.Account(toAcc)

	if len(paymentsJSON) > 0 {
		if err := json.Unmarshal(paymentsJSON, &rec.Payments); err != nil {
			return nil, fmt.Errorf("decode payments: %w", err)
		}
	}
	if len(registerJSON) > 0 && string(registerJSON) != "null" {
		rec.Register = &transaction.RegisterFigures{}
		if err := json.Unmarshal(registerJSON, rec.Register); err != nil {
			return nil, fmt.Errorf("decode register: %w", err)
		}
	}
	if len(metadataJSON) > 0 {
		if err := json.Unmarshal(metadataJSON, &rec.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata: %w", err)
		}
	}

	return &rec, nil
}

func encodeRecordJSON(rec *transaction.Record) (payments, register, metadata []byte, err error) {
	p := rec.Payments
	if p == nil {
		p = []transaction.Payment{}
	}
	if payments, err = json.Marshal(p); err != nil {
		return nil, nil, nil, err
	}

	if rec.Register != nil {
		if register, err = json.Marshal(rec.Register); err != nil {
			return nil, nil, nil, err
		}
	}

	m := rec.Metadata
	if m == nil {
		m = map[string]any{}
	}
	if metadata, err = json.Marshal(m); err != nil {
		return nil, nil, nil, err
	}
	return payments, register, metadata, nil
}
