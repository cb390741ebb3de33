package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/platform/persistence"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ExecutionRepository appends scheduler audit records to MongoDB
type ExecutionRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewExecutionRepository creates a new MongoDB execution sink
func NewExecutionRepository(logger *slog.Logger, db *mongo.Database) *ExecutionRepository {
	return &ExecutionRepository{
		db:     db,
		logger: logger,
	}
}

var (
	_ execution.Sink       = (*ExecutionRepository)(nil)
	_ execution.RunHistory = (*ExecutionRepository)(nil)
)

// RecordRun appends a run summary to scheduled_executions
func (r *ExecutionRepository) RecordRun(ctx context.Context, run execution.RunSummary) error {
	if _, err := r.db.Collection(persistence.CollectionScheduledExecutions).InsertOne(ctx, run); err != nil {
		r.logger.Error("Failed to record scheduler run",
			"anchor", run.Anchor,
			"error", err)
		return fmt.Errorf("failed to record scheduler run: %w", err)
	}
	return nil
}

// RecordError appends a per-business failure to system_logs
func (r *ExecutionRepository) RecordError(ctx context.Context, entry execution.ErrorLog) error {
	if _, err := r.db.Collection(persistence.CollectionSystemLogs).InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to record system log",
			"business_id", entry.BusinessID,
			"type", entry.Type,
			"error", err)
		return fmt.Errorf("failed to record system log: %w", err)
	}
	return nil
}

// RecordAutoClose appends a traceability record for a synthesized register transaction
func (r *ExecutionRepository) RecordAutoClose(ctx context.Context, entry execution.AutoCloseLog) error {
	if _, err := r.db.Collection(persistence.CollectionAutoCloseLogs).InsertOne(ctx, entry); err != nil {
		r.logger.Error("Failed to record auto close log",
			"business_id", entry.BusinessID,
			"day", entry.Day,
			"error", err)
		return fmt.Errorf("failed to record auto close log: %w", err)
	}
	return nil
}

// RecentRuns returns up to limit run summaries, newest anchor first
func (r *ExecutionRepository) RecentRuns(ctx context.Context, limit int) ([]execution.RunSummary, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "anchor", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(persistence.CollectionScheduledExecutions).Find(ctx, bson.M{}, opts)
	if err != nil {
		r.logger.Error("Failed to list scheduler runs", "error", err)
		return nil, fmt.Errorf("failed to list scheduler runs: %w", err)
	}
	defer cursor.Close(ctx)

	var runs []execution.RunSummary
	if err := cursor.All(ctx, &runs); err != nil {
		r.logger.Error("Failed to decode scheduler runs", "error", err)
		return nil, fmt.Errorf("failed to decode scheduler runs: %w", err)
	}
	return runs, nil
}
