package service

import (
	"context"
	"time"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/scheduler"
	"github.com/google/uuid"
)

// SummaryService reads and rebuilds daily summaries
type SummaryService interface {
	// GetDay returns the cached summary. Returns ErrSummaryNotFound when nothing was written for the day.
	GetDay(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error)

	// Recompute rebuilds the day from its transactions and stores the result
	Recompute(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error)

	// GetStreak returns the streak with the active days of the trailing window
	GetStreak(ctx context.Context, businessID string, window int) (*StreakView, error)
}

// RegisterService exposes the register automation on demand
type RegisterService interface {
	LazyClose(ctx context.Context, businessID string) (scheduler.CloseOutcome, error)
	OpenDay(ctx context.Context, businessID string, day businessday.Day) (scheduler.OpenOutcome, error)
	RunNow(ctx context.Context) (execution.RunSummary, error)
	RecentRuns(ctx context.Context, limit int) ([]execution.RunSummary, error)
}

// TransactionService records and removes register transactions
type TransactionService interface {
	Record(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error)

	// Delete refuses openings, and closures outside their own business day
	Delete(ctx context.Context, businessID string, id uuid.UUID) (transaction.ChangeEvent, error)
}

// StreakView is a business streak plus recent activity
type StreakView struct {
	BusinessID string            `json:"business_id"`
	Timezone   string            `json:"timezone"`
	Streak     business.Streak   `json:"streak"`
	ActiveDays []businessday.Day `json:"active_days"`
	From       businessday.Day   `json:"from"`
}

// BusinessReader loads a business by id
type BusinessReader interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
}

// DayAggregator recomputes one business day
type DayAggregator interface {
	Aggregate(ctx context.Context, businessID string, day businessday.Day, tz string) (summary.Aggregate, error)
}

// Automation is the scheduler surface the gateway drives
type Automation interface {
	LazyClose(ctx context.Context, businessID string, now time.Time) (scheduler.CloseOutcome, error)
	OpenDay(ctx context.Context, businessID string, day businessday.Day) (scheduler.OpenOutcome, error)
	Run(ctx context.Context, anchor time.Time) (execution.RunSummary, error)
}

// LedgerWriter is the transactional write path for transactions
type LedgerWriter interface {
	Append(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error)
	Remove(ctx context.Context, businessID string, id uuid.UUID, check func(*transaction.Record) error) (transaction.ChangeEvent, error)
}
