package scheduler

import (
	"context"
	"time"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/platform/lock"
)

// Businesses is the business catalogue the scheduler walks
type Businesses interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
	List(ctx context.Context) ([]*business.Business, error)
}

// DayAggregator recomputes one business day from the raw transactions
type DayAggregator interface {
	Aggregate(ctx context.Context, businessID string, day businessday.Day, tz string) (summary.Aggregate, error)
}

// ClosureFinder locates the register closure an automatic opening copies from
type ClosureFinder interface {
	FindLatestBefore(ctx context.Context, businessID string, txType transaction.Type, before time.Time) (*transaction.Record, error)
}

// RecordAppender writes synthesized register transactions with their change events
type RecordAppender interface {
	Append(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error)
}

// StreakTracker is the part of the streak tracker automation drives
type StreakTracker interface {
	BreakStreak(ctx context.Context, businessID string) (business.Streak, error)
	IncrementIfConsecutive(ctx context.Context, businessID string, day businessday.Day) (business.Streak, error)
}

// RunLocker keeps two replicas from running the same anchor
type RunLocker interface {
	Acquire(ctx context.Context, key string) (lock.Release, error)
}
