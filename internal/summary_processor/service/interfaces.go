package service

import (
	"context"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
)

// LifecycleController keeps the daily summary in step with the transaction log
type LifecycleController interface {
	HandleChange(ctx context.Context, event transaction.ChangeEvent) (Outcome, error)
}

// DayAggregator recomputes one business day from the raw transactions
type DayAggregator interface {
	Aggregate(ctx context.Context, businessID string, day businessday.Day, tz string) (summary.Aggregate, error)
}

// StreakUpdater reacts to a freshly written summary
type StreakUpdater interface {
	UpdateContextual(ctx context.Context, businessID string, day businessday.Day, doc summary.DailySummary) (business.Streak, error)
}

// BusinessReader looks up the business a change belongs to
type BusinessReader interface {
	GetByID(ctx context.Context, id string) (*business.Business, error)
}
