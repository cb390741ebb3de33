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
	"github.com/stretchr/testify/mock"
)

type MockBusinessReader struct {
	mock.Mock
}

func (m *MockBusinessReader) GetByID(ctx context.Context, id string) (*business.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Business), args.Error(1)
}

type MockDayAggregator struct {
	mock.Mock
}

func (m *MockDayAggregator) Aggregate(ctx context.Context, businessID string, day businessday.Day, tz string) (summary.Aggregate, error) {
	args := m.Called(ctx, businessID, day, tz)
	return args.Get(0).(summary.Aggregate), args.Error(1)
}

type MockSummaryRepo struct {
	mock.Mock
}

func (m *MockSummaryRepo) Upsert(ctx context.Context, businessID string, day businessday.Day, patch summary.Patch) error {
	args := m.Called(ctx, businessID, day, patch)
	return args.Error(0)
}

func (m *MockSummaryRepo) Get(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error) {
	args := m.Called(ctx, businessID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summary.DailySummary), args.Error(1)
}

func (m *MockSummaryRepo) ListActiveDays(ctx context.Context, businessID string, from businessday.Day) ([]businessday.Day, error) {
	args := m.Called(ctx, businessID, from)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]businessday.Day), args.Error(1)
}

type MockAutomation struct {
	mock.Mock
}

func (m *MockAutomation) LazyClose(ctx context.Context, businessID string, now time.Time) (scheduler.CloseOutcome, error) {
	args := m.Called(ctx, businessID, now)
	return args.Get(0).(scheduler.CloseOutcome), args.Error(1)
}

func (m *MockAutomation) OpenDay(ctx context.Context, businessID string, day businessday.Day) (scheduler.OpenOutcome, error) {
	args := m.Called(ctx, businessID, day)
	return args.Get(0).(scheduler.OpenOutcome), args.Error(1)
}

func (m *MockAutomation) Run(ctx context.Context, anchor time.Time) (execution.RunSummary, error) {
	args := m.Called(ctx, anchor)
	return args.Get(0).(execution.RunSummary), args.Error(1)
}

type MockRunHistory struct {
	mock.Mock
}

func (m *MockRunHistory) RecentRuns(ctx context.Context, limit int) ([]execution.RunSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]execution.RunSummary), args.Error(1)
}

type MockLedgerWriter struct {
	mock.Mock
}

func (m *MockLedgerWriter) Append(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(transaction.ChangeEvent), args.Error(1)
}

// Remove runs check against the record given to Return, like the real writer does inside its tx
func (m *MockLedgerWriter) Remove(ctx context.Context, businessID string, id uuid.UUID, check func(*transaction.Record) error) (transaction.ChangeEvent, error) {
	args := m.Called(ctx, businessID, id)
	if rec, ok := args.Get(0).(*transaction.Record); ok && check != nil {
		if err := check(rec); err != nil {
			return transaction.ChangeEvent{}, err
		}
	}
	return args.Get(1).(transaction.ChangeEvent), args.Error(2)
}
