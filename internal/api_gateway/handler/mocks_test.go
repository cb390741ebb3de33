package handler

import (
	"context"
	"io"
	"log/slog"

	"github.com/cashday-ledger/internal/api_gateway/service"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/scheduler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) Record(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error) {
	args := m.Called(ctx, rec)
	return args.Get(0).(transaction.ChangeEvent), args.Error(1)
}

func (m *MockTransactionService) Delete(ctx context.Context, businessID string, id uuid.UUID) (transaction.ChangeEvent, error) {
	args := m.Called(ctx, businessID, id)
	return args.Get(0).(transaction.ChangeEvent), args.Error(1)
}

type MockSummaryService struct {
	mock.Mock
}

func (m *MockSummaryService) GetDay(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error) {
	args := m.Called(ctx, businessID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summary.DailySummary), args.Error(1)
}

func (m *MockSummaryService) Recompute(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error) {
	args := m.Called(ctx, businessID, day)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*summary.DailySummary), args.Error(1)
}

func (m *MockSummaryService) GetStreak(ctx context.Context, businessID string, window int) (*service.StreakView, error) {
	args := m.Called(ctx, businessID, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.StreakView), args.Error(1)
}

type MockRegisterService struct {
	mock.Mock
}

func (m *MockRegisterService) LazyClose(ctx context.Context, businessID string) (scheduler.CloseOutcome, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(scheduler.CloseOutcome), args.Error(1)
}

func (m *MockRegisterService) OpenDay(ctx context.Context, businessID string, day businessday.Day) (scheduler.OpenOutcome, error) {
	args := m.Called(ctx, businessID, day)
	return args.Get(0).(scheduler.OpenOutcome), args.Error(1)
}

func (m *MockRegisterService) RunNow(ctx context.Context) (execution.RunSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).(execution.RunSummary), args.Error(1)
}

func (m *MockRegisterService) RecentRuns(ctx context.Context, limit int) ([]execution.RunSummary, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]execution.RunSummary), args.Error(1)
}
