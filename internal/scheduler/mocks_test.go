package scheduler

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/execution"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/cashday-ledger/internal/platform/lock"
	"github.com/stretchr/testify/mock"
)

type MockBusinesses struct {
	mock.Mock
}

func (m *MockBusinesses) GetByID(ctx context.Context, id string) (*business.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Business), args.Error(1)
}

func (m *MockBusinesses) List(ctx context.Context) ([]*business.Business, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*business.Business), args.Error(1)
}

type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) Aggregate(ctx context.Context, businessID string, day businessday.Day, tz string) (summary.Aggregate, error) {
	args := m.Called(ctx, businessID, day, tz)
	return args.Get(0).(summary.Aggregate), args.Error(1)
}

type MockClosureFinder struct {
	mock.Mock
}

func (m *MockClosureFinder) FindLatestBefore(ctx context.Context, businessID string, txType transaction.Type, before time.Time) (*transaction.Record, error) {
	args := m.Called(ctx, businessID, txType, before)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transaction.Record), args.Error(1)
}

type MockAppender struct {
	mock.Mock
}

func (m *MockAppender) Append(ctx context.Context, rec *transaction.Record) (transaction.ChangeEvent, error) {
	args := m.Called(ctx, rec)
	return transaction.ChangeEvent{}, args.Error(0)
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

type MockStreak struct {
	mock.Mock
}

func (m *MockStreak) BreakStreak(ctx context.Context, businessID string) (business.Streak, error) {
	args := m.Called(ctx, businessID)
	return args.Get(0).(business.Streak), args.Error(1)
}

func (m *MockStreak) IncrementIfConsecutive(ctx context.Context, businessID string, day businessday.Day) (business.Streak, error) {
	args := m.Called(ctx, businessID, day)
	return args.Get(0).(business.Streak), args.Error(1)
}

type MockLocker struct {
	mock.Mock
}

func (m *MockLocker) Acquire(ctx context.Context, key string) (lock.Release, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(lock.Release), args.Error(1)
}

type MockSink struct {
	mock.Mock
}

func (m *MockSink) RecordRun(ctx context.Context, run execution.RunSummary) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

func (m *MockSink) RecordError(ctx context.Context, entry execution.ErrorLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSink) RecordAutoClose(ctx context.Context, entry execution.AutoCloseLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) Export(ctx context.Context, run execution.RunSummary) error {
	args := m.Called(ctx, run)
	return args.Error(0)
}

type fixture struct {
	businesses *MockBusinesses
	aggregator *MockAggregator
	closures   *MockClosureFinder
	writer     *MockAppender
	summaries  *MockSummaryRepo
	streak     *MockStreak
	locker     *MockLocker
	sink       *MockSink
	scheduler  *Scheduler
}

var fixedNow = time.Date(2024, 3, 2, 4, 59, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		businesses: new(MockBusinesses),
		aggregator: new(MockAggregator),
		closures:   new(MockClosureFinder),
		writer:     new(MockAppender),
		summaries:  new(MockSummaryRepo),
		streak:     new(MockStreak),
		locker:     new(MockLocker),
		sink:       new(MockSink),
	}
	cfg := config.SchedulerConfig{
		Cron:        "59 23 * * *",
		Timezone:    "America/Lima",
		RunDeadline: time.Minute,
		Concurrency: 2,
		LockTTL:     2 * time.Minute,
	}
	f.scheduler = New(slog.New(slog.NewTextHandler(io.Discard, nil)), cfg, Deps{
		Businesses: f.businesses,
		Aggregator: f.aggregator,
		Closures:   f.closures,
		Writer:     f.writer,
		Summaries:  f.summaries,
		Streak:     f.streak,
		Locker:     f.locker,
		Sink:       f.sink,
	})
	f.scheduler.now = func() time.Time { return fixedNow }
	return f
}

func (f *fixture) assertExpectations(t mock.TestingT) {
	f.businesses.AssertExpectations(t)
	f.aggregator.AssertExpectations(t)
	f.closures.AssertExpectations(t)
	f.writer.AssertExpectations(t)
	f.summaries.AssertExpectations(t)
	f.streak.AssertExpectations(t)
	f.locker.AssertExpectations(t)
	f.sink.AssertExpectations(t)
}
