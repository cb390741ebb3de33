package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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
	return m.Called(ctx, businessID, day, patch).Error(0)
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
	return args.Get(0).([]businessday.Day), args.Error(1)
}

type MockStreakUpdater struct {
	mock.Mock
}

func (m *MockStreakUpdater) UpdateContextual(ctx context.Context, businessID string, day businessday.Day, doc summary.DailySummary) (business.Streak, error) {
	args := m.Called(ctx, businessID, day, doc)
	return args.Get(0).(business.Streak), args.Error(1)
}

type lifecycleMocks struct {
	businesses *MockBusinessReader
	aggregator *MockDayAggregator
	summaries  *MockSummaryRepo
	streak     *MockStreakUpdater
}

func newTestLifecycle() (*LifecycleService, lifecycleMocks) {
	m := lifecycleMocks{
		businesses: new(MockBusinessReader),
		aggregator: new(MockDayAggregator),
		summaries:  new(MockSummaryRepo),
		streak:     new(MockStreakUpdater),
	}
	svc := NewLifecycleService(m.businesses, businessday.NewResolver(), m.aggregator, m.summaries, m.streak,
		time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)))
	svc.now = func() time.Time { return time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC) }
	return svc, m
}

// 2024-03-01 19:30 in Lima
var limaEvening = time.Date(2024, 3, 2, 0, 30, 0, 0, time.UTC)

func incomeAt(at time.Time) transaction.Record {
	return transaction.Record{
		UUID:          uuid.New(),
		BusinessID:    "biz-1",
		Type:          transaction.TypeIncome,
		Account:       transaction.AccountCash,
		Amount:        decimal.RequireFromString("80.00"),
		PaymentStatus: transaction.PaymentStatusCompleted,
		CreatedAt:     &at,
	}
}

func TestLifecycleService_HandleChange(t *testing.T) {
	ctx := context.Background()
	lima := &business.Business{ID: "biz-1", Timezone: "America/Lima"}
	day := businessday.Day("2024-03-01")

	t.Run("create recomputes the business-local day", func(t *testing.T) {
		svc, m := newTestLifecycle()
		event := transaction.NewCreatedEvent(incomeAt(limaEvening), limaEvening)
		agg := summary.Aggregate{Day: day, HasOpening: true, HasTxn: true}
		doc := &summary.DailySummary{BusinessID: "biz-1", Aggregate: agg}

		m.businesses.On("GetByID", ctx, "biz-1").Return(lima, nil).Once()
		m.aggregator.On("Aggregate", ctx, "biz-1", day, "America/Lima").Return(agg, nil)
		m.summaries.On("Upsert", ctx, "biz-1", day, mock.MatchedBy(func(p summary.Patch) bool {
			_, touched := p["lastUpdated"]
			return p["hasTxn"] == true && touched
		})).Return(nil)
		m.summaries.On("Get", ctx, "biz-1", day).Return(doc, nil)
		m.streak.On("UpdateContextual", ctx, "biz-1", day, *doc).Return(business.Streak{LastActiveDay: day}, nil)

		outcome, err := svc.HandleChange(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, Outcome{Status: OutcomeUpdated, BusinessID: "biz-1", Day: day}, outcome)

		// Replaying hits the timezone cache and yields the same outcome
		again, err := svc.HandleChange(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, outcome, again)

		m.businesses.AssertNumberOfCalls(t, "GetByID", 1)
		m.summaries.AssertNumberOfCalls(t, "Upsert", 2)
		m.streak.AssertExpectations(t)
	})

	t.Run("delete uses the removed row", func(t *testing.T) {
		svc, m := newTestLifecycle()
		event := transaction.NewDeletedEvent(incomeAt(limaEvening), limaEvening.Add(time.Hour))
		agg := summary.Aggregate{Day: day}

		m.businesses.On("GetByID", ctx, "biz-1").Return(lima, nil)
		m.aggregator.On("Aggregate", ctx, "biz-1", day, "America/Lima").Return(agg, nil)
		m.summaries.On("Upsert", ctx, "biz-1", day, mock.Anything).Return(nil)

		outcome, err := svc.HandleChange(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, day, outcome.Day)
		m.streak.AssertNotCalled(t, "UpdateContextual", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("payment append is ignored", func(t *testing.T) {
		svc, m := newTestLifecycle()
		before := incomeAt(limaEvening)
		before.PaymentStatus = transaction.PaymentStatusPartial
		after := before
		after.Payments = []transaction.Payment{{Amount: decimal.RequireFromString("20"), Account: transaction.AccountCash}}
		event := transaction.ChangeEvent{
			BusinessID: "biz-1", TransactionID: before.UUID,
			Operation: transaction.OperationUpdate, Before: &before, After: &after,
		}

		outcome, err := svc.HandleChange(ctx, event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeIgnored, outcome.Status)
		assert.Equal(t, ReasonPaymentAppendOnly, outcome.Reason)
		m.summaries.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing createdAt is a soft skip", func(t *testing.T) {
		svc, m := newTestLifecycle()
		rec := incomeAt(limaEvening)
		rec.CreatedAt = nil

		outcome, err := svc.HandleChange(ctx, transaction.NewDeletedEvent(rec, limaEvening))
		require.NoError(t, err)
		assert.Equal(t, OutcomeSkipped, outcome.Status)
		assert.Equal(t, ReasonMissingCreatedAt, outcome.Reason)
		m.businesses.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("unknown business is fatal", func(t *testing.T) {
		svc, m := newTestLifecycle()
		m.businesses.On("GetByID", ctx, "biz-1").Return(nil, business.ErrBusinessNotFound{BusinessID: "biz-1"})

		_, err := svc.HandleChange(ctx, transaction.NewCreatedEvent(incomeAt(limaEvening), limaEvening))
		assert.ErrorIs(t, err, business.ErrBusinessNotFound{})
		assert.True(t, IsFatal(err))
	})

	t.Run("upsert failure propagates", func(t *testing.T) {
		svc, m := newTestLifecycle()
		dbErr := errors.New("mongo down")
		m.businesses.On("GetByID", ctx, "biz-1").Return(lima, nil)
		m.aggregator.On("Aggregate", ctx, "biz-1", day, "America/Lima").Return(summary.Aggregate{Day: day}, nil)
		m.summaries.On("Upsert", ctx, "biz-1", day, mock.Anything).Return(dbErr)

		_, err := svc.HandleChange(ctx, transaction.NewCreatedEvent(incomeAt(limaEvening), limaEvening))
		assert.ErrorIs(t, err, dbErr)
		assert.False(t, IsFatal(err))
	})

	t.Run("streak failure is swallowed", func(t *testing.T) {
		svc, m := newTestLifecycle()
		agg := summary.Aggregate{Day: day, HasOpening: true, HasTxn: true}
		doc := &summary.DailySummary{BusinessID: "biz-1", Aggregate: agg}

		m.businesses.On("GetByID", ctx, "biz-1").Return(lima, nil)
		m.aggregator.On("Aggregate", ctx, "biz-1", day, "America/Lima").Return(agg, nil)
		m.summaries.On("Upsert", ctx, "biz-1", day, mock.Anything).Return(nil)
		m.summaries.On("Get", ctx, "biz-1", day).Return(doc, nil)
		m.streak.On("UpdateContextual", ctx, "biz-1", day, *doc).
			Return(business.Streak{}, business.ErrConcurrentModification{BusinessID: "biz-1"})

		outcome, err := svc.HandleChange(ctx, transaction.NewCreatedEvent(incomeAt(limaEvening), limaEvening))
		require.NoError(t, err)
		assert.Equal(t, OutcomeUpdated, outcome.Status)
	})
}
