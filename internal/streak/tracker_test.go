package streak

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockBusinessRepo struct {
	mock.Mock
}

func (m *MockBusinessRepo) GetByID(ctx context.Context, id string) (*business.Business, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*business.Business), args.Error(1)
}

func (m *MockBusinessRepo) List(ctx context.Context) ([]*business.Business, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*business.Business), args.Error(1)
}

func (m *MockBusinessRepo) UpdateStreak(ctx context.Context, id string, streak business.Streak, version int) error {
	return m.Called(ctx, id, streak, version).Error(0)
}

var fixedNow = time.Date(2024, 3, 2, 4, 59, 0, 0, time.UTC)

func newTestTracker(repo business.Repository) *Tracker {
	tr := NewTracker(slog.New(slog.NewTextHandler(io.Discard, nil)), repo, config.StreakConfig{MaxRetries: 3})
	tr.now = func() time.Time { return fixedNow }
	return tr
}

func withStreak(s business.Streak) *business.Business {
	return &business.Business{ID: "biz-1", Streak: s}
}

func TestTracker_BreakStreak(t *testing.T) {
	ctx := context.Background()
	repo := new(MockBusinessRepo)
	tr := newTestTracker(repo)

	repo.On("GetByID", ctx, "biz-1").Return(withStreak(business.Streak{Current: 4, Max: 6, CopilotDays: 1, Version: 7}), nil)
	repo.On("UpdateStreak", ctx, "biz-1", mock.MatchedBy(func(s business.Streak) bool {
		return s.Current == 0 && s.Max == 6 && s.CopilotDays == 2 && s.BrokenAt != nil && s.BrokenAt.Equal(fixedNow)
	}), 7).Return(nil)

	got, err := tr.BreakStreak(ctx, "biz-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.Current)
	assert.Equal(t, 8, got.Version)
	repo.AssertExpectations(t)
}

func TestTracker_IncrementIfConsecutive(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name        string
		streak      business.Streak
		day         businessday.Day
		wantCurrent int
		wantMax     int
		wantWrite   bool
	}{
		{"Consecutive", business.Streak{Current: 2, Max: 2, LastCompletedDay: "2024-02-29"}, "2024-03-01", 3, 3, true},
		{"AfterGap", business.Streak{Current: 5, Max: 5, LastCompletedDay: "2024-02-27"}, "2024-03-01", 1, 5, true},
		{"FirstEver", business.Streak{}, "2024-03-01", 1, 1, true},
		{"SameDayIsIdempotent", business.Streak{Current: 3, Max: 4, LastCompletedDay: "2024-03-01"}, "2024-03-01", 3, 4, false},
		{"OlderDayIgnored", business.Streak{Current: 3, Max: 4, LastCompletedDay: "2024-03-01"}, "2024-02-20", 3, 4, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockBusinessRepo)
			tr := newTestTracker(repo)

			repo.On("GetByID", ctx, "biz-1").Return(withStreak(tc.streak), nil)
			if tc.wantWrite {
				repo.On("UpdateStreak", ctx, "biz-1", mock.Anything, tc.streak.Version).Return(nil)
			}

			got, err := tr.IncrementIfConsecutive(ctx, "biz-1", tc.day)
			require.NoError(t, err)
			assert.Equal(t, tc.wantCurrent, got.Current)
			assert.Equal(t, tc.wantMax, got.Max)
			assert.Equal(t, tc.streak.CopilotDays, got.CopilotDays)
			if !tc.wantWrite {
				repo.AssertNotCalled(t, "UpdateStreak", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestTracker_RetriesLostRace(t *testing.T) {
	ctx := context.Background()

	t.Run("re-reads after version conflict", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)

		repo.On("GetByID", ctx, "biz-1").
			Return(withStreak(business.Streak{Current: 1, LastCompletedDay: "2024-02-28", Version: 1}), nil).Once()
		repo.On("UpdateStreak", ctx, "biz-1", mock.Anything, 1).
			Return(business.ErrConcurrentModification{BusinessID: "biz-1"}).Once()
		repo.On("GetByID", ctx, "biz-1").
			Return(withStreak(business.Streak{Current: 1, LastCompletedDay: "2024-02-29", Version: 2}), nil).Once()
		repo.On("UpdateStreak", ctx, "biz-1", mock.Anything, 2).Return(nil).Once()

		got, err := tr.IncrementIfConsecutive(ctx, "biz-1", "2024-03-01")
		require.NoError(t, err)
		assert.Equal(t, 2, got.Current, "second attempt sees the concurrent completion")
		assert.Equal(t, 3, got.Version)
		repo.AssertExpectations(t)
	})

	t.Run("gives up after bound", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)

		repo.On("GetByID", ctx, "biz-1").Return(withStreak(business.Streak{Version: 1}), nil)
		repo.On("UpdateStreak", ctx, "biz-1", mock.Anything, 1).Return(business.ErrConcurrentModification{BusinessID: "biz-1"})

		_, err := tr.BreakStreak(ctx, "biz-1")
		assert.ErrorIs(t, err, business.ErrConcurrentModification{})
		repo.AssertNumberOfCalls(t, "UpdateStreak", 3)
	})

	t.Run("other errors are not retried", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)
		dbErr := errors.New("connection reset")

		repo.On("GetByID", ctx, "biz-1").Return(withStreak(business.Streak{Version: 1}), nil)
		repo.On("UpdateStreak", ctx, "biz-1", mock.Anything, 1).Return(dbErr)

		_, err := tr.BreakStreak(ctx, "biz-1")
		assert.ErrorIs(t, err, dbErr)
		repo.AssertNumberOfCalls(t, "UpdateStreak", 1)
	})

	t.Run("missing business", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)

		repo.On("GetByID", ctx, "nope").Return(nil, business.ErrBusinessNotFound{BusinessID: "nope"})

		_, err := tr.BreakStreak(ctx, "nope")
		assert.ErrorIs(t, err, business.ErrBusinessNotFound{BusinessID: "nope"})
	})
}

func TestTracker_UpdateContextual(t *testing.T) {
	ctx := context.Background()
	day := businessday.Day("2024-03-01")

	organic := summary.Empty("biz-1", day)
	organic.HasOpening, organic.HasTxn, organic.HasClosure = true, true, true

	autoClosed := organic
	autoClosed.IsAutoClosed = true

	open := summary.Empty("biz-1", day)
	open.HasOpening, open.HasTxn = true, true

	t.Run("organic close completes the day", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)
		repo.On("GetByID", ctx, "biz-1").Return(withStreak(business.Streak{LastCompletedDay: "2024-02-29", Current: 1, Max: 1}), nil)
		repo.On("UpdateStreak", ctx, "biz-1", mock.Anything, 0).Return(nil)

		got, err := tr.UpdateContextual(ctx, "biz-1", day, organic)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Current)
		assert.Equal(t, day, got.LastCompletedDay)
		assert.Equal(t, day, got.LastActiveDay)
	})

	t.Run("auto closed day only records activity", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)
		repo.On("GetByID", ctx, "biz-1").Return(withStreak(business.Streak{LastCompletedDay: "2024-02-29", Current: 1, Max: 1}), nil)
		repo.On("UpdateStreak", ctx, "biz-1", mock.MatchedBy(func(s business.Streak) bool {
			return s.Current == 1 && s.LastActiveDay == day && s.LastCompletedDay == "2024-02-29"
		}), 0).Return(nil)

		got, err := tr.UpdateContextual(ctx, "biz-1", day, autoClosed)
		require.NoError(t, err)
		assert.Equal(t, day, got.LastActiveDay)
		repo.AssertExpectations(t)
	})

	t.Run("open day already recorded is a no-op", func(t *testing.T) {
		repo := new(MockBusinessRepo)
		tr := newTestTracker(repo)
		repo.On("GetByID", ctx, "biz-1").Return(withStreak(business.Streak{LastActiveDay: day}), nil)

		_, err := tr.UpdateContextual(ctx, "biz-1", day, open)
		require.NoError(t, err)
		repo.AssertNotCalled(t, "UpdateStreak", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
