// Package streak maintains the per-business completion streak.
package streak

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/config"
	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
)

// Tracker applies streak transitions as optimistic read-modify-write cycles
type Tracker struct {
	businesses business.Repository
	maxRetries int
	logger     *slog.Logger
	now        func() time.Time
}

func NewTracker(logger *slog.Logger, businesses business.Repository, cfg config.StreakConfig) *Tracker {
	return &Tracker{
		businesses: businesses,
		maxRetries: cfg.MaxRetries,
		logger:     logger.With("component", "streak_tracker"),
		now:        time.Now,
	}
}

// transition returns the next streak and whether anything changed
type transition func(current business.Streak, now time.Time) (business.Streak, bool)

// BreakStreak resets the current run after an automated close
func (t *Tracker) BreakStreak(ctx context.Context, businessID string) (business.Streak, error) {
	return t.mutate(ctx, businessID, "break", func(s business.Streak, now time.Time) (business.Streak, bool) {
		return s.Break(now), true
	})
}

// IncrementIfConsecutive counts day as completed. Repeating the last
// completed day, or an earlier one, changes nothing.
func (t *Tracker) IncrementIfConsecutive(ctx context.Context, businessID string, day businessday.Day) (business.Streak, error) {
	return t.mutate(ctx, businessID, "increment", func(s business.Streak, now time.Time) (business.Streak, bool) {
		if s.LastCompletedDay != "" && day <= s.LastCompletedDay {
			return s, false
		}
		return s.Complete(day, now), true
	})
}

// UpdateContextual reacts to a recomputed summary: an organic close
// completes the day, any other activity only moves lastActiveDay.
func (t *Tracker) UpdateContextual(ctx context.Context, businessID string, day businessday.Day, doc summary.DailySummary) (business.Streak, error) {
	if doc.HasClosure && !doc.IsAutoClosed {
		return t.IncrementIfConsecutive(ctx, businessID, day)
	}
	return t.mutate(ctx, businessID, "touch", func(s business.Streak, now time.Time) (business.Streak, bool) {
		if s.LastActiveDay != "" && day <= s.LastActiveDay {
			return s, false
		}
		return s.Touch(day, now), true
	})
}

func (t *Tracker) mutate(ctx context.Context, businessID, op string, next transition) (business.Streak, error) {
	var lastErr error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		b, err := t.businesses.GetByID(ctx, businessID)
		if err != nil {
			return business.Streak{}, err
		}

		updated, changed := next(b.Streak, t.now())
		if !changed {
			return b.Streak, nil
		}

		err = t.businesses.UpdateStreak(ctx, businessID, updated, b.Streak.Version)
		if err == nil {
			updated.Version = b.Streak.Version + 1
			t.logger.Info("Streak updated",
				"business_id", businessID,
				"op", op,
				"current", updated.Current,
				"max", updated.Max,
				"last_completed_day", updated.LastCompletedDay)
			return updated, nil
		}
		if !errors.Is(err, business.ErrConcurrentModification{}) {
			return business.Streak{}, err
		}

		lastErr = err
		t.logger.Warn("Streak version moved, retrying",
			"business_id", businessID,
			"op", op,
			"attempt", attempt)
	}
	return business.Streak{}, fmt.Errorf("%s streak for %s gave up after %d attempts: %w", op, businessID, t.maxRetries, lastErr)
}
