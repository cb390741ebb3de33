package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
)

// SummaryServiceImpl implements the SummaryService interface
type SummaryServiceImpl struct {
	businesses BusinessReader
	aggregator DayAggregator
	summaries  summary.Repository
	resolver   *businessday.Resolver
	logger     *slog.Logger
	now        func() time.Time
}

func NewSummaryService(
	logger *slog.Logger,
	businesses BusinessReader,
	aggregator DayAggregator,
	summaries summary.Repository,
	resolver *businessday.Resolver,
) SummaryService {
	return &SummaryServiceImpl{
		businesses: businesses,
		aggregator: aggregator,
		summaries:  summaries,
		resolver:   resolver,
		logger:     logger,
		now:        time.Now,
	}
}

// GetDay returns the cached summary document
func (s *SummaryServiceImpl) GetDay(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error) {
	return s.summaries.Get(ctx, businessID, day)
}

// Recompute overwrites the derived fields. Automation markers are kept.
func (s *SummaryServiceImpl) Recompute(ctx context.Context, businessID string, day businessday.Day) (*summary.DailySummary, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	agg, err := s.aggregator.Aggregate(ctx, businessID, day, b.TZ())
	if err != nil {
		return nil, err
	}

	if err := s.summaries.Upsert(ctx, businessID, day, summary.FromAggregate(agg).Touch(s.now())); err != nil {
		return nil, err
	}

	s.logger.Info("Daily summary recomputed",
		"business_id", businessID,
		"day", day,
		"has_opening", agg.HasOpening,
		"has_closure", agg.HasClosure,
		"has_txn", agg.HasTxn)

	return s.summaries.Get(ctx, businessID, day)
}

// GetStreak returns the streak and the active days among the last window days
func (s *SummaryServiceImpl) GetStreak(ctx context.Context, businessID string, window int) (*StreakView, error) {
	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return nil, err
	}

	today, err := s.resolver.DayOf(s.now(), b.TZ())
	if err != nil {
		return nil, err
	}
	from := today.Minus(window - 1)

	days, err := s.summaries.ListActiveDays(ctx, businessID, from)
	if err != nil {
		return nil, err
	}

	return &StreakView{
		BusinessID: businessID,
		Timezone:   b.TZ(),
		Streak:     b.Streak,
		ActiveDays: days,
		From:       from,
	}, nil
}
