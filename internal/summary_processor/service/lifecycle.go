package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/business"
	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
	"github.com/patrickmn/go-cache"
)

// OutcomeStatus says what HandleChange did with an event
type OutcomeStatus string

const (
	OutcomeUpdated OutcomeStatus = "updated"
	OutcomeIgnored OutcomeStatus = "ignored"
	OutcomeSkipped OutcomeStatus = "skipped"
)

// Skip and ignore reasons
const (
	ReasonPaymentAppendOnly = "payment_append_only"
	ReasonMissingCreatedAt  = "missing_created_at"
)

// Outcome of handling one change event
type Outcome struct {
	Status     OutcomeStatus   `json:"status"`
	BusinessID string          `json:"business_id,omitempty"`
	Day        businessday.Day `json:"day,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

// LifecycleService recomputes the affected day on every transaction change
type LifecycleService struct {
	businesses BusinessReader
	resolver   *businessday.Resolver
	aggregator DayAggregator
	summaries  summary.Repository
	streak     StreakUpdater
	timezones  *cache.Cache
	logger     *slog.Logger
	now        func() time.Time
}

func NewLifecycleService(
	businesses BusinessReader,
	resolver *businessday.Resolver,
	aggregator DayAggregator,
	summaries summary.Repository,
	streak StreakUpdater,
	timezoneTTL time.Duration,
	logger *slog.Logger,
) *LifecycleService {
	return &LifecycleService{
		businesses: businesses,
		resolver:   resolver,
		aggregator: aggregator,
		summaries:  summaries,
		streak:     streak,
		timezones:  cache.New(timezoneTTL, 2*timezoneTTL),
		logger:     logger.With("component", "lifecycle_controller"),
		now:        time.Now,
	}
}

// HandleChange rebuilds the summary of the day the changed row belongs to.
// Running it twice for the same event leaves the same summary.
func (s *LifecycleService) HandleChange(ctx context.Context, event transaction.ChangeEvent) (Outcome, error) {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	if event.IsPaymentAppendOnly() {
		logger.Debug("Ignoring payment append",
			"business_id", event.BusinessID,
			"transaction_id", event.TransactionID.String())
		return Outcome{Status: OutcomeIgnored, BusinessID: event.BusinessID, Reason: ReasonPaymentAppendOnly}, nil
	}

	subject := event.Subject()
	if subject == nil || subject.CreatedAt == nil {
		logger.Warn("Change event without createdAt, skipping",
			"business_id", event.BusinessID,
			"transaction_id", event.TransactionID.String(),
			"operation", event.Operation)
		return Outcome{Status: OutcomeSkipped, BusinessID: event.BusinessID, Reason: ReasonMissingCreatedAt}, nil
	}

	businessID := event.BusinessID
	if businessID == "" {
		businessID = subject.BusinessID
	}

	tz, err := s.timezone(ctx, businessID)
	if err != nil {
		return Outcome{}, err
	}

	day, err := s.resolver.DayOf(*subject.CreatedAt, tz)
	if err != nil {
		return Outcome{}, fmt.Errorf("resolve day for %s: %w", businessID, err)
	}

	agg, err := s.aggregator.Aggregate(ctx, businessID, day, tz)
	if err != nil {
		return Outcome{}, err
	}

	if err := s.summaries.Upsert(ctx, businessID, day, summary.FromAggregate(agg).Touch(s.now())); err != nil {
		return Outcome{}, err
	}

	logger.Info("Daily summary recomputed",
		"business_id", businessID,
		"day", day,
		"operation", event.Operation,
		"transaction_id", event.TransactionID.String(),
		"has_opening", agg.HasOpening,
		"has_closure", agg.HasClosure,
		"has_txn", agg.HasTxn)

	if agg.HasOpening && agg.HasTxn {
		s.updateStreak(ctx, logger, businessID, day)
	}

	return Outcome{Status: OutcomeUpdated, BusinessID: businessID, Day: day}, nil
}

// updateStreak never fails the event; the summary is already written
func (s *LifecycleService) updateStreak(ctx context.Context, logger *slog.Logger, businessID string, day businessday.Day) {
	doc, err := s.summaries.Get(ctx, businessID, day)
	if err != nil {
		logger.Error("Failed to read summary for streak update",
			"business_id", businessID, "day", day, "error", err)
		return
	}
	if _, err := s.streak.UpdateContextual(ctx, businessID, day, *doc); err != nil {
		logger.Error("Failed to update streak",
			"business_id", businessID, "day", day, "error", err)
	}
}

func (s *LifecycleService) timezone(ctx context.Context, businessID string) (string, error) {
	if tz, ok := s.timezones.Get(businessID); ok {
		return tz.(string), nil
	}

	b, err := s.businesses.GetByID(ctx, businessID)
	if err != nil {
		return "", err
	}

	tz := b.TZ()
	s.timezones.SetDefault(businessID, tz)
	return tz, nil
}

// IsFatal reports errors that redelivering the event cannot fix
func IsFatal(err error) bool {
	return errors.Is(err, business.ErrBusinessNotFound{})
}
