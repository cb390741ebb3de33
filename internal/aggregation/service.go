package aggregation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/cashday-ledger/internal/domain/summary"
	"github.com/cashday-ledger/internal/domain/transaction"
)

// TransactionLister is the read side of the transaction log the aggregator needs
type TransactionLister interface {
	ListByRange(ctx context.Context, businessID string, start, end time.Time) ([]transaction.Record, error)
}

// Service loads a business day's transactions and aggregates them
type Service struct {
	logger       *slog.Logger
	resolver     *businessday.Resolver
	transactions TransactionLister
}

func NewService(logger *slog.Logger, resolver *businessday.Resolver, transactions TransactionLister) *Service {
	return &Service{
		logger:       logger.With("component", "day_aggregator"),
		resolver:     resolver,
		transactions: transactions,
	}
}

// Aggregate reads fresh from the transaction store on every call and holds no state between calls
func (s *Service) Aggregate(ctx context.Context, businessID string, day businessday.Day, tz string) (summary.Aggregate, error) {
	start, end, err := s.resolver.Bounds(day, tz)
	if err != nil {
		return summary.Aggregate{}, fmt.Errorf("resolve bounds for %s: %w", day, err)
	}

	records, err := s.transactions.ListByRange(ctx, businessID, start, end)
	if err != nil {
		return summary.Aggregate{}, fmt.Errorf("list transactions for %s/%s: %w", businessID, day, err)
	}

	entries := make([]transaction.Entry, 0, len(records))
	for _, r := range records {
		entry, err := transaction.Decode(r)
		if err != nil {
			s.logger.Warn("Skipping transaction",
				"business_id", businessID, "day", day, "transaction_id", r.UUID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	agg := Compute(day, entries)
	if agg.Openings > 1 || agg.Closures > 1 {
		s.logger.Warn("Duplicate register transactions, earliest wins",
			"business_id", businessID, "day", day, "openings", agg.Openings, "closures", agg.Closures)
	}

	s.logger.Debug("Day aggregated",
		"business_id", businessID,
		"day", day,
		"transactions", len(entries),
		"has_opening", agg.HasOpening,
		"has_closure", agg.HasClosure,
		"has_txn", agg.HasTxn)
	return agg, nil
}
