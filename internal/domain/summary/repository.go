package summary

import (
	"context"

	"github.com/cashday-ledger/internal/domain/businessday"
)

// Repository persists daily summaries with merge semantics only
type Repository interface {
	// Upsert applies patch to the business day document, creating it when missing
	Upsert(ctx context.Context, businessID string, day businessday.Day, patch Patch) error
	Get(ctx context.Context, businessID string, day businessday.Day) (*DailySummary, error)

	// ListActiveDays returns days with activity on or after from, ascending
	ListActiveDays(ctx context.Context, businessID string, from businessday.Day) ([]businessday.Day, error)
}

// ErrSummaryNotFound indicates no summary was written for the day yet
type ErrSummaryNotFound struct {
	BusinessID string
	Day        businessday.Day
}

func (e ErrSummaryNotFound) Error() string {
	return "daily summary not found: " + e.BusinessID + "/" + string(e.Day)
}

// Is implements the errors.Is interface for ErrSummaryNotFound
func (e ErrSummaryNotFound) Is(target error) bool {
	t, ok := target.(ErrSummaryNotFound)
	if !ok {
		return false
	}
	if t.BusinessID == "" && t.Day == "" {
		return true
	}
	return e.BusinessID == t.BusinessID && e.Day == t.Day
}
