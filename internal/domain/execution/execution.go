// Package execution records what automated runs did, for auditing.
package execution

import (
	"context"
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
	"github.com/shopspring/decimal"
)

// Action is what a scheduler pass did for one business
type Action string

const (
	ActionAutoOpened      Action = "auto_opened"
	ActionAutoClosed      Action = "auto_closed"
	ActionStreakIncreased Action = "streak_increased"
	ActionNoAction        Action = "no_action"
	ActionSkipped         Action = "skipped"
	ActionError           Action = "error"
)

// RunType identifies the automation that produced a summary
const RunTypeAutoClose = "auto_close"

// RunSummary is appended once per scheduler run
type RunSummary struct {
	ID              string    `bson:"_id,omitempty" json:"id,omitempty" bigquery:"id"`
	Type            string    `bson:"type" json:"type" bigquery:"type"`
	Anchor          time.Time `bson:"anchor" json:"anchor" bigquery:"anchor"`
	Total           int       `bson:"total" json:"total" bigquery:"total"`
	Processed       int       `bson:"processed" json:"processed" bigquery:"processed"`
	AutoOpened      int       `bson:"autoOpened" json:"auto_opened" bigquery:"auto_opened"`
	AutoClosed      int       `bson:"autoClosed" json:"auto_closed" bigquery:"auto_closed"`
	StreakIncreased int       `bson:"streakIncreased" json:"streak_increased" bigquery:"streak_increased"`
	NoAction        int       `bson:"noAction" json:"no_action" bigquery:"no_action"`
	Skipped         int       `bson:"skipped" json:"skipped" bigquery:"skipped"`
	Errors          int       `bson:"errors" json:"errors" bigquery:"errors"`
	DurationMs      int64     `bson:"durationMs" json:"duration_ms" bigquery:"duration_ms"`
	Success         bool      `bson:"success" json:"success" bigquery:"success"`
	Error           string    `bson:"error,omitempty" json:"error,omitempty" bigquery:"error"`
	ExecutedAt      time.Time `bson:"executedAt" json:"executed_at" bigquery:"executed_at"`
}

// Record tallies the outcome of one business. A pass can both open and close a day.
func (s *RunSummary) Record(actions ...Action) {
	failed := false
	for _, a := range actions {
		switch a {
		case ActionAutoOpened:
			s.AutoOpened++
		case ActionAutoClosed:
			s.AutoClosed++
		case ActionStreakIncreased:
			s.StreakIncreased++
		case ActionNoAction:
			s.NoAction++
		case ActionSkipped:
			s.Skipped++
		case ActionError:
			s.Errors++
			failed = true
		}
	}
	if !failed {
		s.Processed++
	}
}

// ErrorLog is one failure recorded while processing a business
type ErrorLog struct {
	Type       string          `bson:"type" json:"type"`
	BusinessID string          `bson:"businessId" json:"business_id"`
	Day        businessday.Day `bson:"day,omitempty" json:"day,omitempty"`
	Error      string          `bson:"error" json:"error"`
	Stack      string          `bson:"stack,omitempty" json:"stack,omitempty"`
	Timestamp  time.Time       `bson:"timestamp" json:"timestamp"`
}

const (
	ErrorTypeScheduledAutoClose = "scheduled_auto_close_error"
	ErrorTypeAutoOpening        = "auto_opening_error"
)

// AutoCloseLog traces one synthesized opening or closure
type AutoCloseLog struct {
	BusinessID    string                     `bson:"businessId" json:"business_id"`
	Day           businessday.Day            `bson:"day" json:"day"`
	Operation     string                     `bson:"operation" json:"operation"`
	TransactionID string                     `bson:"transactionId" json:"transaction_id"`
	TriggerType   string                     `bson:"triggerType" json:"trigger_type"`
	Financials    map[string]decimal.Decimal `bson:"financials,omitempty" json:"financials,omitempty"`
	ExecutedAt    time.Time                  `bson:"executedAt" json:"executed_at"`
}

const (
	OperationAutoOpen  = "auto_open"
	OperationAutoClose = "auto_close"
)

// Sink receives run records. Writes are append-only.
type Sink interface {
	RecordRun(ctx context.Context, summary RunSummary) error
	RecordError(ctx context.Context, entry ErrorLog) error
	RecordAutoClose(ctx context.Context, entry AutoCloseLog) error
}

// RunExporter ships run summaries to an analytics store
type RunExporter interface {
	Export(ctx context.Context, summary RunSummary) error
}

// RunHistory reads recorded runs back, newest anchor first
type RunHistory interface {
	RecentRuns(ctx context.Context, limit int) ([]RunSummary, error)
}
