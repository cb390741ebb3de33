package summary

import (
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
)

// Close and open reasons written by automation
const (
	ReasonScheduled = "scheduled"
	ReasonLazyOpen  = "lazyOpen"
	ReasonManual    = "manual"
)

// DailySummary is the cached document for one business day.
// It can always be discarded and rebuilt from the transactions.
type DailySummary struct {
	BusinessID string `bson:"businessId" json:"business_id"`
	Aggregate  `bson:",inline"`

	IsAutoClosed    bool       `bson:"isAutoClosed,omitempty" json:"is_auto_closed"`
	AutoCloseReason string     `bson:"autoCloseReason,omitempty" json:"auto_close_reason,omitempty"`
	CompletedAt     *time.Time `bson:"completedAt,omitempty" json:"completed_at,omitempty"`

	IsAutoOpened   bool       `bson:"isAutoOpened,omitempty" json:"is_auto_opened"`
	OpeningID      string     `bson:"openingId,omitempty" json:"opening_id,omitempty"`
	AutoOpenReason string     `bson:"autoOpenReason,omitempty" json:"auto_open_reason,omitempty"`
	OpenedAt       *time.Time `bson:"openedAt,omitempty" json:"opened_at,omitempty"`

	LastUpdated time.Time `bson:"lastUpdated" json:"last_updated"`
}

// Empty is the summary of a day nothing has been written for yet
func Empty(businessID string, day businessday.Day) DailySummary {
	return DailySummary{BusinessID: businessID, Aggregate: Aggregate{Day: day}}
}

// Organic reports a day completed by the operator without automation
func (s DailySummary) Organic() bool {
	return s.Complete() && !s.IsAutoClosed
}
