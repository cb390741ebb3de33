// Package business models a tenant and its embedded completion streak.
package business

import (
	"time"

	"github.com/cashday-ledger/internal/domain/businessday"
)

// Business is a tenant operating one cash register
type Business struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Timezone  string    `json:"timezone"`
	Streak    Streak    `json:"streak"`
	CreatedAt time.Time `json:"created_at"`
}

// TZ returns the configured timezone or the default one
func (b Business) TZ() string {
	if b.Timezone == "" {
		return businessday.DefaultTimezone
	}
	return b.Timezone
}

// Streak counts consecutive days completed by the operator
type Streak struct {
	Current          int             `json:"current"`
	Max              int             `json:"max"`
	LastCompletedDay businessday.Day `json:"last_completed_day,omitempty"`
	LastActiveDay    businessday.Day `json:"last_active_day,omitempty"`
	CopilotDays      int             `json:"copilot_days"`
	BrokenAt         *time.Time      `json:"broken_at,omitempty"`
	UpdatedAt        *time.Time      `json:"updated_at,omitempty"`
	Version          int             `json:"version"` // For optimistic locking
}

// Break resets the streak after an automated close
func (s Streak) Break(now time.Time) Streak {
	s.Current = 0
	s.CopilotDays++
	s.BrokenAt = &now
	s.UpdatedAt = &now
	return s
}

// Complete records an organically completed day
func (s Streak) Complete(day businessday.Day, now time.Time) Streak {
	if s.LastCompletedDay == day.Previous() {
		s.Current++
	} else {
		s.Current = 1
	}
	if s.Current > s.Max {
		s.Max = s.Current
	}
	s.LastCompletedDay = day
	if s.LastActiveDay < day {
		s.LastActiveDay = day
	}
	s.UpdatedAt = &now
	return s
}

// Touch records activity on day without completing it
func (s Streak) Touch(day businessday.Day, now time.Time) Streak {
	s.LastActiveDay = day
	s.UpdatedAt = &now
	return s
}
