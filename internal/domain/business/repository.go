package business

import (
	"context"
)

// Repository defines business persistence operations
type Repository interface {
	GetByID(ctx context.Context, id string) (*Business, error)
	List(ctx context.Context) ([]*Business, error)

	// UpdateStreak uses optimistic locking on the streak version
	UpdateStreak(ctx context.Context, id string, streak Streak, version int) error
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	BusinessID string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for business: " + e.BusinessID
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	return t.BusinessID == "" || t.BusinessID == e.BusinessID
}

// ErrBusinessNotFound indicates missing business
type ErrBusinessNotFound struct {
	BusinessID string
}

func (e ErrBusinessNotFound) Error() string {
	return "business not found: " + e.BusinessID
}

// Is implements the errors.Is interface for ErrBusinessNotFound
func (e ErrBusinessNotFound) Is(target error) bool {
	t, ok := target.(ErrBusinessNotFound)
	if !ok {
		return false
	}
	return t.BusinessID == "" || t.BusinessID == e.BusinessID
}
