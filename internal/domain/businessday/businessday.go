// Package businessday maps instants to business-local calendar days.
//
// Every other component keys its data by Day, never by UTC dates.
package businessday

import (
	"fmt"
	"sync"
	"time"
	_ "time/tzdata" // embedded zone database for minimal containers
)

// DefaultTimezone applies when a business has no timezone configured
const DefaultTimezone = "America/Lima"

// Layout is the canonical day format
const Layout = "2006-01-02"

// Day is a business-local calendar date in YYYY-MM-DD form
type Day string

// ParseDay validates s as a canonical day string
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(Layout, s); err != nil {
		return "", fmt.Errorf("invalid day %q: %w", s, err)
	}
	return Day(s), nil
}

func (d Day) String() string {
	return string(d)
}

// Minus returns the day n calendar days earlier
func (d Day) Minus(n int) Day {
	t, err := time.Parse(Layout, string(d))
	if err != nil {
		return d
	}
	return Day(t.AddDate(0, 0, -n).Format(Layout))
}

// Previous returns the day before d
func (d Day) Previous() Day {
	return d.Minus(1)
}

// Resolver resolves IANA timezones, caching loaded locations
type Resolver struct {
	mu        sync.RWMutex
	locations map[string]*time.Location
}

// NewResolver creates an empty resolver
func NewResolver() *Resolver {
	return &Resolver{locations: make(map[string]*time.Location)}
}

// Location loads tz, falling back to DefaultTimezone when tz is empty
func (r *Resolver) Location(tz string) (*time.Location, error) {
	if tz == "" {
		tz = DefaultTimezone
	}

	r.mu.RLock()
	loc, ok := r.locations[tz]
	r.mu.RUnlock()
	if ok {
		return loc, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}

	r.mu.Lock()
	r.locations[tz] = loc
	r.mu.Unlock()
	return loc, nil
}

// DayOf returns the business-local day containing instant
func (r *Resolver) DayOf(instant time.Time, tz string) (Day, error) {
	loc, err := r.Location(tz)
	if err != nil {
		return "", err
	}
	return Day(instant.In(loc).Format(Layout)), nil
}

// Bounds returns the half-open range [start, end) covering day in tz.
// Days around DST transitions can be shorter or longer than 24h.
func (r *Resolver) Bounds(day Day, tz string) (time.Time, time.Time, error) {
	loc, err := r.Location(tz)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	start, err := time.ParseInLocation(Layout, string(day), loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	end := time.Date(start.Year(), start.Month(), start.Day()+1, 0, 0, 0, 0, loc)
	return start, end, nil
}

// LastInstant is the last millisecond belonging to day, used to stamp closures
func (r *Resolver) LastInstant(day Day, tz string) (time.Time, error) {
	_, end, err := r.Bounds(day, tz)
	if err != nil {
		return time.Time{}, err
	}
	return end.Add(-time.Millisecond), nil
}
