// Package clock supplies "today" as a calendar date. Date rules take the value
// as a parameter instead of reading the wall clock.
package clock

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
)

// Clock returns the caller's current local calendar date.
type Clock interface {
	Today() civil.Date
}

// System reads the wall clock in a fixed location.
type System struct {
	loc *time.Location
	now func() time.Time
}

var _ Clock = (*System)(nil)

// NewSystem returns a System clock for the IANA timezone name. An empty name
// means UTC.
func NewSystem(timezone string) (*System, error) {
	if timezone == "" {
		return &System{loc: time.UTC, now: time.Now}, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", timezone, err)
	}
	return &System{loc: loc, now: time.Now}, nil
}

func (s *System) Today() civil.Date {
	return civil.DateOf(s.now().In(s.loc))
}

// Location returns the timezone used to derive dates.
func (s *System) Location() *time.Location {
	return s.loc
}

// Fixed always returns the same date.
type Fixed civil.Date

var _ Clock = Fixed{}

func (f Fixed) Today() civil.Date {
	return civil.Date(f)
}
