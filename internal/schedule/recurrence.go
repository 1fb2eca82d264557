package schedule

import (
	"errors"
	"time"
)

type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

var ErrInvalidRecurrence = errors.New("invalid recurrence")

// Recurrence is a standing schedule evaluated in a single fixed reference
// timezone, never in the caller's local zone.
type Recurrence struct {
	Frequency  Frequency
	Hour       int
	Minute     int
	DayOfWeek  *int // 0=Sunday .. 6=Saturday, required iff weekly
	DayOfMonth *int // 1..31, required iff monthly
}

func (r Recurrence) Validate() error {
	if r.Hour < 0 || r.Hour > 23 {
		return ErrInvalidRecurrence
	}
	if r.Minute < 0 || r.Minute > 59 {
		return ErrInvalidRecurrence
	}
	switch r.Frequency {
	case Daily:
		return nil
	case Weekly:
		if r.DayOfWeek == nil || *r.DayOfWeek < 0 || *r.DayOfWeek > 6 {
			return ErrInvalidRecurrence
		}
		return nil
	case Monthly:
		if r.DayOfMonth == nil || *r.DayOfMonth < 1 || *r.DayOfMonth > 31 {
			return ErrInvalidRecurrence
		}
		return nil
	default:
		return ErrInvalidRecurrence
	}
}

// NextRun computes the next execution instant after now, in UTC. The result
// is strictly greater than now. The candidate is built at the configured
// hour/minute in loc; daily bumps a day, weekly advances to the configured
// weekday (a full week when today's slot already passed), monthly clamps
// day-of-month to the last valid day of the target month.
func NextRun(r Recurrence, now time.Time, loc *time.Location) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}

	local := now.In(loc)
	cand := time.Date(local.Year(), local.Month(), local.Day(), r.Hour, r.Minute, 0, 0, loc)

	switch r.Frequency {
	case Daily:
		if !cand.After(now) {
			cand = cand.AddDate(0, 0, 1)
		}

	case Weekly:
		add := (*r.DayOfWeek - int(cand.Weekday()) + 7) % 7
		if add == 0 && !cand.After(now) {
			add = 7
		}
		cand = cand.AddDate(0, 0, add)

	case Monthly:
		cand = monthlyCandidate(local.Year(), local.Month(), *r.DayOfMonth, r.Hour, r.Minute, loc)
		if !cand.After(now) {
			y, m := local.Year(), local.Month()+1
			cand = monthlyCandidate(y, m, *r.DayOfMonth, r.Hour, r.Minute, loc)
		}
	}

	return cand.UTC(), nil
}

// monthlyCandidate builds the instant at day/hour/minute in the given month,
// clamping the day to the month's last valid day (31 in February becomes 28
// or 29). The month argument may be out of range; time.Date normalizes it.
func monthlyCandidate(year int, month time.Month, day, hour, minute int, loc *time.Location) time.Time {
	// Day 0 of the next month is the last day of this one.
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
	if day > last {
		day = last
	}
	return time.Date(year, month, day, hour, minute, 0, 0, loc)
}
