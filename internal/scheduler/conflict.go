package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/timerange"
)

// UserAvailability pairs a user with their materialized availability record.
// Record is nil when the user has no availability data at all.
type UserAvailability struct {
	UserID   string
	UserName string
	Record   *availability.Record
}

// Conflict names a user who blocks a proposed meeting window and why.
type Conflict struct {
	UserID   string
	UserName string
	Reason   string
}

// ConflictReport aggregates the per-user evaluation of a proposed window.
type ConflictReport struct {
	Available bool
	Conflicts []Conflict
}

// ErrCrossMidnight indicates a proposed range spanning more than one calendar
// date. Availability is evaluated per day; callers must split or reject such
// ranges rather than have the start date silently win.
var ErrCrossMidnight = errors.New("scheduler: range must not cross midnight")

// CheckConflicts evaluates every user against the proposed [start, end)
// instant range and reports all conflicting users. It never short-circuits:
// callers need the full list of blocking attendees, not just the first.
func CheckConflicts(users []UserAvailability, policy availability.Policy, start, end time.Time) (ConflictReport, error) {
	date, window, err := splitProposedRange(start, end)
	if err != nil {
		return ConflictReport{}, err
	}

	report := ConflictReport{Available: true}
	for _, user := range users {
		decision, err := availability.Evaluate(user.Record, policy, date, window)
		if err != nil {
			return ConflictReport{}, fmt.Errorf("evaluate user %s: %w", user.UserID, err)
		}
		if decision.Available {
			continue
		}
		report.Available = false
		name := user.UserName
		if name == "" {
			name = user.UserID
		}
		report.Conflicts = append(report.Conflicts, Conflict{
			UserID:   user.UserID,
			UserName: name,
			Reason:   decision.Reason,
		})
	}

	return report, nil
}

// splitProposedRange derives the single calendar date and time-of-day window
// of an instant range. An end falling exactly on the following midnight is
// treated as 24:00 of the start date.
func splitProposedRange(start, end time.Time) (timerange.Date, timerange.Range, error) {
	if !start.Before(end) {
		return timerange.Date{}, timerange.Range{}, fmt.Errorf("%w: %s >= %s", timerange.ErrInvalidRange, start, end)
	}

	startDate, startTime := timerange.Split(start)
	endDate, endTime := timerange.Split(end)

	switch {
	case startDate == endDate:
		return startDate, timerange.Range{Start: startTime, End: endTime}, nil
	case endDate == startDate.AddDays(1) && endTime.Minutes() == 0:
		return startDate, timerange.Range{Start: startTime, End: timerange.TimeOfDay(24 * 60)}, nil
	default:
		return timerange.Date{}, timerange.Range{}, fmt.Errorf("%w: %s to %s", ErrCrossMidnight, start, end)
	}
}
