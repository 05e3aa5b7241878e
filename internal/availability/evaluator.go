package availability

import (
	"fmt"

	"github.com/example/availability-scheduler/internal/timerange"
)

// Decision is the outcome of evaluating a user's availability for a concrete
// date and time window. Reason is set only when Available is false.
type Decision struct {
	Available bool
	Reason    string
}

// Machine-readable reasons surfaced by Evaluate. Slot overlaps produce the
// formatted variants below.
const (
	ReasonNoAvailability = "No availability set for this date"
	ReasonDayUnavailable = "Marked as unavailable for this day"
	ReasonBeforeHours    = "Before working hours"
	ReasonAfterHours     = "After working hours"
)

// SlotReason renders the unavailability reason for a blocking slot: the
// slot's title when it has one, otherwise its time bounds.
func SlotReason(slot UnavailableSlot) string {
	if slot.Title != "" {
		return fmt.Sprintf("Unavailable: %s", slot.Title)
	}
	return fmt.Sprintf("Unavailable from %s to %s", slot.StartTime, slot.EndTime)
}

// Evaluate decides whether the user behind record is free for the half-open
// window on the given date. A nil record means no availability data exists
// for the user at all; policy then decides.
//
// Precedence, first match wins:
//  1. day override marked unavailable
//  2. requested window outside the day's working hours (start bound first)
//  3. overlap with any unavailable slot on the date, in list order
//  4. available
//
// A missing record and a record without an entry for the date both resolve
// through the policy's weekday set; the working hours are the record's
// defaults when a record exists, the policy fallback otherwise.
//
// Evaluate is pure: it never mutates its inputs and touches no external
// state.
func Evaluate(record *Record, policy Policy, date timerange.Date, window timerange.Range) (Decision, error) {
	if err := window.Validate(); err != nil {
		return Decision{}, err
	}

	var hours timerange.Range
	entry, hasEntry := DateAvailability{}, false
	if record != nil {
		entry, hasEntry = record.DateEntry(date)
	}

	switch {
	case hasEntry && !entry.Available:
		return Decision{Reason: ReasonDayUnavailable}, nil
	case hasEntry:
		hours = entry.Window()
	default:
		if !policy.WorkingDay(date) {
			return Decision{Reason: ReasonNoAvailability}, nil
		}
		if record != nil {
			hours = record.DefaultWindow()
		} else {
			hours = policy.FallbackHours
		}
	}

	if window.Start < hours.Start {
		return Decision{Reason: ReasonBeforeHours}, nil
	}
	if window.End > hours.End {
		return Decision{Reason: ReasonAfterHours}, nil
	}

	if record != nil {
		for _, slot := range record.SlotsOn(date) {
			if window.Overlaps(slot.Window()) {
				return Decision{Reason: SlotReason(slot)}, nil
			}
		}
	}

	return Decision{Available: true}, nil
}
