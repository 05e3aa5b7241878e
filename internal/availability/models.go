package availability

import (
	"time"

	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// DateAvailability is a blanket override for one calendar day. When Available
// is false the whole day is blocked regardless of slot entries; when true the
// StartTime/EndTime pair replaces the record's default working hours.
type DateAvailability struct {
	Date      timerange.Date
	Available bool
	StartTime timerange.TimeOfDay
	EndTime   timerange.TimeOfDay
}

// Window returns the day's working hours as a half-open range.
func (d DateAvailability) Window() timerange.Range {
	return timerange.Range{Start: d.StartTime, End: d.EndTime}
}

// UnavailableSlot is an explicit carve-out within an otherwise-available day.
// Slots on the same date are not assumed sorted or disjoint.
type UnavailableSlot struct {
	ID        string
	Date      timerange.Date
	StartTime timerange.TimeOfDay
	EndTime   timerange.TimeOfDay
	Title     string
	// Recurrence governs expansion at write time. Generated instances carry
	// ParentSlotID and IsRecurringInstance and are never re-expanded.
	Recurrence          recurrence.Rule
	ParentSlotID        string
	IsRecurringInstance bool
}

// Window returns the blocked interval as a half-open range.
func (s UnavailableSlot) Window() timerange.Range {
	return timerange.Range{Start: s.StartTime, End: s.EndTime}
}

// Record is a user's availability state: default working hours, per-date
// overrides, and unavailable slots. It is created lazily on first write; an
// absent record is not the same as an unavailable user.
type Record struct {
	UserID           string
	DefaultStart     timerange.TimeOfDay
	DefaultEnd       timerange.TimeOfDay
	Dates            []DateAvailability
	UnavailableSlots []UnavailableSlot
}

// DefaultWindow returns the record's default working hours.
func (r Record) DefaultWindow() timerange.Range {
	return timerange.Range{Start: r.DefaultStart, End: r.DefaultEnd}
}

// DateEntry returns the override for the given date, if any.
func (r Record) DateEntry(date timerange.Date) (DateAvailability, bool) {
	for _, entry := range r.Dates {
		if entry.Date == date {
			return entry, true
		}
	}
	return DateAvailability{}, false
}

// SlotsOn returns the unavailable slots recorded for the given date, in list
// order.
func (r Record) SlotsOn(date timerange.Date) []UnavailableSlot {
	var slots []UnavailableSlot
	for _, slot := range r.UnavailableSlots {
		if slot.Date == date {
			slots = append(slots, slot)
		}
	}
	return slots
}

// Clone returns a deep copy so callers can build replacement state without
// mutating shared slices.
func (r Record) Clone() Record {
	out := r
	out.Dates = append([]DateAvailability(nil), r.Dates...)
	out.UnavailableSlots = append([]UnavailableSlot(nil), r.UnavailableSlots...)
	for i := range out.UnavailableSlots {
		rule := out.UnavailableSlots[i].Recurrence
		rule.Weekdays = append([]time.Weekday(nil), rule.Weekdays...)
		out.UnavailableSlots[i].Recurrence = rule
	}
	return out
}
