package availability

import (
	"time"

	"github.com/example/availability-scheduler/internal/timerange"
)

// Policy supplies the fallback rules applied when a user has no availability
// record, or a record without an entry for the requested date. Making the
// fallback explicit keeps the evaluator testable and tunable; it used to be
// baked into the evaluation logic itself.
type Policy struct {
	// Weekdays are the days treated as working days by default.
	Weekdays map[time.Weekday]bool
	// FallbackHours are the working hours assumed when no record exists.
	FallbackHours timerange.Range
}

// DefaultPolicy treats Monday through Friday, 09:00-17:00, as available.
func DefaultPolicy() Policy {
	return Policy{
		Weekdays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		FallbackHours: timerange.Range{
			Start: timerange.TimeOfDay(9 * 60),
			End:   timerange.TimeOfDay(17 * 60),
		},
	}
}

// WorkingDay reports whether the policy treats the date's weekday as a
// working day.
func (p Policy) WorkingDay(date timerange.Date) bool {
	return p.Weekdays[date.Weekday()]
}
