package timerange

import (
	"errors"
	"fmt"
	"strconv"
	"time"
)

// ErrInvalidTimeOfDay indicates a time-of-day string could not be parsed or
// is outside 00:00-23:59.
var ErrInvalidTimeOfDay = errors.New("timerange: invalid time of day")

// ErrInvalidRange indicates a range whose start does not precede its end.
var ErrInvalidRange = errors.New("timerange: start must be before end")

// TimeOfDay is a clock time expressed as minutes since midnight. All range
// arithmetic happens on this integer form; the HH:MM wire representation is
// only a parse/format concern.
type TimeOfDay int

// ParseTimeOfDay converts a zero-padded HH:MM string on a 24-hour clock into
// a TimeOfDay.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	if len(value) != 5 || value[2] != ':' {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	hours, err := strconv.Atoi(value[:2])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	minutes, err := strconv.Atoi(value[3:])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(hours*60 + minutes), nil
}

// Minutes returns the minute-of-day value.
func (t TimeOfDay) Minutes() int {
	return int(t)
}

// Add returns the time of day shifted by the given number of minutes. The
// result is not wrapped; callers that can exceed 23:59 must bound their input.
func (t TimeOfDay) Add(minutes int) TimeOfDay {
	return t + TimeOfDay(minutes)
}

// String renders the zero-padded HH:MM form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Valid reports whether the value lies within a single day.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t < 24*60
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) share any instant. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd TimeOfDay) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// Contains reports whether [innerStart, innerEnd) lies entirely within
// [outerStart, outerEnd).
func Contains(outerStart, outerEnd, innerStart, innerEnd TimeOfDay) bool {
	return innerStart >= outerStart && innerEnd <= outerEnd
}

// Range is a half-open [Start, End) window within a single day.
type Range struct {
	Start TimeOfDay
	End   TimeOfDay
}

// ParseRange parses the HH:MM bounds of a window and validates ordering.
func ParseRange(start, end string) (Range, error) {
	s, err := ParseTimeOfDay(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseTimeOfDay(end)
	if err != nil {
		return Range{}, err
	}
	r := Range{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return Range{}, err
	}
	return r, nil
}

// Validate checks that the range is non-empty and within a day. An End of
// 24:00 is allowed so a window can cover the whole day.
func (r Range) Validate() error {
	if !r.Start.Valid() {
		return fmt.Errorf("%w: %s", ErrInvalidTimeOfDay, r.Start)
	}
	if r.End < 0 || r.End > 24*60 {
		return fmt.Errorf("%w: %s", ErrInvalidTimeOfDay, r.End)
	}
	if r.Start >= r.End {
		return fmt.Errorf("%w: %s-%s", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

// Overlaps reports whether two ranges share any instant.
func (r Range) Overlaps(other Range) bool {
	return Overlaps(r.Start, r.End, other.Start, other.End)
}

// Contains reports whether the other range lies entirely within r.
func (r Range) Contains(other Range) bool {
	return Contains(r.Start, r.End, other.Start, other.End)
}

// Split decomposes an instant into its calendar date and time of day in the
// instant's own location.
func Split(t time.Time) (Date, TimeOfDay) {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}, TimeOfDay(t.Hour()*60 + t.Minute())
}
