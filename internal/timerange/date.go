package timerange

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidDate indicates a calendar-date string could not be parsed.
var ErrInvalidDate = errors.New("timerange: invalid date")

// Date is a timezone-free calendar date. The scheduling core reasons about
// availability per calendar day; instants only appear at the boundaries where
// callers hand in time.Time values.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate converts a YYYY-MM-DD string into a Date.
func ParseDate(value string) (Date, error) {
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	year, month, day := parsed.Date()
	return Date{Year: year, Month: month, Day: day}, nil
}

// DateOf extracts the calendar date of an instant in its own location.
func DateOf(t time.Time) Date {
	year, month, day := t.Date()
	return Date{Year: year, Month: month, Day: day}
}

// String renders the YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Weekday returns the day of week the date falls on.
func (d Date) Weekday() time.Weekday {
	return d.time(time.UTC).Weekday()
}

// Before reports whether d precedes other.
func (d Date) Before(other Date) bool {
	return d.time(time.UTC).Before(other.time(time.UTC))
}

// After reports whether d follows other.
func (d Date) After(other Date) bool {
	return d.time(time.UTC).After(other.time(time.UTC))
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return DateOf(d.time(time.UTC).AddDate(0, 0, days))
}

// AddMonths returns the date shifted by the given number of months, clamping
// the day to the last day of the target month instead of letting short months
// roll the result forward.
func (d Date) AddMonths(months int) Date {
	first := time.Date(d.Year, d.Month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
	day := d.Day
	if last := DaysInMonth(first.Year(), first.Month()); day > last {
		day = last
	}
	return Date{Year: first.Year(), Month: first.Month(), Day: day}
}

// AddYears returns the date shifted by the given number of years with the
// same end-of-month clamping as AddMonths (Feb 29 seeds land on Feb 28 in
// non-leap years).
func (d Date) AddYears(years int) Date {
	return d.AddMonths(12 * years)
}

// At combines the date with a time of day in the provided location. A nil
// location defaults to UTC.
func (d Date) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, t.Minutes()/60, t.Minutes()%60, 0, 0, loc)
}

func (d Date) time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
