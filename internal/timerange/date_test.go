package timerange

import (
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	t.Parallel()

	date, err := ParseDate("2024-06-10")
	if err != nil {
		t.Fatalf("ParseDate: %v", err)
	}
	if date.Year != 2024 || date.Month != time.June || date.Day != 10 {
		t.Errorf("ParseDate = %+v", date)
	}
	if date.Weekday() != time.Monday {
		t.Errorf("Weekday = %v, want Monday", date.Weekday())
	}

	for _, bad := range []string{"2024-13-01", "2024-02-30", "06/10/2024", ""} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) error = %v, want ErrInvalidDate", bad, err)
		}
	}
}

func TestDateAddDays(t *testing.T) {
	t.Parallel()

	date := Date{Year: 2024, Month: time.February, Day: 28}
	if got := date.AddDays(1).String(); got != "2024-02-29" {
		t.Errorf("leap day: got %s", got)
	}
	if got := date.AddDays(2).String(); got != "2024-03-01" {
		t.Errorf("month rollover: got %s", got)
	}
	if got := date.AddDays(7).Weekday(); got != date.Weekday() {
		t.Errorf("a week later should land on the same weekday, got %v", got)
	}
}

func TestDateAddMonths(t *testing.T) {
	t.Parallel()

	t.Run("clamps to last day of short months", func(t *testing.T) {
		seed := Date{Year: 2024, Month: time.January, Day: 31}
		if got := seed.AddMonths(1).String(); got != "2024-02-29" {
			t.Errorf("Jan 31 + 1 month = %s, want 2024-02-29", got)
		}
		if got := seed.AddMonths(3).String(); got != "2024-04-30" {
			t.Errorf("Jan 31 + 3 months = %s, want 2024-04-30", got)
		}
		if got := seed.AddMonths(2).String(); got != "2024-03-31" {
			t.Errorf("Jan 31 + 2 months = %s, want 2024-03-31", got)
		}
	})

	t.Run("plain days are unaffected", func(t *testing.T) {
		seed := Date{Year: 2024, Month: time.June, Day: 15}
		if got := seed.AddMonths(1).String(); got != "2024-07-15" {
			t.Errorf("got %s", got)
		}
	})

	t.Run("crosses year boundaries", func(t *testing.T) {
		seed := Date{Year: 2024, Month: time.November, Day: 30}
		if got := seed.AddMonths(3).String(); got != "2025-02-28" {
			t.Errorf("got %s, want 2025-02-28", got)
		}
	})
}

func TestDateAddYears(t *testing.T) {
	t.Parallel()

	seed := Date{Year: 2024, Month: time.February, Day: 29}
	if got := seed.AddYears(1).String(); got != "2025-02-28" {
		t.Errorf("Feb 29 + 1 year = %s, want 2025-02-28", got)
	}
	if got := seed.AddYears(4).String(); got != "2028-02-29" {
		t.Errorf("Feb 29 + 4 years = %s, want 2028-02-29", got)
	}
}

func TestDateOrdering(t *testing.T) {
	t.Parallel()

	earlier := Date{Year: 2024, Month: time.June, Day: 10}
	later := Date{Year: 2024, Month: time.June, Day: 11}
	if !earlier.Before(later) || later.Before(earlier) {
		t.Error("Before ordering broken")
	}
	if !later.After(earlier) || earlier.After(later) {
		t.Error("After ordering broken")
	}
	if earlier.Before(earlier) || earlier.After(earlier) {
		t.Error("a date is neither before nor after itself")
	}
}

func TestDateAt(t *testing.T) {
	t.Parallel()

	date := Date{Year: 2024, Month: time.June, Day: 10}
	tod, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	instant := date.At(tod, time.UTC)
	want := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
	if !instant.Equal(want) {
		t.Errorf("At = %v, want %v", instant, want)
	}
}
