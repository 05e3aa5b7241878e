package recurrence

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/example/availability-scheduler/internal/timerange"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyNone indicates the rule does not repeat.
	FrequencyNone Frequency = iota
	// FrequencyDaily advances by days.
	FrequencyDaily
	// FrequencyWeekly advances by weeks, optionally pinned to a weekday set.
	FrequencyWeekly
	// FrequencyMonthly advances by calendar months.
	FrequencyMonthly
	// FrequencyYearly advances by calendar years.
	FrequencyYearly
)

// String returns the wire name of the frequency.
func (f Frequency) String() string {
	switch f {
	case FrequencyNone:
		return "none"
	case FrequencyDaily:
		return "daily"
	case FrequencyWeekly:
		return "weekly"
	case FrequencyMonthly:
		return "monthly"
	case FrequencyYearly:
		return "yearly"
	default:
		return fmt.Sprintf("frequency(%d)", int(f))
	}
}

// ParseFrequency converts a wire name into a Frequency.
func ParseFrequency(value string) (Frequency, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "none":
		return FrequencyNone, nil
	case "daily":
		return FrequencyDaily, nil
	case "weekly":
		return FrequencyWeekly, nil
	case "monthly":
		return FrequencyMonthly, nil
	case "yearly":
		return FrequencyYearly, nil
	default:
		return FrequencyNone, fmt.Errorf("%w: %q", ErrInvalidFrequency, value)
	}
}

// EndCondition describes how a rule's expansion terminates.
type EndCondition int

const (
	// EndNever leaves termination to the safety cap.
	EndNever EndCondition = iota
	// EndAfterCount stops after a fixed number of generated occurrences.
	EndAfterCount
	// EndOnDate stops once an occurrence would fall past a date.
	EndOnDate
)

// String returns the wire name of the end condition.
func (e EndCondition) String() string {
	switch e {
	case EndNever:
		return "never"
	case EndAfterCount:
		return "after"
	case EndOnDate:
		return "on-date"
	default:
		return fmt.Sprintf("end(%d)", int(e))
	}
}

// ParseEndCondition converts a wire name into an EndCondition.
func ParseEndCondition(value string) (EndCondition, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "never":
		return EndNever, nil
	case "after":
		return EndAfterCount, nil
	case "on-date", "on_date":
		return EndOnDate, nil
	default:
		return EndNever, fmt.Errorf("%w: %q", ErrInvalidEndCondition, value)
	}
}

// Rule describes a recurrence configuration for an event or unavailable slot.
type Rule struct {
	Frequency Frequency
	// Interval is the step in units of Frequency; must be at least 1 for
	// repeating rules.
	Interval int
	// Weekdays pins weekly rules to specific days. Empty means the seed's
	// weekday repeats.
	Weekdays []time.Weekday
	// MonthDay pins monthly rules to a day of month (1-31). Zero means the
	// seed's day repeats. Short months clamp to their last day.
	MonthDay int
	End      EndCondition
	// EndAfter is the number of generated occurrences, excluding the seed,
	// when End is EndAfterCount.
	EndAfter int
	// EndDate is the inclusive final date when End is EndOnDate.
	EndDate timerange.Date
}

// IsRepeating reports whether the rule generates any occurrences.
func (r Rule) IsRepeating() bool {
	return r.Frequency != FrequencyNone
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidInterval indicates a non-positive repeat interval.
	ErrInvalidInterval = errors.New("recurrence: interval must be positive")
	// ErrInvalidEndCondition indicates the end condition is not supported.
	ErrInvalidEndCondition = errors.New("recurrence: invalid end condition")
	// ErrInvalidEndCount indicates a non-positive occurrence count.
	ErrInvalidEndCount = errors.New("recurrence: end-after count must be positive")
	// ErrMissingEndDate indicates an on-date rule without a date.
	ErrMissingEndDate = errors.New("recurrence: end date is required")
	// ErrInvalidMonthDay indicates a day-of-month outside 1-31.
	ErrInvalidMonthDay = errors.New("recurrence: month day must be between 1 and 31")
)

// Validate checks the rule's fields for consistency.
func (r Rule) Validate() error {
	switch r.Frequency {
	case FrequencyNone:
		return nil
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly:
	default:
		return fmt.Errorf("%w: %s", ErrInvalidFrequency, r.Frequency)
	}
	if r.Interval < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidInterval, r.Interval)
	}
	if r.MonthDay != 0 && (r.MonthDay < 1 || r.MonthDay > 31) {
		return fmt.Errorf("%w: %d", ErrInvalidMonthDay, r.MonthDay)
	}
	switch r.End {
	case EndNever:
	case EndAfterCount:
		if r.EndAfter < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidEndCount, r.EndAfter)
		}
	case EndOnDate:
		if r.EndDate.IsZero() {
			return ErrMissingEndDate
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidEndCondition, r.End)
	}
	return nil
}

// Config bounds expansion output. The caps are resource-exhaustion guards,
// not business rules.
type Config struct {
	// UnboundedCap limits rules that never end themselves.
	UnboundedCap int
	// BoundedCap limits rules carrying their own end condition.
	BoundedCap int
}

// DefaultConfig returns the standard caps: 52 occurrences for open-ended
// rules, 365 for date-bounded ones.
func DefaultConfig() Config {
	return Config{UnboundedCap: 52, BoundedCap: 365}
}

// Expansion is the materialized result of expanding a rule from a seed date.
type Expansion struct {
	// Dates holds the generated occurrence dates in ascending order. The
	// seed itself is not included; it is the caller's existing record.
	Dates []timerange.Date
	// Truncated reports that a safety cap stopped generation before the
	// rule's own end condition was reached.
	Truncated bool
}

// Engine expands recurrence rules into concrete dates.
type Engine struct {
	config Config
}

// NewEngine constructs an Engine. Non-positive cap values fall back to the
// defaults.
func NewEngine(cfg Config) *Engine {
	defaults := DefaultConfig()
	if cfg.UnboundedCap <= 0 {
		cfg.UnboundedCap = defaults.UnboundedCap
	}
	if cfg.BoundedCap <= 0 {
		cfg.BoundedCap = defaults.BoundedCap
	}
	return &Engine{config: cfg}
}

// Expand generates the dated occurrences of rule following seed.
//
// Monthly and yearly steps are anchored to the seed rather than the previous
// occurrence, so a Jan 31 seed yields Feb 29, Mar 31, Apr 30 instead of
// drifting to the shortest month seen so far.
func (e *Engine) Expand(seed timerange.Date, rule Rule) (Expansion, error) {
	if err := rule.Validate(); err != nil {
		return Expansion{}, err
	}
	if !rule.IsRepeating() {
		return Expansion{}, nil
	}

	limit, limitIsRuleEnd := e.limits(rule)

	var dates []timerange.Date
	cursor := seed
	for step := 1; ; step++ {
		next := e.advance(seed, cursor, step, rule)
		if rule.End == EndOnDate && next.After(rule.EndDate) {
			break
		}
		if rule.End == EndAfterCount && len(dates) >= rule.EndAfter {
			break
		}
		if len(dates) >= limit {
			return Expansion{Dates: dates, Truncated: !limitIsRuleEnd}, nil
		}
		dates = append(dates, next)
		cursor = next
	}

	return Expansion{Dates: dates}, nil
}

// limits resolves the applicable cap and whether reaching it coincides with
// the rule's own end condition.
func (e *Engine) limits(rule Rule) (int, bool) {
	switch rule.End {
	case EndAfterCount:
		if rule.EndAfter <= e.config.BoundedCap {
			return rule.EndAfter, true
		}
		return e.config.BoundedCap, false
	case EndOnDate:
		return e.config.BoundedCap, false
	default:
		return e.config.UnboundedCap, false
	}
}

func (e *Engine) advance(seed, cursor timerange.Date, step int, rule Rule) timerange.Date {
	switch rule.Frequency {
	case FrequencyDaily:
		return cursor.AddDays(rule.Interval)
	case FrequencyWeekly:
		if len(rule.Weekdays) == 0 {
			return cursor.AddDays(7 * rule.Interval)
		}
		return nextWeekday(cursor, rule.Weekdays, rule.Interval)
	case FrequencyMonthly:
		first := timerange.Date{Year: seed.Year, Month: seed.Month, Day: 1}.AddMonths(step * rule.Interval)
		day := seed.Day
		if rule.MonthDay != 0 {
			day = rule.MonthDay
		}
		if last := timerange.DaysInMonth(first.Year, first.Month); day > last {
			day = last
		}
		return timerange.Date{Year: first.Year, Month: first.Month, Day: day}
	case FrequencyYearly:
		return seed.AddYears(step * rule.Interval)
	default:
		return cursor
	}
}

// nextWeekday finds the next occurrence after current: the closest later
// weekday in the set within the same week, or the first set weekday after
// stepping interval weeks when the week is exhausted.
func nextWeekday(current timerange.Date, weekdays []time.Weekday, interval int) timerange.Date {
	set := append([]time.Weekday(nil), weekdays...)
	sort.Slice(set, func(i, j int) bool { return set[i] < set[j] })

	currentDay := current.Weekday()
	for _, day := range set {
		if day > currentDay {
			return current.AddDays(int(day - currentDay))
		}
	}
	return current.AddDays(7*interval - int(currentDay) + int(set[0]))
}
