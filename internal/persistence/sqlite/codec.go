package sqlite

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// ruleColumns is the flattened column form of a recurrence rule.
type ruleColumns struct {
	Frequency    string
	Interval     int
	Weekdays     string
	MonthDay     int
	EndCondition string
	EndAfter     int
	EndDate      string
}

func encodeRule(rule recurrence.Rule) ruleColumns {
	columns := ruleColumns{
		Frequency:    rule.Frequency.String(),
		Interval:     rule.Interval,
		MonthDay:     rule.MonthDay,
		EndCondition: rule.End.String(),
		EndAfter:     rule.EndAfter,
	}
	if len(rule.Weekdays) > 0 {
		parts := make([]string, len(rule.Weekdays))
		for i, weekday := range rule.Weekdays {
			parts[i] = strconv.Itoa(int(weekday))
		}
		columns.Weekdays = strings.Join(parts, ",")
	}
	if !rule.EndDate.IsZero() {
		columns.EndDate = rule.EndDate.String()
	}
	return columns
}

func decodeRule(columns ruleColumns) (recurrence.Rule, error) {
	frequency, err := recurrence.ParseFrequency(columns.Frequency)
	if err != nil {
		return recurrence.Rule{}, fmt.Errorf("failed to parse frequency: %w", err)
	}
	end, err := recurrence.ParseEndCondition(columns.EndCondition)
	if err != nil {
		return recurrence.Rule{}, fmt.Errorf("failed to parse end condition: %w", err)
	}

	rule := recurrence.Rule{
		Frequency: frequency,
		Interval:  columns.Interval,
		MonthDay:  columns.MonthDay,
		End:       end,
		EndAfter:  columns.EndAfter,
	}
	if columns.Weekdays != "" {
		for _, part := range strings.Split(columns.Weekdays, ",") {
			value, err := strconv.Atoi(part)
			if err != nil {
				return recurrence.Rule{}, fmt.Errorf("failed to parse weekday %q: %w", part, err)
			}
			rule.Weekdays = append(rule.Weekdays, time.Weekday(value))
		}
	}
	if columns.EndDate != "" {
		date, err := timerange.ParseDate(columns.EndDate)
		if err != nil {
			return recurrence.Rule{}, fmt.Errorf("failed to parse end date: %w", err)
		}
		rule.EndDate = date
	}
	return rule, nil
}

// timestampLayout keeps a fixed width so encoded timestamps sort
// lexicographically in SQL range comparisons.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func encodeTime(value time.Time) string {
	return value.UTC().Format(timestampLayout)
}

func decodeTime(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", value, err)
	}
	return parsed, nil
}
