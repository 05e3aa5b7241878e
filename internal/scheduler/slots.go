package scheduler

import (
	"errors"
	"fmt"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/timerange"
)

// Slot is a candidate meeting window annotated with the users free for it.
// A full-consensus slot is one where every requested user appears.
type Slot struct {
	Start          timerange.TimeOfDay
	End            timerange.TimeOfDay
	AvailableUsers []string
}

// SlotSearchConfig bounds the candidate enumeration of FindCommonSlots.
type SlotSearchConfig struct {
	// StepMinutes is the spacing between candidate start times.
	StepMinutes int
	// Window is the business-hours span searched for candidates.
	Window timerange.Range
}

// DefaultSlotSearchConfig enumerates hourly candidates across 09:00-17:00.
func DefaultSlotSearchConfig() SlotSearchConfig {
	return SlotSearchConfig{
		StepMinutes: 60,
		Window: timerange.Range{
			Start: timerange.TimeOfDay(9 * 60),
			End:   timerange.TimeOfDay(17 * 60),
		},
	}
}

// ErrInvalidDuration indicates a non-positive requested duration.
var ErrInvalidDuration = errors.New("scheduler: duration must be positive")

// FindCommonSlots enumerates candidate windows of the requested duration on
// the given date and returns, in ascending start order, every candidate at
// least one user is free for. It is a pure function of its inputs; callers
// can re-run it at will.
func FindCommonSlots(users []UserAvailability, policy availability.Policy, date timerange.Date, durationMinutes int, cfg SlotSearchConfig) ([]Slot, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDuration, durationMinutes)
	}
	if cfg.StepMinutes <= 0 {
		cfg.StepMinutes = DefaultSlotSearchConfig().StepMinutes
	}
	if cfg.Window == (timerange.Range{}) {
		cfg.Window = DefaultSlotSearchConfig().Window
	}
	if err := cfg.Window.Validate(); err != nil {
		return nil, err
	}

	var slots []Slot
	for start := cfg.Window.Start; start.Add(durationMinutes) <= cfg.Window.End; start = start.Add(cfg.StepMinutes) {
		candidate := timerange.Range{Start: start, End: start.Add(durationMinutes)}

		var free []string
		for _, user := range users {
			decision, err := availability.Evaluate(user.Record, policy, date, candidate)
			if err != nil {
				return nil, fmt.Errorf("evaluate user %s: %w", user.UserID, err)
			}
			if decision.Available {
				free = append(free, user.UserID)
			}
		}
		if len(free) == 0 {
			continue
		}
		slots = append(slots, Slot{Start: candidate.Start, End: candidate.End, AvailableUsers: free})
	}

	return slots, nil
}
