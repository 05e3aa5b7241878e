package events

import (
	"time"

	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// Event is a calendar entry. A recurring event is one parent plus the
// instances generated from its rule; instances link back via ParentEventID
// and are never themselves expanded again.
type Event struct {
	ID                  string
	Title               string
	Description         string
	Start               time.Time
	End                 time.Time
	AllDay              bool
	CreatedBy           string
	Attendees           []string
	Recurrence          recurrence.Rule
	ParentEventID       string
	IsRecurringInstance bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Materialize produces the concrete instances of a recurring parent on the
// given dates. Each instance copies the parent's fields, keeps its
// time-of-day and duration, takes a fresh id from idGenerator, and carries
// the parent linkage.
func Materialize(parent Event, dates []timerange.Date, idGenerator func() string) []Event {
	if len(dates) == 0 || idGenerator == nil {
		return nil
	}

	duration := parent.End.Sub(parent.Start)
	_, startTime := timerange.Split(parent.Start)
	loc := parent.Start.Location()

	instances := make([]Event, 0, len(dates))
	for _, date := range dates {
		start := date.At(startTime, loc)
		instance := parent
		instance.ID = idGenerator()
		instance.Start = start
		instance.End = start.Add(duration)
		instance.Attendees = append([]string(nil), parent.Attendees...)
		instance.Recurrence = recurrence.Rule{}
		instance.ParentEventID = parent.ID
		instance.IsRecurringInstance = true
		instances = append(instances, instance)
	}
	return instances
}
