package application

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/example/availability-scheduler/internal/events"
	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// EventWriteResult reports the outcome of an event write: the parent, the
// generated recurring instances, and whether expansion hit a safety cap.
type EventWriteResult struct {
	Event     events.Event
	Instances []events.Event
	Truncated bool
}

// EventService manages calendar events and keeps recurring instances in
// step with their parent.
type EventService struct {
	store       persistence.EventRepository
	expander    *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService wires dependencies for event operations.
func NewEventService(store persistence.EventRepository, expander *recurrence.Engine, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(store, expander, idGenerator, now, nil)
}

// NewEventServiceWithLogger wires dependencies including a logger.
func NewEventServiceWithLogger(store persistence.EventRepository, expander *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if expander == nil {
		expander = recurrence.NewEngine(recurrence.DefaultConfig())
	}
	return &EventService{
		store:       store,
		expander:    expander,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Create stores a new event for the principal. Recurring events are expanded
// at write time into dated instances linked to the parent.
func (s *EventService) Create(ctx context.Context, principal Principal, input EventInput) (EventWriteResult, error) {
	if err := validateEventInput(input); err != nil {
		return EventWriteResult{}, err
	}

	now := s.now()
	parent := events.Event{
		ID:          s.idGenerator(),
		Title:       input.Title,
		Description: input.Description,
		Start:       input.Start,
		End:         input.End,
		AllDay:      input.AllDay,
		CreatedBy:   principal.UserID,
		Attendees:   append([]string(nil), input.Attendees...),
		Recurrence:  input.Recurrence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !slices.Contains(parent.Attendees, principal.UserID) && principal.UserID != "" {
		parent.Attendees = append(parent.Attendees, principal.UserID)
	}

	instances, truncated, err := s.materialize(parent, now)
	if err != nil {
		return EventWriteResult{}, err
	}

	entries := append([]events.Event{parent}, instances...)
	if err := s.store.CreateEvents(ctx, entries); err != nil {
		return EventWriteResult{}, mapRepositoryError(err)
	}

	logger := serviceLogger(ctx, s.logger, "event", "create", "event_id", parent.ID)
	logger.InfoContext(ctx, "event created", "instances", len(instances))
	if truncated {
		logger.WarnContext(ctx, "recurrence expansion truncated by safety cap")
	}

	return EventWriteResult{Event: parent, Instances: instances, Truncated: truncated}, nil
}

// Get returns a single event by id.
func (s *EventService) Get(ctx context.Context, id string) (events.Event, error) {
	entry, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return events.Event{}, mapRepositoryError(err)
	}
	return entry, nil
}

// List returns events matching the filter.
func (s *EventService) List(ctx context.Context, filter persistence.EventFilter) ([]events.Event, error) {
	entries, err := s.store.ListEvents(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return entries, nil
}

// Update rewrites an event. Updating a recurring parent discards its old
// instances and regenerates them from the new fields. Only the creator or
// an admin may update, and generated instances are edited via their parent.
func (s *EventService) Update(ctx context.Context, principal Principal, id string, input EventInput) (EventWriteResult, error) {
	current, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return EventWriteResult{}, mapRepositoryError(err)
	}
	if !principal.CanActFor(current.CreatedBy) {
		return EventWriteResult{}, ErrUnauthorized
	}
	if current.IsRecurringInstance {
		vErr := &ValidationError{}
		vErr.add("id", "recurring instances are edited through their parent event")
		return EventWriteResult{}, vErr
	}
	if err := validateEventInput(input); err != nil {
		return EventWriteResult{}, err
	}

	now := s.now()
	updated := current
	updated.Title = input.Title
	updated.Description = input.Description
	updated.Start = input.Start
	updated.End = input.End
	updated.AllDay = input.AllDay
	updated.Attendees = append([]string(nil), input.Attendees...)
	updated.Recurrence = input.Recurrence
	updated.UpdatedAt = now

	instances, truncated, err := s.materialize(updated, now)
	if err != nil {
		return EventWriteResult{}, err
	}

	if err := s.store.DeleteInstances(ctx, updated.ID); err != nil {
		return EventWriteResult{}, mapRepositoryError(err)
	}
	if err := s.store.UpdateEvent(ctx, updated); err != nil {
		return EventWriteResult{}, mapRepositoryError(err)
	}
	if len(instances) > 0 {
		if err := s.store.CreateEvents(ctx, instances); err != nil {
			return EventWriteResult{}, mapRepositoryError(err)
		}
	}

	logger := serviceLogger(ctx, s.logger, "event", "update", "event_id", updated.ID)
	logger.InfoContext(ctx, "event updated", "instances", len(instances))
	if truncated {
		logger.WarnContext(ctx, "recurrence expansion truncated by safety cap")
	}

	return EventWriteResult{Event: updated, Instances: instances, Truncated: truncated}, nil
}

// Delete removes an event. Deleting a recurring parent removes its
// generated instances too.
func (s *EventService) Delete(ctx context.Context, principal Principal, id string) error {
	current, err := s.store.GetEvent(ctx, id)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !principal.CanActFor(current.CreatedBy) {
		return ErrUnauthorized
	}

	if !current.IsRecurringInstance {
		if err := s.store.DeleteInstances(ctx, current.ID); err != nil {
			return mapRepositoryError(err)
		}
	}
	if err := s.store.DeleteEvent(ctx, current.ID); err != nil {
		return mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "event", "delete", "event_id", id).
		InfoContext(ctx, "event deleted")

	return nil
}

func (s *EventService) materialize(parent events.Event, now time.Time) ([]events.Event, bool, error) {
	if !parent.Recurrence.IsRepeating() {
		return nil, false, nil
	}

	seed, _ := timerange.Split(parent.Start)
	expansion, err := s.expander.Expand(seed, parent.Recurrence)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("recurrence", err.Error())
		return nil, false, vErr
	}

	instances := events.Materialize(parent, expansion.Dates, s.idGenerator)
	for i := range instances {
		instances[i].CreatedAt = now
		instances[i].UpdatedAt = now
	}
	return instances, expansion.Truncated, nil
}

func validateEventInput(input EventInput) error {
	vErr := &ValidationError{}
	if input.Title == "" {
		vErr.add("title", "title is required")
	}
	if input.Start.IsZero() || input.End.IsZero() {
		vErr.add("time", "start and end are required")
	} else if !input.End.After(input.Start) {
		vErr.add("time", "start must be before end")
	}
	if err := input.Recurrence.Validate(); err != nil {
		vErr.add("recurrence", err.Error())
	}
	if vErr.HasErrors() {
		return vErr
	}
	return nil
}
