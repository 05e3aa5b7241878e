package persistence

import (
	"context"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/events"
	"github.com/example/availability-scheduler/internal/meeting"
)

// AvailabilityRepository stores per-user availability records as whole
// documents. Load returns ErrNotFound for users who never saved one; callers
// treat that as "no data", not "unavailable". Save upserts the record and
// everything hanging off it in one call.
type AvailabilityRepository interface {
	LoadAvailability(ctx context.Context, userID string) (availability.Record, error)
	SaveAvailability(ctx context.Context, record availability.Record) error
	DeleteAvailability(ctx context.Context, userID string) error
}

// EventFilter narrows event queries.
type EventFilter struct {
	AttendeeID  string
	StartsAfter *time.Time
	EndsBefore  *time.Time
	// ParentEventID selects the generated instances of one parent.
	ParentEventID string
}

// EventRepository stores calendar events, parents and generated instances
// alike.
type EventRepository interface {
	CreateEvents(ctx context.Context, entries []events.Event) error
	GetEvent(ctx context.Context, id string) (events.Event, error)
	UpdateEvent(ctx context.Context, entry events.Event) error
	ListEvents(ctx context.Context, filter EventFilter) ([]events.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	// DeleteInstances removes the generated instances of a parent without
	// touching the parent itself.
	DeleteInstances(ctx context.Context, parentEventID string) error
}

// MeetingRequestFilter narrows meeting-request queries. UserID matches the
// requester or the owner.
type MeetingRequestFilter struct {
	UserID      string
	RequesterID string
	OwnerID     string
	Status      meeting.Status
}

// MeetingRequestRepository stores meeting requests.
type MeetingRequestRepository interface {
	CreateMeetingRequest(ctx context.Context, request meeting.Request) error
	GetMeetingRequest(ctx context.Context, id string) (meeting.Request, error)
	UpdateMeetingRequest(ctx context.Context, request meeting.Request) error
	ListMeetingRequests(ctx context.Context, filter MeetingRequestFilter) ([]meeting.Request, error)
	DeleteMeetingRequest(ctx context.Context, id string) error
}
