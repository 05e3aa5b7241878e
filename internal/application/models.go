package application

import (
	"time"

	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// Principal represents the actor invoking a service method. How the actor
// was authenticated is outside this core; the principal is the capability
// input for "may this actor schedule for that user" checks.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// CanActFor reports whether the principal may modify state owned by userID.
func (p Principal) CanActFor(userID string) bool {
	return p.IsAdmin || (p.UserID != "" && p.UserID == userID)
}

// SlotInput captures caller provided unavailable-slot fields.
type SlotInput struct {
	Date       timerange.Date
	StartTime  timerange.TimeOfDay
	EndTime    timerange.TimeOfDay
	Title      string
	Recurrence recurrence.Rule
}

// EventInput captures caller provided calendar-event fields.
type EventInput struct {
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	AllDay      bool
	Attendees   []string
	Recurrence  recurrence.Rule
}

// MeetingRequestInput captures caller provided meeting-request fields.
type MeetingRequestInput struct {
	RequesterID     string
	OwnerID         string
	Subject         string
	Message         string
	PreferredDates  []time.Time
	DurationMinutes int
}

// ListMeetingRequestsParams narrows meeting-request listings.
type ListMeetingRequestsParams struct {
	// InvolvedUserID matches requests where the user is requester or owner.
	InvolvedUserID string
	RequesterID    string
	OwnerID        string
	Status         string
}
