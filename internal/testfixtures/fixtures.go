package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/events"
	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

var (
	slotCounter    uint64
	eventCounter   uint64
	requestCounter uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDate returns the calendar date of ReferenceTime.
func ReferenceDate() timerange.Date {
	return timerange.DateOf(referenceTime)
}

// ------------------------- Availability fixtures -------------------------

// RecordFixture represents a deterministic availability record.
type RecordFixture struct {
	UserID           string
	DefaultStart     timerange.TimeOfDay
	DefaultEnd       timerange.TimeOfDay
	Dates            []availability.DateAvailability
	UnavailableSlots []availability.UnavailableSlot
}

// RecordOption configures the generated availability record fixture.
type RecordOption func(*RecordFixture)

// NewRecordFixture returns a deterministic availability record fixture with
// optional overrides. The baseline is 09:00-17:00 with no overrides or
// blocked slots.
func NewRecordFixture(userID string, opts ...RecordOption) RecordFixture {
	fixture := RecordFixture{
		UserID:           userID,
		DefaultStart:     timerange.TimeOfDay(9 * 60),
		DefaultEnd:       timerange.TimeOfDay(17 * 60),
		Dates:            []availability.DateAvailability{},
		UnavailableSlots: []availability.UnavailableSlot{},
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithDefaultHours overrides the record's default working hours.
func WithDefaultHours(start, end timerange.TimeOfDay) RecordOption {
	return func(f *RecordFixture) {
		f.DefaultStart = start
		f.DefaultEnd = end
	}
}

// WithDateOverride appends a per-date working hours override.
func WithDateOverride(date timerange.Date, start, end timerange.TimeOfDay) RecordOption {
	return func(f *RecordFixture) {
		f.Dates = append(f.Dates, availability.DateAvailability{
			Date:      date,
			Available: true,
			StartTime: start,
			EndTime:   end,
		})
	}
}

// WithDateOff appends a per-date full-day unavailability override.
func WithDateOff(date timerange.Date) RecordOption {
	return func(f *RecordFixture) {
		f.Dates = append(f.Dates, availability.DateAvailability{
			Date:      date,
			Available: false,
		})
	}
}

// WithSlot appends an unavailable slot to the record.
func WithSlot(slot availability.UnavailableSlot) RecordOption {
	return func(f *RecordFixture) {
		f.UnavailableSlots = append(f.UnavailableSlots, slot)
	}
}

// Record returns the fixture as an availability.Record value.
func (f RecordFixture) Record() availability.Record {
	return availability.Record{
		UserID:           f.UserID,
		DefaultStart:     f.DefaultStart,
		DefaultEnd:       f.DefaultEnd,
		Dates:            append([]availability.DateAvailability(nil), f.Dates...),
		UnavailableSlots: append([]availability.UnavailableSlot(nil), f.UnavailableSlots...),
	}
}

// NewSlot returns a deterministic unavailable slot on the given date.
func NewSlot(date timerange.Date, start, end timerange.TimeOfDay, title string) availability.UnavailableSlot {
	idx := atomic.AddUint64(&slotCounter, 1)
	return availability.UnavailableSlot{
		ID:        fmt.Sprintf("slot-%03d", idx),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Title:     title,
	}
}

// ---------------------------- Event fixtures -----------------------------

// EventOption configures the generated event fixture.
type EventOption func(*events.Event)

// NewEventFixture returns a deterministic one-hour event with optional
// overrides. Events are spaced an hour apart starting from ReferenceTime.
func NewEventFixture(opts ...EventOption) events.Event {
	idx := atomic.AddUint64(&eventCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Hour)
	creator := fmt.Sprintf("user-%03d", idx)
	entry := events.Event{
		ID:        fmt.Sprintf("event-%03d", idx),
		Title:     fmt.Sprintf("Event %03d", idx),
		Start:     start,
		End:       start.Add(time.Hour),
		CreatedBy: creator,
		Attendees: []string{creator},
		CreatedAt: referenceTime,
		UpdatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&entry)
	}
	return entry
}

// WithEventID overrides the event ID.
func WithEventID(id string) EventOption {
	return func(e *events.Event) {
		e.ID = id
	}
}

// WithEventTitle overrides the event title.
func WithEventTitle(title string) EventOption {
	return func(e *events.Event) {
		e.Title = title
	}
}

// WithEventWindow sets the start and end times.
func WithEventWindow(start, end time.Time) EventOption {
	return func(e *events.Event) {
		e.Start = start
		e.End = end
	}
}

// WithEventCreator sets the creator and makes them the sole attendee.
func WithEventCreator(userID string) EventOption {
	return func(e *events.Event) {
		e.CreatedBy = userID
		e.Attendees = []string{userID}
	}
}

// WithEventAttendees sets the attendee list.
func WithEventAttendees(attendees ...string) EventOption {
	return func(e *events.Event) {
		e.Attendees = append([]string(nil), attendees...)
	}
}

// WithEventRecurrence sets the recurrence rule on the event.
func WithEventRecurrence(rule recurrence.Rule) EventOption {
	return func(e *events.Event) {
		e.Recurrence = rule
	}
}

// WithEventParent marks the event as a generated instance of parentID.
func WithEventParent(parentID string) EventOption {
	return func(e *events.Event) {
		e.ParentEventID = parentID
		e.IsRecurringInstance = true
		e.Recurrence = recurrence.Rule{}
	}
}

// ----------------------- Meeting request fixtures ------------------------

// RequestOption configures the generated meeting request fixture.
type RequestOption func(*meeting.Request)

// NewRequestFixture returns a deterministic pending meeting request with
// optional overrides.
func NewRequestFixture(opts ...RequestOption) meeting.Request {
	idx := atomic.AddUint64(&requestCounter, 1)
	request := meeting.Request{
		ID:              fmt.Sprintf("request-%03d", idx),
		RequesterID:     fmt.Sprintf("requester-%03d", idx),
		OwnerID:         fmt.Sprintf("owner-%03d", idx),
		Subject:         fmt.Sprintf("Subject %03d", idx),
		PreferredDates:  []time.Time{referenceTime.Add(24 * time.Hour)},
		DurationMinutes: 60,
		Status:          meeting.StatusPending,
		CreatedAt:       referenceTime,
		UpdatedAt:       referenceTime,
	}
	for _, opt := range opts {
		opt(&request)
	}
	return request
}

// WithRequestID overrides the request ID.
func WithRequestID(id string) RequestOption {
	return func(r *meeting.Request) {
		r.ID = id
	}
}

// WithRequestParticipants sets the requester and owner.
func WithRequestParticipants(requesterID, ownerID string) RequestOption {
	return func(r *meeting.Request) {
		r.RequesterID = requesterID
		r.OwnerID = ownerID
	}
}

// WithRequestSubject overrides the subject line.
func WithRequestSubject(subject string) RequestOption {
	return func(r *meeting.Request) {
		r.Subject = subject
	}
}

// WithRequestDuration sets the meeting length in minutes.
func WithRequestDuration(minutes int) RequestOption {
	return func(r *meeting.Request) {
		r.DurationMinutes = minutes
	}
}

// WithRequestPreferredDates sets the candidate dates.
func WithRequestPreferredDates(dates ...time.Time) RequestOption {
	return func(r *meeting.Request) {
		r.PreferredDates = append([]time.Time(nil), dates...)
	}
}

// WithRequestStatus forces a status without walking the state machine.
// Scheduled requests also need WithRequestScheduledDate to stay consistent.
func WithRequestStatus(status meeting.Status) RequestOption {
	return func(r *meeting.Request) {
		r.Status = status
	}
}

// WithRequestScheduledDate sets the confirmed date.
func WithRequestScheduledDate(date time.Time) RequestOption {
	return func(r *meeting.Request) {
		scheduled := date
		r.ScheduledDate = &scheduled
	}
}
