package application

import (
	"context"
	"sort"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/events"
	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/persistence"
)

type fakeAvailabilityStore struct {
	records map[string]availability.Record
	saveErr error
	loadErr error
}

func newFakeAvailabilityStore() *fakeAvailabilityStore {
	return &fakeAvailabilityStore{records: make(map[string]availability.Record)}
}

func (f *fakeAvailabilityStore) LoadAvailability(_ context.Context, userID string) (availability.Record, error) {
	if f.loadErr != nil {
		return availability.Record{}, f.loadErr
	}
	record, ok := f.records[userID]
	if !ok {
		return availability.Record{}, persistence.ErrNotFound
	}
	return record.Clone(), nil
}

func (f *fakeAvailabilityStore) SaveAvailability(_ context.Context, record availability.Record) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.records[record.UserID] = record.Clone()
	return nil
}

func (f *fakeAvailabilityStore) DeleteAvailability(_ context.Context, userID string) error {
	if _, ok := f.records[userID]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.records, userID)
	return nil
}

type fakeMeetingRequestStore struct {
	requests  map[string]meeting.Request
	createErr error
	updateErr error
}

func newFakeMeetingRequestStore() *fakeMeetingRequestStore {
	return &fakeMeetingRequestStore{requests: make(map[string]meeting.Request)}
}

func (f *fakeMeetingRequestStore) CreateMeetingRequest(_ context.Context, request meeting.Request) error {
	if f.createErr != nil {
		return f.createErr
	}
	if _, exists := f.requests[request.ID]; exists {
		return persistence.ErrDuplicate
	}
	f.requests[request.ID] = request
	return nil
}

func (f *fakeMeetingRequestStore) GetMeetingRequest(_ context.Context, id string) (meeting.Request, error) {
	request, ok := f.requests[id]
	if !ok {
		return meeting.Request{}, persistence.ErrNotFound
	}
	return request, nil
}

func (f *fakeMeetingRequestStore) UpdateMeetingRequest(_ context.Context, request meeting.Request) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if _, ok := f.requests[request.ID]; !ok {
		return persistence.ErrNotFound
	}
	f.requests[request.ID] = request
	return nil
}

func (f *fakeMeetingRequestStore) ListMeetingRequests(_ context.Context, filter persistence.MeetingRequestFilter) ([]meeting.Request, error) {
	ids := make([]string, 0, len(f.requests))
	for id := range f.requests {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matched := make([]meeting.Request, 0, len(ids))
	for _, id := range ids {
		request := f.requests[id]
		if filter.UserID != "" && request.RequesterID != filter.UserID && request.OwnerID != filter.UserID {
			continue
		}
		if filter.RequesterID != "" && request.RequesterID != filter.RequesterID {
			continue
		}
		if filter.OwnerID != "" && request.OwnerID != filter.OwnerID {
			continue
		}
		if filter.Status != "" && request.Status != filter.Status {
			continue
		}
		matched = append(matched, request)
	}
	return matched, nil
}

func (f *fakeMeetingRequestStore) DeleteMeetingRequest(_ context.Context, id string) error {
	if _, ok := f.requests[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.requests, id)
	return nil
}

type fakeEventStore struct {
	events    map[string]events.Event
	createErr error
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[string]events.Event)}
}

func (f *fakeEventStore) CreateEvents(_ context.Context, entries []events.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	for _, entry := range entries {
		if _, exists := f.events[entry.ID]; exists {
			return persistence.ErrDuplicate
		}
	}
	for _, entry := range entries {
		f.events[entry.ID] = entry
	}
	return nil
}

func (f *fakeEventStore) GetEvent(_ context.Context, id string) (events.Event, error) {
	entry, ok := f.events[id]
	if !ok {
		return events.Event{}, persistence.ErrNotFound
	}
	return entry, nil
}

func (f *fakeEventStore) UpdateEvent(_ context.Context, entry events.Event) error {
	if _, ok := f.events[entry.ID]; !ok {
		return persistence.ErrNotFound
	}
	f.events[entry.ID] = entry
	return nil
}

func (f *fakeEventStore) ListEvents(_ context.Context, filter persistence.EventFilter) ([]events.Event, error) {
	ids := make([]string, 0, len(f.events))
	for id := range f.events {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	matched := make([]events.Event, 0, len(ids))
	for _, id := range ids {
		entry := f.events[id]
		if filter.ParentEventID != "" && entry.ParentEventID != filter.ParentEventID {
			continue
		}
		if filter.AttendeeID != "" && !containsString(entry.Attendees, filter.AttendeeID) {
			continue
		}
		if filter.StartsAfter != nil && entry.Start.Before(*filter.StartsAfter) {
			continue
		}
		if filter.EndsBefore != nil && entry.End.After(*filter.EndsBefore) {
			continue
		}
		matched = append(matched, entry)
	}
	return matched, nil
}

func (f *fakeEventStore) DeleteEvent(_ context.Context, id string) error {
	if _, ok := f.events[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) DeleteInstances(_ context.Context, parentEventID string) error {
	for id, entry := range f.events {
		if entry.ParentEventID == parentEventID {
			delete(f.events, id)
		}
	}
	return nil
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
