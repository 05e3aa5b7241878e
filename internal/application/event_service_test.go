package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/testfixtures"
)

func newEventService(store *fakeEventStore) *EventService {
	ids := testfixtures.NewIDGenerator("evt")
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewEventService(store, recurrence.NewEngine(recurrence.DefaultConfig()), ids.NextFunc(), clock.NowFunc())
}

func weeklyStandupInput() EventInput {
	start := time.Date(2024, time.June, 10, 9, 30, 0, 0, time.UTC)
	return EventInput{
		Title:     "Standup",
		Start:     start,
		End:       start.Add(15 * time.Minute),
		Attendees: []string{"alice", "bob"},
		Recurrence: recurrence.Rule{
			Frequency: recurrence.FrequencyWeekly,
			Interval:  1,
			End:       recurrence.EndAfterCount,
			EndAfter:  2,
		},
	}
}

func TestEventServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("one-off event", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		start := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
		result, err := service.Create(ctx, Principal{UserID: "alice"}, EventInput{
			Title: "Review",
			Start: start,
			End:   start.Add(time.Hour),
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Instances) != 0 || result.Truncated {
			t.Fatalf("one-off event must not expand, got %+v", result)
		}
		if result.Event.CreatedBy != "alice" {
			t.Fatalf("unexpected creator %q", result.Event.CreatedBy)
		}
		if !containsString(result.Event.Attendees, "alice") {
			t.Fatal("creator must be an attendee")
		}
		if len(store.events) != 1 {
			t.Fatalf("expected 1 stored event, got %d", len(store.events))
		}
	})

	t.Run("recurring event expands into instances", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		result, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(result.Instances) != 2 {
			t.Fatalf("expected 2 instances, got %d", len(result.Instances))
		}
		if result.Truncated {
			t.Fatal("bounded rule must not truncate")
		}

		wantStarts := []time.Time{
			time.Date(2024, time.June, 17, 9, 30, 0, 0, time.UTC),
			time.Date(2024, time.June, 24, 9, 30, 0, 0, time.UTC),
		}
		for i, instance := range result.Instances {
			if !instance.Start.Equal(wantStarts[i]) {
				t.Fatalf("instance %d start %v, want %v", i, instance.Start, wantStarts[i])
			}
			if got := instance.End.Sub(instance.Start); got != 15*time.Minute {
				t.Fatalf("instance %d duration %v", i, got)
			}
			if instance.ParentEventID != result.Event.ID || !instance.IsRecurringInstance {
				t.Fatalf("instance %d missing parent linkage", i)
			}
		}
		if len(store.events) != 3 {
			t.Fatalf("expected 3 stored events, got %d", len(store.events))
		}
	})

	t.Run("inverted times are rejected", func(t *testing.T) {
		service := newEventService(newFakeEventStore())

		start := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
		_, err := service.Create(ctx, Principal{UserID: "alice"}, EventInput{
			Title: "Broken",
			Start: start,
			End:   start.Add(-time.Hour),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestEventServiceUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("updating a parent regenerates instances", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		created, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		input := weeklyStandupInput()
		input.Title = "Daily standup"
		input.Recurrence.EndAfter = 3
		result, err := service.Update(ctx, Principal{UserID: "alice"}, created.Event.ID, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Event.Title != "Daily standup" {
			t.Fatalf("unexpected title %q", result.Event.Title)
		}
		if len(result.Instances) != 3 {
			t.Fatalf("expected 3 regenerated instances, got %d", len(result.Instances))
		}

		// Old instances are gone: 1 parent + 3 fresh instances remain.
		if len(store.events) != 4 {
			t.Fatalf("expected 4 stored events, got %d", len(store.events))
		}
		for _, old := range created.Instances {
			if _, err := service.Get(ctx, old.ID); !errors.Is(err, ErrNotFound) {
				t.Fatalf("stale instance %s still present", old.ID)
			}
		}
	})

	t.Run("instances are not edited directly", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		created, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		_, err = service.Update(ctx, Principal{UserID: "alice"}, created.Instances[0].ID, weeklyStandupInput())
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})

	t.Run("only the creator or an admin may update", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		created, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		_, err = service.Update(ctx, Principal{UserID: "bob"}, created.Event.ID, weeklyStandupInput())
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}

		if _, err := service.Update(ctx, Principal{UserID: "root", IsAdmin: true}, created.Event.ID, weeklyStandupInput()); err != nil {
			t.Fatalf("admin update: %v", err)
		}
	})
}

func TestEventServiceDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("deleting a parent removes its instances", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		created, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := service.Delete(ctx, Principal{UserID: "alice"}, created.Event.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.events) != 0 {
			t.Fatalf("expected empty store, got %d events", len(store.events))
		}
	})

	t.Run("deleting one instance keeps the series", func(t *testing.T) {
		store := newFakeEventStore()
		service := newEventService(store)

		created, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := service.Delete(ctx, Principal{UserID: "alice"}, created.Instances[0].ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(store.events) != 2 {
			t.Fatalf("expected 2 events left, got %d", len(store.events))
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		service := newEventService(newFakeEventStore())

		err := service.Delete(ctx, Principal{UserID: "alice"}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventServiceGet(t *testing.T) {
	ctx := context.Background()
	store := newFakeEventStore()
	service := newEventService(store)

	parent := testfixtures.NewEventFixture(
		testfixtures.WithEventID("retro"),
		testfixtures.WithEventTitle("Retro"),
		testfixtures.WithEventCreator("alice"),
		testfixtures.WithEventRecurrence(recurrence.Rule{
			Frequency: recurrence.FrequencyWeekly,
			Interval:  1,
			End:       recurrence.EndAfterCount,
			EndAfter:  1,
		}),
	)
	instance := testfixtures.NewEventFixture(
		testfixtures.WithEventID("retro-1"),
		testfixtures.WithEventCreator("alice"),
		testfixtures.WithEventParent("retro"),
	)
	store.events[parent.ID] = parent
	store.events[instance.ID] = instance

	t.Run("parent", func(t *testing.T) {
		entry, err := service.Get(ctx, "retro")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.Title != "Retro" || !entry.Recurrence.IsRepeating() {
			t.Fatalf("unexpected entry %+v", entry)
		}
	})

	t.Run("generated instance", func(t *testing.T) {
		entry, err := service.Get(ctx, "retro-1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if entry.ParentEventID != "retro" || !entry.IsRecurringInstance {
			t.Fatalf("unexpected entry %+v", entry)
		}
		if entry.Recurrence.IsRepeating() {
			t.Fatal("instance must not carry the rule")
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		if _, err := service.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventServiceList(t *testing.T) {
	ctx := context.Background()
	store := newFakeEventStore()
	service := newEventService(store)

	if _, err := service.Create(ctx, Principal{UserID: "alice"}, weeklyStandupInput()); err != nil {
		t.Fatalf("create: %v", err)
	}

	start := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
	if _, err := service.Create(ctx, Principal{UserID: "carol"}, EventInput{
		Title: "1:1",
		Start: start,
		End:   start.Add(30 * time.Minute),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	entries, err := service.List(ctx, persistence.EventFilter{AttendeeID: "carol"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 || entries[0].Title != "1:1" {
		t.Fatalf("unexpected listing %+v", entries)
	}
}
