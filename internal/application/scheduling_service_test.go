package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/scheduler"
	"github.com/example/availability-scheduler/internal/testfixtures"
)

func newSchedulingService(availabilityStore *fakeAvailabilityStore, requestStore *fakeMeetingRequestStore) *SchedulingService {
	return NewSchedulingService(availabilityStore, requestStore, availability.DefaultPolicy(), scheduler.DefaultSlotSearchConfig())
}

func TestSchedulingServiceCheckConflicts(t *testing.T) {
	ctx := context.Background()

	t.Run("free users produce no conflicts", func(t *testing.T) {
		store := newFakeAvailabilityStore()
		service := newSchedulingService(store, newFakeMeetingRequestStore())

		start := time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)
		report, err := service.CheckConflicts(ctx, []string{"alice", "bob"}, start, start.Add(time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !report.Available {
			t.Fatalf("expected no conflicts, got %+v", report.Conflicts)
		}
	})

	t.Run("every conflicted user is reported", func(t *testing.T) {
		store := newFakeAvailabilityStore()
		store.records["alice"] = testfixtures.NewRecordFixture("alice",
			testfixtures.WithDefaultHours(mustTime(t, "13:00"), mustTime(t, "17:00")),
		).Record()
		store.records["bob"] = testfixtures.NewRecordFixture("bob",
			testfixtures.WithDefaultHours(mustTime(t, "14:00"), mustTime(t, "17:00")),
		).Record()
		service := newSchedulingService(store, newFakeMeetingRequestStore())

		start := time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)
		report, err := service.CheckConflicts(ctx, []string{"alice", "bob", "carol"}, start, start.Add(time.Hour))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Available {
			t.Fatal("expected conflicts")
		}
		if len(report.Conflicts) != 2 {
			t.Fatalf("expected 2 conflicts, got %d", len(report.Conflicts))
		}
		for _, conflict := range report.Conflicts {
			if conflict.Reason != availability.ReasonBeforeHours {
				t.Fatalf("unexpected reason %q for %s", conflict.Reason, conflict.UserID)
			}
		}
	})

	t.Run("cross midnight proposal is rejected", func(t *testing.T) {
		service := newSchedulingService(newFakeAvailabilityStore(), newFakeMeetingRequestStore())

		start := time.Date(2024, time.June, 12, 23, 0, 0, 0, time.UTC)
		_, err := service.CheckConflicts(ctx, []string{"alice"}, start, start.Add(2*time.Hour))
		if !errors.Is(err, scheduler.ErrCrossMidnight) {
			t.Fatalf("expected ErrCrossMidnight, got %v", err)
		}
	})

	t.Run("no users is a validation error", func(t *testing.T) {
		service := newSchedulingService(newFakeAvailabilityStore(), newFakeMeetingRequestStore())

		start := time.Date(2024, time.June, 12, 10, 0, 0, 0, time.UTC)
		_, err := service.CheckConflicts(ctx, nil, start, start.Add(time.Hour))
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestSchedulingServiceFindCommonSlots(t *testing.T) {
	ctx := context.Background()

	t.Run("per slot availability over the business window", func(t *testing.T) {
		store := newFakeAvailabilityStore()
		store.records["a"] = testfixtures.NewRecordFixture("a").Record()
		store.records["b"] = testfixtures.NewRecordFixture("b",
			testfixtures.WithDefaultHours(mustTime(t, "13:00"), mustTime(t, "17:00")),
		).Record()
		service := newSchedulingService(store, newFakeMeetingRequestStore())

		slots, err := service.FindCommonSlots(ctx, []string{"a", "b"}, mustDate(t, "2024-06-12"), 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(slots) != 8 {
			t.Fatalf("expected 8 slots, got %d", len(slots))
		}

		consensus := 0
		for _, slot := range slots {
			if len(slot.AvailableUsers) == 2 {
				consensus++
			}
		}
		if consensus != 4 {
			t.Fatalf("expected 4 slots with both users, got %d", consensus)
		}
	})

	t.Run("invalid duration is a validation error", func(t *testing.T) {
		service := newSchedulingService(newFakeAvailabilityStore(), newFakeMeetingRequestStore())

		_, err := service.FindCommonSlots(ctx, []string{"a"}, mustDate(t, "2024-06-12"), 0)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestSchedulingServiceHasSchedulingConflict(t *testing.T) {
	ctx := context.Background()

	scheduledAt := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
	existing := testfixtures.NewRequestFixture(
		testfixtures.WithRequestID("req-1"),
		testfixtures.WithRequestParticipants("alice", "bob"),
		testfixtures.WithRequestDuration(60),
		testfixtures.WithRequestStatus(meeting.StatusScheduled),
		testfixtures.WithRequestScheduledDate(scheduledAt),
	)

	t.Run("overlap on either side is detected", func(t *testing.T) {
		requestStore := newFakeMeetingRequestStore()
		requestStore.requests[existing.ID] = existing
		service := newSchedulingService(newFakeAvailabilityStore(), requestStore)

		proposed := scheduledAt.Add(30 * time.Minute)
		for _, participant := range []string{"alice", "bob"} {
			conflicted, err := service.HasSchedulingConflict(ctx, []string{participant}, proposed, 60, "")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !conflicted {
				t.Fatalf("expected conflict for %s", participant)
			}
		}
	})

	t.Run("touching meetings do not conflict", func(t *testing.T) {
		requestStore := newFakeMeetingRequestStore()
		requestStore.requests[existing.ID] = existing
		service := newSchedulingService(newFakeAvailabilityStore(), requestStore)

		conflicted, err := service.HasSchedulingConflict(ctx, []string{"alice"}, scheduledAt.Add(time.Hour), 60, "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conflicted {
			t.Fatal("back to back meetings must not conflict")
		}
	})

	t.Run("the excluded request is ignored", func(t *testing.T) {
		requestStore := newFakeMeetingRequestStore()
		requestStore.requests[existing.ID] = existing
		service := newSchedulingService(newFakeAvailabilityStore(), requestStore)

		conflicted, err := service.HasSchedulingConflict(ctx, []string{"alice"}, scheduledAt, 60, existing.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if conflicted {
			t.Fatal("rescheduling must ignore the request being moved")
		}
	})
}
