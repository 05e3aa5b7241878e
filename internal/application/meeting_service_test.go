package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/testfixtures"
)

type stubConflictChecker struct {
	conflicted bool
	err        error

	lastParticipants []string
	lastExcluded     string
}

func (s *stubConflictChecker) HasSchedulingConflict(_ context.Context, participantIDs []string, _ time.Time, _ int, excludeRequestID string) (bool, error) {
	s.lastParticipants = participantIDs
	s.lastExcluded = excludeRequestID
	return s.conflicted, s.err
}

func newMeetingService(store *fakeMeetingRequestStore, conflicts schedulingConflictChecker) *MeetingRequestService {
	ids := testfixtures.NewIDGenerator("req")
	clock := testfixtures.NewClock(testfixtures.ReferenceTime())
	return NewMeetingRequestService(store, conflicts, ids.NextFunc(), clock.NowFunc())
}

func validInput() MeetingRequestInput {
	return MeetingRequestInput{
		RequesterID:     "alice",
		OwnerID:         "bob",
		Subject:         "Planning",
		Message:         "Next sprint",
		DurationMinutes: 30,
	}
}

func TestMeetingRequestServiceCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("requester creates a pending request", func(t *testing.T) {
		store := newFakeMeetingRequestStore()
		service := newMeetingService(store, nil)

		request, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if request.Status != meeting.StatusPending {
			t.Fatalf("expected pending, got %s", request.Status)
		}
		if request.DurationMinutes != 30 {
			t.Fatalf("expected duration 30, got %d", request.DurationMinutes)
		}
		if request.ID == "" {
			t.Fatal("expected generated id")
		}
	})

	t.Run("duration defaults to one hour", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)

		input := validInput()
		input.DurationMinutes = 0
		request, err := service.Create(ctx, Principal{UserID: "alice"}, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if request.DurationMinutes != 60 {
			t.Fatalf("expected default duration 60, got %d", request.DurationMinutes)
		}
	})

	t.Run("impersonating the requester is rejected", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)

		_, err := service.Create(ctx, Principal{UserID: "mallory"}, validInput())
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("requester equals owner is rejected", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)

		input := validInput()
		input.OwnerID = input.RequesterID
		_, err := service.Create(ctx, Principal{UserID: "alice"}, input)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMeetingRequestServiceGetAndList(t *testing.T) {
	ctx := context.Background()
	store := newFakeMeetingRequestStore()
	service := newMeetingService(store, nil)

	created, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	t.Run("participants and admins may read", func(t *testing.T) {
		for _, p := range []Principal{{UserID: "alice"}, {UserID: "bob"}, {UserID: "root", IsAdmin: true}} {
			if _, err := service.Get(ctx, p, created.ID); err != nil {
				t.Fatalf("get as %s: %v", p.UserID, err)
			}
		}
	})

	t.Run("outsiders may not read", func(t *testing.T) {
		_, err := service.Get(ctx, Principal{UserID: "mallory"}, created.ID)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := service.Get(ctx, Principal{UserID: "alice"}, "missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("listing defaults to the caller's requests", func(t *testing.T) {
		requests, err := service.List(ctx, Principal{UserID: "bob"}, ListMeetingRequestsParams{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(requests) != 1 {
			t.Fatalf("expected 1 request, got %d", len(requests))
		}

		requests, err = service.List(ctx, Principal{UserID: "mallory"}, ListMeetingRequestsParams{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(requests) != 0 {
			t.Fatalf("expected no visible requests, got %d", len(requests))
		}
	})

	t.Run("status filter narrows the listing", func(t *testing.T) {
		denied := testfixtures.NewRequestFixture(
			testfixtures.WithRequestParticipants("carol", "bob"),
			testfixtures.WithRequestSubject("Budget review"),
			testfixtures.WithRequestStatus(meeting.StatusDenied),
		)
		store.requests[denied.ID] = denied

		requests, err := service.List(ctx, Principal{UserID: "bob"}, ListMeetingRequestsParams{Status: string(meeting.StatusDenied)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(requests) != 1 || requests[0].ID != denied.ID {
			t.Fatalf("unexpected requests %+v", requests)
		}
	})

	t.Run("status filter is validated", func(t *testing.T) {
		_, err := service.List(ctx, Principal{UserID: "alice"}, ListMeetingRequestsParams{Status: "bogus"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMeetingRequestServiceDecisions(t *testing.T) {
	ctx := context.Background()

	create := func(t *testing.T, checker schedulingConflictChecker) (*MeetingRequestService, meeting.Request) {
		t.Helper()
		service := newMeetingService(newFakeMeetingRequestStore(), checker)
		request, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		return service, request
	}

	t.Run("owner approves", func(t *testing.T) {
		service, request := create(t, nil)

		approved, err := service.Approve(ctx, Principal{UserID: "bob"}, request.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if approved.Status != meeting.StatusApproved {
			t.Fatalf("expected approved, got %s", approved.Status)
		}
	})

	t.Run("requester may not decide", func(t *testing.T) {
		service, request := create(t, nil)

		_, err := service.Approve(ctx, Principal{UserID: "alice"}, request.ID)
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("denied is terminal", func(t *testing.T) {
		service, request := create(t, nil)

		denied, err := service.Deny(ctx, Principal{UserID: "bob"}, request.ID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if denied.Status != meeting.StatusDenied {
			t.Fatalf("expected denied, got %s", denied.Status)
		}

		_, err = service.Approve(ctx, Principal{UserID: "bob"}, request.ID)
		if !errors.Is(err, meeting.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("schedule fixes the date", func(t *testing.T) {
		checker := &stubConflictChecker{}
		service, request := create(t, checker)

		when := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
		scheduled, err := service.Schedule(ctx, Principal{UserID: "bob"}, request.ID, when)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scheduled.Status != meeting.StatusScheduled {
			t.Fatalf("expected scheduled, got %s", scheduled.Status)
		}
		if scheduled.ScheduledDate == nil || !scheduled.ScheduledDate.Equal(when) {
			t.Fatalf("unexpected scheduled date %v", scheduled.ScheduledDate)
		}
		if len(checker.lastParticipants) != 2 {
			t.Fatalf("expected both participants checked, got %v", checker.lastParticipants)
		}
		if checker.lastExcluded != request.ID {
			t.Fatalf("expected the request itself excluded, got %q", checker.lastExcluded)
		}
	})

	t.Run("schedule conflict blocks the transition", func(t *testing.T) {
		service, request := create(t, &stubConflictChecker{conflicted: true})

		when := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
		_, err := service.Schedule(ctx, Principal{UserID: "bob"}, request.ID, when)
		if !errors.Is(err, ErrScheduleConflict) {
			t.Fatalf("expected ErrScheduleConflict, got %v", err)
		}

		current, err := service.Get(ctx, Principal{UserID: "bob"}, request.ID)
		if err != nil {
			t.Fatalf("get after failed schedule: %v", err)
		}
		if current.Status != meeting.StatusPending {
			t.Fatalf("status must be unchanged, got %s", current.Status)
		}
	})

	t.Run("scheduled request can be rescheduled", func(t *testing.T) {
		service, request := create(t, &stubConflictChecker{})

		first := time.Date(2024, time.June, 12, 14, 0, 0, 0, time.UTC)
		if _, err := service.Schedule(ctx, Principal{UserID: "bob"}, request.ID, first); err != nil {
			t.Fatalf("first schedule: %v", err)
		}

		second := first.Add(24 * time.Hour)
		rescheduled, err := service.Schedule(ctx, Principal{UserID: "bob"}, request.ID, second)
		if err != nil {
			t.Fatalf("reschedule: %v", err)
		}
		if rescheduled.ScheduledDate == nil || !rescheduled.ScheduledDate.Equal(second) {
			t.Fatalf("unexpected scheduled date %v", rescheduled.ScheduledDate)
		}
	})

	t.Run("schedule requires a date", func(t *testing.T) {
		service, request := create(t, nil)

		_, err := service.Schedule(ctx, Principal{UserID: "bob"}, request.ID, time.Time{})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected validation error, got %v", err)
		}
	})
}

func TestMeetingRequestServiceUpdateAndDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("requester edits a pending request", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)
		request, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		input := validInput()
		input.Subject = "Replanning"
		updated, err := service.Update(ctx, Principal{UserID: "alice"}, request.ID, input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Subject != "Replanning" {
			t.Fatalf("unexpected subject %q", updated.Subject)
		}
	})

	t.Run("decided requests are frozen", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)
		request, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := service.Approve(ctx, Principal{UserID: "bob"}, request.ID); err != nil {
			t.Fatalf("approve: %v", err)
		}

		_, err = service.Update(ctx, Principal{UserID: "alice"}, request.ID, validInput())
		if !errors.Is(err, meeting.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("requester deletes a pending request", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)
		request, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := service.Delete(ctx, Principal{UserID: "alice"}, request.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := service.Get(ctx, Principal{UserID: "alice"}, request.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})

	t.Run("denied requests are kept", func(t *testing.T) {
		service := newMeetingService(newFakeMeetingRequestStore(), nil)
		request, err := service.Create(ctx, Principal{UserID: "alice"}, validInput())
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := service.Deny(ctx, Principal{UserID: "bob"}, request.ID); err != nil {
			t.Fatalf("deny: %v", err)
		}

		err = service.Delete(ctx, Principal{UserID: "alice"}, request.ID)
		if !errors.Is(err, meeting.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})
}
