package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/persistence"
)

const defaultMeetingDurationMinutes = 60

// schedulingConflictChecker is the slice of SchedulingService the meeting
// workflow needs when confirming a time.
type schedulingConflictChecker interface {
	HasSchedulingConflict(ctx context.Context, participantIDs []string, start time.Time, durationMinutes int, excludeRequestID string) (bool, error)
}

// MeetingRequestService drives the meeting request workflow from creation
// through approval, denial and scheduling.
type MeetingRequestService struct {
	store       persistence.MeetingRequestRepository
	conflicts   schedulingConflictChecker
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewMeetingRequestService wires dependencies for the request workflow.
func NewMeetingRequestService(store persistence.MeetingRequestRepository, conflicts schedulingConflictChecker, idGenerator func() string, now func() time.Time) *MeetingRequestService {
	return NewMeetingRequestServiceWithLogger(store, conflicts, idGenerator, now, nil)
}

// NewMeetingRequestServiceWithLogger wires dependencies including a logger.
func NewMeetingRequestServiceWithLogger(store persistence.MeetingRequestRepository, conflicts schedulingConflictChecker, idGenerator func() string, now func() time.Time, logger *slog.Logger) *MeetingRequestService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &MeetingRequestService{
		store:       store,
		conflicts:   conflicts,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Create records a new pending meeting request. Only the requester or an
// admin may submit one.
func (s *MeetingRequestService) Create(ctx context.Context, principal Principal, input MeetingRequestInput) (meeting.Request, error) {
	if !principal.CanActFor(input.RequesterID) {
		return meeting.Request{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if input.RequesterID == "" {
		vErr.add("requester_id", "requester id is required")
	}
	if input.OwnerID == "" {
		vErr.add("owner_id", "owner id is required")
	}
	if input.RequesterID != "" && input.RequesterID == input.OwnerID {
		vErr.add("owner_id", "requester and owner must differ")
	}
	if input.Subject == "" {
		vErr.add("subject", "subject is required")
	}
	if input.DurationMinutes < 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		return meeting.Request{}, vErr
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = defaultMeetingDurationMinutes
	}

	now := s.now()
	request := meeting.Request{
		ID:              s.idGenerator(),
		RequesterID:     input.RequesterID,
		OwnerID:         input.OwnerID,
		Subject:         input.Subject,
		Message:         input.Message,
		PreferredDates:  append([]time.Time(nil), input.PreferredDates...),
		DurationMinutes: duration,
		Status:          meeting.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.CreateMeetingRequest(ctx, request); err != nil {
		return meeting.Request{}, mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "meeting_request", "create", "request_id", request.ID).
		InfoContext(ctx, "meeting request created",
			"requester_id", request.RequesterID,
			"owner_id", request.OwnerID)

	return request, nil
}

// Get returns a request visible to the principal. Only participants and
// admins may read a request.
func (s *MeetingRequestService) Get(ctx context.Context, principal Principal, requestID string) (meeting.Request, error) {
	request, err := s.store.GetMeetingRequest(ctx, requestID)
	if err != nil {
		return meeting.Request{}, mapRepositoryError(err)
	}
	if !s.canView(principal, request) {
		return meeting.Request{}, ErrUnauthorized
	}
	return request, nil
}

// List returns requests matching the filter, restricted to what the
// principal may see.
func (s *MeetingRequestService) List(ctx context.Context, principal Principal, params ListMeetingRequestsParams) ([]meeting.Request, error) {
	var status meeting.Status
	if params.Status != "" {
		parsed, err := meeting.ParseStatus(params.Status)
		if err != nil {
			vErr := &ValidationError{}
			vErr.add("status", "unknown status")
			return nil, vErr
		}
		status = parsed
	}

	filter := persistence.MeetingRequestFilter{
		UserID:      params.InvolvedUserID,
		RequesterID: params.RequesterID,
		OwnerID:     params.OwnerID,
		Status:      status,
	}
	if !principal.IsAdmin && filter.UserID == "" && filter.RequesterID == "" && filter.OwnerID == "" {
		filter.UserID = principal.UserID
	}

	requests, err := s.store.ListMeetingRequests(ctx, filter)
	if err != nil {
		return nil, mapRepositoryError(err)
	}

	visible := make([]meeting.Request, 0, len(requests))
	for _, request := range requests {
		if s.canView(principal, request) {
			visible = append(visible, request)
		}
	}
	return visible, nil
}

// Update edits the mutable fields of a pending request. Only the requester
// or an admin may edit, and only while the request is still pending.
func (s *MeetingRequestService) Update(ctx context.Context, principal Principal, requestID string, input MeetingRequestInput) (meeting.Request, error) {
	request, err := s.store.GetMeetingRequest(ctx, requestID)
	if err != nil {
		return meeting.Request{}, mapRepositoryError(err)
	}
	if !principal.CanActFor(request.RequesterID) {
		return meeting.Request{}, ErrUnauthorized
	}
	if request.Status != meeting.StatusPending {
		return meeting.Request{}, meeting.ErrInvalidTransition
	}

	vErr := &ValidationError{}
	if input.Subject == "" {
		vErr.add("subject", "subject is required")
	}
	if input.DurationMinutes < 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		return meeting.Request{}, vErr
	}

	request.Subject = input.Subject
	request.Message = input.Message
	request.PreferredDates = append([]time.Time(nil), input.PreferredDates...)
	if input.DurationMinutes > 0 {
		request.DurationMinutes = input.DurationMinutes
	}
	request.UpdatedAt = s.now()

	if err := s.store.UpdateMeetingRequest(ctx, request); err != nil {
		return meeting.Request{}, mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "meeting_request", "update", "request_id", requestID).
		InfoContext(ctx, "meeting request updated")

	return request, nil
}

// Approve moves a pending request to approved. Only the owner or an admin
// may decide on a request.
func (s *MeetingRequestService) Approve(ctx context.Context, principal Principal, requestID string) (meeting.Request, error) {
	return s.transition(ctx, principal, requestID, meeting.StatusApproved, nil)
}

// Deny moves a pending request to denied, a terminal state.
func (s *MeetingRequestService) Deny(ctx context.Context, principal Principal, requestID string) (meeting.Request, error) {
	return s.transition(ctx, principal, requestID, meeting.StatusDenied, nil)
}

// Schedule confirms a time for an approved or already scheduled request.
// Both participants' scheduled meetings are scanned for double-booking
// before the time is committed.
func (s *MeetingRequestService) Schedule(ctx context.Context, principal Principal, requestID string, scheduledDate time.Time) (meeting.Request, error) {
	if scheduledDate.IsZero() {
		vErr := &ValidationError{}
		vErr.add("scheduled_date", "scheduled date is required")
		return meeting.Request{}, vErr
	}
	return s.transition(ctx, principal, requestID, meeting.StatusScheduled, &scheduledDate)
}

// Delete removes a request. Requesters and admins may delete, except denied
// requests, which are retained as a record of the decision.
func (s *MeetingRequestService) Delete(ctx context.Context, principal Principal, requestID string) error {
	request, err := s.store.GetMeetingRequest(ctx, requestID)
	if err != nil {
		return mapRepositoryError(err)
	}
	if !principal.CanActFor(request.RequesterID) {
		return ErrUnauthorized
	}
	if !meeting.Deletable(request.Status) {
		return meeting.ErrInvalidTransition
	}

	if err := s.store.DeleteMeetingRequest(ctx, requestID); err != nil {
		return mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "meeting_request", "delete", "request_id", requestID).
		InfoContext(ctx, "meeting request deleted")

	return nil
}

func (s *MeetingRequestService) transition(ctx context.Context, principal Principal, requestID string, to meeting.Status, scheduledDate *time.Time) (meeting.Request, error) {
	request, err := s.store.GetMeetingRequest(ctx, requestID)
	if err != nil {
		return meeting.Request{}, mapRepositoryError(err)
	}
	if !principal.CanActFor(request.OwnerID) {
		return meeting.Request{}, ErrUnauthorized
	}

	if to == meeting.StatusScheduled && s.conflicts != nil && scheduledDate != nil {
		participants := []string{request.RequesterID, request.OwnerID}
		conflicted, err := s.conflicts.HasSchedulingConflict(ctx, participants, *scheduledDate, request.DurationMinutes, request.ID)
		if err != nil {
			return meeting.Request{}, err
		}
		if conflicted {
			return meeting.Request{}, ErrScheduleConflict
		}
	}

	updated, err := request.Transition(to, scheduledDate, s.now())
	if err != nil {
		return meeting.Request{}, err
	}

	if err := s.store.UpdateMeetingRequest(ctx, updated); err != nil {
		return meeting.Request{}, mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "meeting_request", "transition", "request_id", requestID).
		InfoContext(ctx, "meeting request status changed",
			"from", string(request.Status),
			"to", string(to))

	return updated, nil
}

func (s *MeetingRequestService) canView(principal Principal, request meeting.Request) bool {
	return principal.IsAdmin || principal.UserID == request.RequesterID || principal.UserID == request.OwnerID
}
