package meeting

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a meeting request.
type Status string

const (
	// StatusPending means the request awaits the owner's decision.
	StatusPending Status = "pending"
	// StatusApproved means the owner accepted but no time is fixed yet.
	StatusApproved Status = "approved"
	// StatusScheduled means a concrete time has been committed.
	StatusScheduled Status = "scheduled"
	// StatusDenied means the owner rejected the request.
	StatusDenied Status = "denied"
)

// ParseStatus converts a wire name into a Status.
func ParseStatus(value string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(value))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusScheduled:
		return StatusScheduled, nil
	case StatusDenied:
		return StatusDenied, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, value)
	}
}

var (
	// ErrInvalidStatus indicates an unknown lifecycle state.
	ErrInvalidStatus = errors.New("meeting: invalid status")
	// ErrInvalidTransition indicates a lifecycle move the state machine
	// forbids.
	ErrInvalidTransition = errors.New("meeting: invalid status transition")
	// ErrMissingScheduledDate indicates a scheduled transition without a
	// concrete time.
	ErrMissingScheduledDate = errors.New("meeting: scheduled date is required")
)

// CanTransition reports whether the state machine permits moving from one
// status to another. Scheduled requests may be rescheduled, which is modeled
// as a scheduled-to-scheduled transition.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusApproved || to == StatusDenied || to == StatusScheduled
	case StatusApproved:
		return to == StatusScheduled
	case StatusScheduled:
		return to == StatusScheduled
	default:
		return false
	}
}

// Deletable reports whether a request in the given status may be removed.
// Denied requests are kept as a record of the decision.
func Deletable(status Status) bool {
	return status != StatusDenied
}

// Request is a meeting proposal from a requester to an owner.
type Request struct {
	ID             string
	RequesterID    string
	OwnerID        string
	Subject        string
	Message        string
	PreferredDates []time.Time
	// DurationMinutes is the meeting length used for overlap scans.
	DurationMinutes int
	Status          Status
	// ScheduledDate is set exactly when Status is StatusScheduled.
	ScheduledDate *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CheckInvariants verifies the scheduled-date/status coupling.
func (r Request) CheckInvariants() error {
	if r.Status == StatusScheduled && r.ScheduledDate == nil {
		return fmt.Errorf("%w: request %s is scheduled", ErrMissingScheduledDate, r.ID)
	}
	if r.Status != StatusScheduled && r.ScheduledDate != nil {
		return fmt.Errorf("%w: request %s has a scheduled date in status %s", ErrInvalidTransition, r.ID, r.Status)
	}
	return nil
}

// Transition moves the request to the target status, enforcing the state
// machine and the scheduled-date invariant. scheduledDate is required for
// scheduled targets and must be nil otherwise.
func (r Request) Transition(to Status, scheduledDate *time.Time, now time.Time) (Request, error) {
	if !CanTransition(r.Status, to) {
		return Request{}, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, r.Status, to)
	}
	if to == StatusScheduled && scheduledDate == nil {
		return Request{}, ErrMissingScheduledDate
	}
	if to != StatusScheduled && scheduledDate != nil {
		return Request{}, fmt.Errorf("%w: %s does not take a scheduled date", ErrInvalidTransition, to)
	}

	updated := r
	updated.Status = to
	updated.ScheduledDate = nil
	if scheduledDate != nil {
		d := *scheduledDate
		updated.ScheduledDate = &d
	}
	updated.UpdatedAt = now
	return updated, nil
}
