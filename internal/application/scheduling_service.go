package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/scheduler"
	"github.com/example/availability-scheduler/internal/timerange"
)

// SchedulingService answers availability questions spanning multiple users:
// conflict detection for a proposed time and common-slot search for a day.
type SchedulingService struct {
	availabilityStore persistence.AvailabilityRepository
	requestStore      persistence.MeetingRequestRepository
	policy            availability.Policy
	slotConfig        scheduler.SlotSearchConfig
	logger            *slog.Logger
}

// NewSchedulingService wires dependencies for multi-user scheduling queries.
func NewSchedulingService(availabilityStore persistence.AvailabilityRepository, requestStore persistence.MeetingRequestRepository, policy availability.Policy, slotConfig scheduler.SlotSearchConfig) *SchedulingService {
	return NewSchedulingServiceWithLogger(availabilityStore, requestStore, policy, slotConfig, nil)
}

// NewSchedulingServiceWithLogger wires dependencies including a logger.
func NewSchedulingServiceWithLogger(availabilityStore persistence.AvailabilityRepository, requestStore persistence.MeetingRequestRepository, policy availability.Policy, slotConfig scheduler.SlotSearchConfig, logger *slog.Logger) *SchedulingService {
	if slotConfig.StepMinutes <= 0 {
		slotConfig = scheduler.DefaultSlotSearchConfig()
	}
	return &SchedulingService{
		availabilityStore: availabilityStore,
		requestStore:      requestStore,
		policy:            policy,
		slotConfig:        slotConfig,
		logger:            defaultLogger(logger),
	}
}

// CheckConflicts evaluates every named user against the proposed time and
// reports all conflicts found.
func (s *SchedulingService) CheckConflicts(ctx context.Context, userIDs []string, start, end time.Time) (scheduler.ConflictReport, error) {
	if len(userIDs) == 0 {
		vErr := &ValidationError{}
		vErr.add("user_ids", "at least one user id is required")
		return scheduler.ConflictReport{}, vErr
	}

	users, err := s.loadUsers(ctx, userIDs)
	if err != nil {
		return scheduler.ConflictReport{}, err
	}

	report, err := scheduler.CheckConflicts(users, s.policy, start, end)
	if err != nil {
		return scheduler.ConflictReport{}, err
	}

	serviceLogger(ctx, s.logger, "scheduling", "check_conflicts").
		InfoContext(ctx, "conflict check completed",
			"users", len(userIDs),
			"conflicts", len(report.Conflicts))

	return report, nil
}

// FindCommonSlots scans the configured search window for start times where
// at least one of the named users is free for the full duration.
func (s *SchedulingService) FindCommonSlots(ctx context.Context, userIDs []string, date timerange.Date, durationMinutes int) ([]scheduler.Slot, error) {
	vErr := &ValidationError{}
	if len(userIDs) == 0 {
		vErr.add("user_ids", "at least one user id is required")
	}
	if date.IsZero() {
		vErr.add("date", "date is required")
	}
	if durationMinutes <= 0 {
		vErr.add("duration", "duration must be positive")
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	users, err := s.loadUsers(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	slots, err := scheduler.FindCommonSlots(users, s.policy, date, durationMinutes, s.slotConfig)
	if err != nil {
		return nil, err
	}

	serviceLogger(ctx, s.logger, "scheduling", "find_common_slots", "date", date.String()).
		InfoContext(ctx, "slot search completed",
			"users", len(userIDs),
			"slots", len(slots))

	return slots, nil
}

// HasSchedulingConflict reports whether scheduling a meeting at start for
// the duration would double-book any participant. Every scheduled request
// the participant is involved in counts, whichever side they are on.
func (s *SchedulingService) HasSchedulingConflict(ctx context.Context, participantIDs []string, start time.Time, durationMinutes int, excludeRequestID string) (bool, error) {
	for _, participantID := range participantIDs {
		requests, err := s.requestStore.ListMeetingRequests(ctx, persistence.MeetingRequestFilter{
			UserID: participantID,
			Status: meeting.StatusScheduled,
		})
		if err != nil {
			return false, fmt.Errorf("list scheduled requests: %w", err)
		}

		meetings := make([]scheduler.ScheduledMeeting, 0, len(requests))
		for _, request := range requests {
			if request.ScheduledDate == nil {
				continue
			}
			meetings = append(meetings, scheduler.ScheduledMeeting{
				RequestID:       request.ID,
				Start:           *request.ScheduledDate,
				DurationMinutes: request.DurationMinutes,
			})
		}
		if scheduler.HasSchedulingConflict(meetings, start, durationMinutes, excludeRequestID) {
			return true, nil
		}
	}
	return false, nil
}

// loadUsers fetches availability records for each user id. Users without a
// record participate with a nil record so policy defaults apply.
func (s *SchedulingService) loadUsers(ctx context.Context, userIDs []string) ([]scheduler.UserAvailability, error) {
	users := make([]scheduler.UserAvailability, 0, len(userIDs))
	for _, userID := range userIDs {
		user := scheduler.UserAvailability{UserID: userID}
		record, err := s.availabilityStore.LoadAvailability(ctx, userID)
		switch {
		case err == nil:
			user.Record = &record
		case errors.Is(err, persistence.ErrNotFound):
			// No record yet; evaluated against policy defaults.
		default:
			return nil, fmt.Errorf("load availability for %s: %w", userID, err)
		}
		users = append(users, user)
	}
	return users, nil
}
