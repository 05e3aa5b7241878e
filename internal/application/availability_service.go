package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/recurrence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// AvailabilityService orchestrates validation and persistence for per-user
// availability records and their unavailable slots.
type AvailabilityService struct {
	store       persistence.AvailabilityRepository
	policy      availability.Policy
	expander    *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAvailabilityService wires dependencies for availability operations.
func NewAvailabilityService(store persistence.AvailabilityRepository, policy availability.Policy, expander *recurrence.Engine, idGenerator func() string, now func() time.Time) *AvailabilityService {
	return NewAvailabilityServiceWithLogger(store, policy, expander, idGenerator, now, nil)
}

// NewAvailabilityServiceWithLogger wires dependencies including a logger.
func NewAvailabilityServiceWithLogger(store persistence.AvailabilityRepository, policy availability.Policy, expander *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AvailabilityService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if expander == nil {
		expander = recurrence.NewEngine(recurrence.DefaultConfig())
	}
	return &AvailabilityService{
		store:       store,
		policy:      policy,
		expander:    expander,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Policy exposes the fallback policy the service evaluates with.
func (s *AvailabilityService) Policy() availability.Policy {
	return s.policy
}

// Get loads a user's availability record. found is false when the user has
// never saved one; that is missing data, not an error and not
// unavailability.
func (s *AvailabilityService) Get(ctx context.Context, userID string) (availability.Record, bool, error) {
	if userID == "" {
		vErr := &ValidationError{}
		vErr.add("user_id", "user id is required")
		return availability.Record{}, false, vErr
	}

	record, err := s.store.LoadAvailability(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return availability.Record{}, false, nil
		}
		return availability.Record{}, false, fmt.Errorf("load availability: %w", err)
	}
	return record, true, nil
}

// Put replaces a user's availability record after validating it. Only the
// owner or an admin may write.
func (s *AvailabilityService) Put(ctx context.Context, principal Principal, record availability.Record) (availability.Record, error) {
	if !principal.CanActFor(record.UserID) {
		return availability.Record{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	validateRecord(record, vErr)
	if vErr.HasErrors() {
		return availability.Record{}, vErr
	}

	normalized := record.Clone()
	if normalized.Dates == nil {
		normalized.Dates = []availability.DateAvailability{}
	}
	if normalized.UnavailableSlots == nil {
		normalized.UnavailableSlots = []availability.UnavailableSlot{}
	}
	for i := range normalized.UnavailableSlots {
		if normalized.UnavailableSlots[i].ID == "" {
			normalized.UnavailableSlots[i].ID = s.idGenerator()
		}
	}

	if err := s.store.SaveAvailability(ctx, normalized); err != nil {
		return availability.Record{}, mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "availability", "put", "user_id", record.UserID).
		InfoContext(ctx, "availability record saved",
			"dates", len(normalized.Dates),
			"slots", len(normalized.UnavailableSlots))

	return normalized, nil
}

// AddUnavailableSlot records a carve-out on a user's calendar. Recurring
// slots are expanded immediately: the parent keeps the rule and each
// generated occurrence becomes a dated instance linked to it. truncated
// reports that the expansion hit a safety cap.
func (s *AvailabilityService) AddUnavailableSlot(ctx context.Context, principal Principal, userID string, input SlotInput) (availability.Record, bool, error) {
	if !principal.CanActFor(userID) {
		return availability.Record{}, false, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if userID == "" {
		vErr.add("user_id", "user id is required")
	}
	if input.Date.IsZero() {
		vErr.add("date", "date is required")
	}
	window := timerange.Range{Start: input.StartTime, End: input.EndTime}
	if err := window.Validate(); err != nil {
		vErr.add("time", "start must be before end")
	}
	if err := input.Recurrence.Validate(); err != nil {
		vErr.add("recurrence", err.Error())
	}
	if vErr.HasErrors() {
		return availability.Record{}, false, vErr
	}

	record, found, err := s.Get(ctx, userID)
	if err != nil {
		return availability.Record{}, false, err
	}
	if !found {
		record = s.baselineRecord(userID)
	}

	parent := availability.UnavailableSlot{
		ID:         s.idGenerator(),
		Date:       input.Date,
		StartTime:  input.StartTime,
		EndTime:    input.EndTime,
		Title:      input.Title,
		Recurrence: input.Recurrence,
	}

	expansion, err := s.expander.Expand(parent.Date, parent.Recurrence)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("recurrence", err.Error())
		return availability.Record{}, false, vErr
	}

	// Replace the slot list wholesale instead of appending while expanding.
	next := record.Clone()
	slots := append([]availability.UnavailableSlot(nil), next.UnavailableSlots...)
	slots = append(slots, parent)
	for _, date := range expansion.Dates {
		instance := parent
		instance.ID = s.idGenerator()
		instance.Date = date
		instance.Recurrence = recurrence.Rule{}
		instance.ParentSlotID = parent.ID
		instance.IsRecurringInstance = true
		slots = append(slots, instance)
	}
	next.UnavailableSlots = slots

	if err := s.store.SaveAvailability(ctx, next); err != nil {
		return availability.Record{}, false, mapRepositoryError(err)
	}

	logger := serviceLogger(ctx, s.logger, "availability", "add_slot", "user_id", userID, "slot_id", parent.ID)
	logger.InfoContext(ctx, "unavailable slot added", "instances", len(expansion.Dates))
	if expansion.Truncated {
		logger.WarnContext(ctx, "recurrence expansion truncated by safety cap")
	}

	return next, expansion.Truncated, nil
}

// RemoveUnavailableSlot deletes a slot from a user's record. Removing a
// recurring parent removes its generated instances as well.
func (s *AvailabilityService) RemoveUnavailableSlot(ctx context.Context, principal Principal, userID, slotID string) (availability.Record, error) {
	if !principal.CanActFor(userID) {
		return availability.Record{}, ErrUnauthorized
	}

	record, found, err := s.Get(ctx, userID)
	if err != nil {
		return availability.Record{}, err
	}
	if !found {
		return availability.Record{}, ErrNotFound
	}

	removed := false
	kept := make([]availability.UnavailableSlot, 0, len(record.UnavailableSlots))
	for _, slot := range record.UnavailableSlots {
		if slot.ID == slotID || slot.ParentSlotID == slotID {
			removed = true
			continue
		}
		kept = append(kept, slot)
	}
	if !removed {
		return availability.Record{}, ErrNotFound
	}

	next := record.Clone()
	next.UnavailableSlots = kept

	if err := s.store.SaveAvailability(ctx, next); err != nil {
		return availability.Record{}, mapRepositoryError(err)
	}

	serviceLogger(ctx, s.logger, "availability", "remove_slot", "user_id", userID, "slot_id", slotID).
		InfoContext(ctx, "unavailable slot removed", "remaining", len(kept))

	return next, nil
}

// Evaluate decides whether the user is free for the window on the date,
// applying the service's fallback policy for missing data.
func (s *AvailabilityService) Evaluate(ctx context.Context, userID string, date timerange.Date, window timerange.Range) (availability.Decision, error) {
	record, found, err := s.Get(ctx, userID)
	if err != nil {
		return availability.Decision{}, err
	}

	var recordRef *availability.Record
	if found {
		recordRef = &record
	}

	decision, err := availability.Evaluate(recordRef, s.policy, date, window)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("time", err.Error())
		return availability.Decision{}, vErr
	}
	return decision, nil
}

// baselineRecord is the lazily created record for a user's first write,
// seeded from the policy fallback hours.
func (s *AvailabilityService) baselineRecord(userID string) availability.Record {
	return availability.Record{
		UserID:           userID,
		DefaultStart:     s.policy.FallbackHours.Start,
		DefaultEnd:       s.policy.FallbackHours.End,
		Dates:            []availability.DateAvailability{},
		UnavailableSlots: []availability.UnavailableSlot{},
	}
}

func validateRecord(record availability.Record, vErr *ValidationError) {
	if record.UserID == "" {
		vErr.add("user_id", "user id is required")
	}
	if record.DefaultStart >= record.DefaultEnd {
		vErr.add("default_hours", "default start must be before default end")
	}

	seen := make(map[timerange.Date]struct{}, len(record.Dates))
	for _, entry := range record.Dates {
		if _, dup := seen[entry.Date]; dup {
			vErr.add("dates", fmt.Sprintf("duplicate entry for %s", entry.Date))
			continue
		}
		seen[entry.Date] = struct{}{}
		if entry.Available && entry.StartTime >= entry.EndTime {
			vErr.add("dates", fmt.Sprintf("entry for %s has inverted hours", entry.Date))
		}
	}

	for _, slot := range record.UnavailableSlots {
		if slot.StartTime >= slot.EndTime {
			vErr.add("unavailable_slots", fmt.Sprintf("slot on %s has inverted hours", slot.Date))
		}
	}
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("time", "start must be before end")
		return vErr
	}
	return err
}
