package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/availability-scheduler/internal/availability"
	"github.com/example/availability-scheduler/internal/persistence"
	"github.com/example/availability-scheduler/internal/timerange"
)

// AvailabilityRepository implements persistence.AvailabilityRepository
// using SQLite. Records are stored as documents: a save replaces the date
// entries and unavailable slots wholesale inside one transaction.
type AvailabilityRepository struct {
	pool *ConnectionPool
}

// NewAvailabilityRepository creates a new SQLite availability repository.
func NewAvailabilityRepository(pool *ConnectionPool) *AvailabilityRepository {
	return &AvailabilityRepository{pool: pool}
}

// LoadAvailability retrieves a user's availability record.
func (r *AvailabilityRepository) LoadAvailability(ctx context.Context, userID string) (availability.Record, error) {
	if userID == "" {
		return availability.Record{}, persistence.ErrNotFound
	}

	record := availability.Record{
		UserID:           userID,
		Dates:            []availability.DateAvailability{},
		UnavailableSlots: []availability.UnavailableSlot{},
	}

	var defaultStart, defaultEnd int
	err := r.pool.db.QueryRowContext(ctx,
		`SELECT default_start, default_end FROM availability WHERE user_id = ?`,
		userID,
	).Scan(&defaultStart, &defaultEnd)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return availability.Record{}, persistence.ErrNotFound
		}
		return availability.Record{}, mapError(err)
	}
	record.DefaultStart = timerange.TimeOfDay(defaultStart)
	record.DefaultEnd = timerange.TimeOfDay(defaultEnd)

	dates, err := r.loadDates(ctx, userID)
	if err != nil {
		return availability.Record{}, err
	}
	record.Dates = dates

	slots, err := r.loadSlots(ctx, userID)
	if err != nil {
		return availability.Record{}, err
	}
	record.UnavailableSlots = slots

	return record, nil
}

// SaveAvailability upserts a user's record and everything hanging off it.
func (r *AvailabilityRepository) SaveAvailability(ctx context.Context, record availability.Record) error {
	if record.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO availability (user_id, default_start, default_end)
			 VALUES (?, ?, ?)
			 ON CONFLICT(user_id) DO UPDATE SET
				default_start = excluded.default_start,
				default_end   = excluded.default_end`,
			record.UserID,
			int(record.DefaultStart),
			int(record.DefaultEnd),
		)
		if err != nil {
			return mapError(err)
		}

		if _, err := tx.Exec(`DELETE FROM availability_dates WHERE user_id = ?`, record.UserID); err != nil {
			return mapError(err)
		}
		if _, err := tx.Exec(`DELETE FROM unavailable_slots WHERE user_id = ?`, record.UserID); err != nil {
			return mapError(err)
		}

		for position, entry := range record.Dates {
			_, err := tx.Exec(
				`INSERT INTO availability_dates (user_id, date, available, start_time, end_time, position)
				 VALUES (?, ?, ?, ?, ?, ?)`,
				record.UserID,
				entry.Date.String(),
				entry.Available,
				int(entry.StartTime),
				int(entry.EndTime),
				position,
			)
			if err != nil {
				return mapError(err)
			}
		}

		for position, slot := range record.UnavailableSlots {
			rule := encodeRule(slot.Recurrence)
			_, err := tx.Exec(
				`INSERT INTO unavailable_slots (
					id, user_id, date, start_time, end_time, title,
					frequency, interval, weekdays, month_day,
					end_condition, end_after, end_date,
					parent_slot_id, is_instance, position
				 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				slot.ID,
				record.UserID,
				slot.Date.String(),
				int(slot.StartTime),
				int(slot.EndTime),
				slot.Title,
				rule.Frequency,
				rule.Interval,
				rule.Weekdays,
				rule.MonthDay,
				rule.EndCondition,
				rule.EndAfter,
				rule.EndDate,
				slot.ParentSlotID,
				slot.IsRecurringInstance,
				position,
			)
			if err != nil {
				return mapError(err)
			}
		}

		return nil
	})
}

// DeleteAvailability removes a user's record and its dependents.
func (r *AvailabilityRepository) DeleteAvailability(ctx context.Context, userID string) error {
	if userID == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM availability WHERE user_id = ?`, userID)
	if err != nil {
		return mapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func (r *AvailabilityRepository) loadDates(ctx context.Context, userID string) ([]availability.DateAvailability, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT date, available, start_time, end_time
		 FROM availability_dates
		 WHERE user_id = ?
		 ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := []availability.DateAvailability{}
	for rows.Next() {
		var (
			entry      availability.DateAvailability
			dateText   string
			startValue int
			endValue   int
		)
		if err := rows.Scan(&dateText, &entry.Available, &startValue, &endValue); err != nil {
			return nil, mapError(err)
		}
		if entry.Date, err = timerange.ParseDate(dateText); err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		entry.StartTime = timerange.TimeOfDay(startValue)
		entry.EndTime = timerange.TimeOfDay(endValue)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return entries, nil
}

func (r *AvailabilityRepository) loadSlots(ctx context.Context, userID string) ([]availability.UnavailableSlot, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT id, date, start_time, end_time, title,
			frequency, interval, weekdays, month_day,
			end_condition, end_after, end_date,
			parent_slot_id, is_instance
		 FROM unavailable_slots
		 WHERE user_id = ?
		 ORDER BY position ASC`,
		userID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	slots := []availability.UnavailableSlot{}
	for rows.Next() {
		var (
			slot       availability.UnavailableSlot
			dateText   string
			startValue int
			endValue   int
			rule       ruleColumns
		)
		if err := rows.Scan(
			&slot.ID,
			&dateText,
			&startValue,
			&endValue,
			&slot.Title,
			&rule.Frequency,
			&rule.Interval,
			&rule.Weekdays,
			&rule.MonthDay,
			&rule.EndCondition,
			&rule.EndAfter,
			&rule.EndDate,
			&slot.ParentSlotID,
			&slot.IsRecurringInstance,
		); err != nil {
			return nil, mapError(err)
		}
		if slot.Date, err = timerange.ParseDate(dateText); err != nil {
			return nil, fmt.Errorf("failed to parse date: %w", err)
		}
		slot.StartTime = timerange.TimeOfDay(startValue)
		slot.EndTime = timerange.TimeOfDay(endValue)
		if slot.Recurrence, err = decodeRule(rule); err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return slots, nil
}
