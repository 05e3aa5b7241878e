package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/example/availability-scheduler/internal/events"
	"github.com/example/availability-scheduler/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	pool *ConnectionPool
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{pool: pool}
}

// CreateEvents inserts a batch of events in one transaction. A recurring
// parent and its generated instances land together or not at all.
func (r *EventRepository) CreateEvents(ctx context.Context, entries []events.Event) error {
	if len(entries) == 0 {
		return nil
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, entry := range entries {
			if entry.ID == "" {
				return persistence.ErrConstraintViolation
			}
			if err := insertEvent(tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetEvent retrieves an event by id.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (events.Event, error) {
	if id == "" {
		return events.Event{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, eventSelect+` WHERE id = ?`, id)
	entry, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return events.Event{}, persistence.ErrNotFound
		}
		return events.Event{}, err
	}

	if entry.Attendees, err = r.loadAttendees(ctx, entry.ID); err != nil {
		return events.Event{}, err
	}
	return entry, nil
}

// UpdateEvent rewrites an event and its attendee list.
func (r *EventRepository) UpdateEvent(ctx context.Context, entry events.Event) error {
	if entry.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		rule := encodeRule(entry.Recurrence)
		result, err := tx.Exec(
			`UPDATE events SET
				title = ?, description = ?, start_at = ?, end_at = ?, all_day = ?,
				frequency = ?, interval = ?, weekdays = ?, month_day = ?,
				end_condition = ?, end_after = ?, end_date = ?,
				updated_at = ?
			 WHERE id = ?`,
			entry.Title,
			entry.Description,
			encodeTime(entry.Start),
			encodeTime(entry.End),
			entry.AllDay,
			rule.Frequency,
			rule.Interval,
			rule.Weekdays,
			rule.MonthDay,
			rule.EndCondition,
			rule.EndAfter,
			rule.EndDate,
			encodeTime(entry.UpdatedAt),
			entry.ID,
		)
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

		if _, err := tx.Exec(`DELETE FROM event_attendees WHERE event_id = ?`, entry.ID); err != nil {
			return mapError(err)
		}
		return insertAttendees(tx, entry.ID, entry.Attendees)
	})
}

// ListEvents returns events matching the filter ordered by start time.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]events.Event, error) {
	query := eventSelect
	conditions := []string{}
	args := []any{}

	if filter.AttendeeID != "" {
		conditions = append(conditions, `id IN (SELECT event_id FROM event_attendees WHERE user_id = ?)`)
		args = append(args, filter.AttendeeID)
	}
	if filter.ParentEventID != "" {
		conditions = append(conditions, `parent_event_id = ?`)
		args = append(args, filter.ParentEventID)
	}
	if filter.StartsAfter != nil {
		conditions = append(conditions, `start_at >= ?`)
		args = append(args, encodeTime(*filter.StartsAfter))
	}
	if filter.EndsBefore != nil {
		conditions = append(conditions, `end_at <= ?`)
		args = append(args, encodeTime(*filter.EndsBefore))
	}

	for i, condition := range conditions {
		if i == 0 {
			query += ` WHERE ` + condition
		} else {
			query += ` AND ` + condition
		}
	}
	query += ` ORDER BY start_at ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	entries := []events.Event{}
	for rows.Next() {
		entry, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range entries {
		if entries[i].Attendees, err = r.loadAttendees(ctx, entries[i].ID); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// DeleteEvent removes one event by id.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
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

// DeleteInstances removes the generated instances of a recurring parent.
func (r *EventRepository) DeleteInstances(ctx context.Context, parentEventID string) error {
	if parentEventID == "" {
		return nil
	}
	_, err := r.pool.db.ExecContext(ctx,
		`DELETE FROM events WHERE parent_event_id = ? AND is_instance = 1`,
		parentEventID,
	)
	return mapError(err)
}

const eventSelect = `
	SELECT id, title, description, start_at, end_at, all_day, created_by,
		frequency, interval, weekdays, month_day,
		end_condition, end_after, end_date,
		parent_event_id, is_instance, created_at, updated_at
	FROM events`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (events.Event, error) {
	var (
		entry     events.Event
		startText string
		endText   string
		created   string
		updated   string
		rule      ruleColumns
	)
	err := row.Scan(
		&entry.ID,
		&entry.Title,
		&entry.Description,
		&startText,
		&endText,
		&entry.AllDay,
		&entry.CreatedBy,
		&rule.Frequency,
		&rule.Interval,
		&rule.Weekdays,
		&rule.MonthDay,
		&rule.EndCondition,
		&rule.EndAfter,
		&rule.EndDate,
		&entry.ParentEventID,
		&entry.IsRecurringInstance,
		&created,
		&updated,
	)
	if err != nil {
		return events.Event{}, err
	}

	if entry.Start, err = decodeTime(startText); err != nil {
		return events.Event{}, err
	}
	if entry.End, err = decodeTime(endText); err != nil {
		return events.Event{}, err
	}
	if entry.CreatedAt, err = decodeTime(created); err != nil {
		return events.Event{}, err
	}
	if entry.UpdatedAt, err = decodeTime(updated); err != nil {
		return events.Event{}, err
	}
	if entry.Recurrence, err = decodeRule(rule); err != nil {
		return events.Event{}, err
	}
	return entry, nil
}

func insertEvent(tx *sql.Tx, entry events.Event) error {
	rule := encodeRule(entry.Recurrence)
	_, err := tx.Exec(
		`INSERT INTO events (
			id, title, description, start_at, end_at, all_day, created_by,
			frequency, interval, weekdays, month_day,
			end_condition, end_after, end_date,
			parent_event_id, is_instance, created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Title,
		entry.Description,
		encodeTime(entry.Start),
		encodeTime(entry.End),
		entry.AllDay,
		entry.CreatedBy,
		rule.Frequency,
		rule.Interval,
		rule.Weekdays,
		rule.MonthDay,
		rule.EndCondition,
		rule.EndAfter,
		rule.EndDate,
		entry.ParentEventID,
		entry.IsRecurringInstance,
		encodeTime(entry.CreatedAt),
		encodeTime(entry.UpdatedAt),
	)
	if err != nil {
		return mapError(err)
	}
	return insertAttendees(tx, entry.ID, entry.Attendees)
}

func insertAttendees(tx *sql.Tx, eventID string, attendees []string) error {
	for position, userID := range attendees {
		_, err := tx.Exec(
			`INSERT INTO event_attendees (event_id, user_id, position) VALUES (?, ?, ?)`,
			eventID, userID, position,
		)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *EventRepository) loadAttendees(ctx context.Context, eventID string) ([]string, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT user_id FROM event_attendees WHERE event_id = ? ORDER BY position ASC`,
		eventID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	attendees := []string{}
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, mapError(err)
		}
		attendees = append(attendees, userID)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return attendees, nil
}
