package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/example/availability-scheduler/internal/meeting"
	"github.com/example/availability-scheduler/internal/persistence"
)

// MeetingRequestRepository implements persistence.MeetingRequestRepository
// using SQLite.
type MeetingRequestRepository struct {
	pool *ConnectionPool
}

// NewMeetingRequestRepository creates a new SQLite meeting request
// repository.
func NewMeetingRequestRepository(pool *ConnectionPool) *MeetingRequestRepository {
	return &MeetingRequestRepository{pool: pool}
}

// CreateMeetingRequest inserts a new request.
func (r *MeetingRequestRepository) CreateMeetingRequest(ctx context.Context, request meeting.Request) error {
	if request.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		scheduledAt := ""
		if request.ScheduledDate != nil {
			scheduledAt = encodeTime(*request.ScheduledDate)
		}
		_, err := tx.Exec(
			`INSERT INTO meeting_requests (
				id, requester_id, owner_id, subject, message,
				duration_minutes, status, scheduled_at, created_at, updated_at
			 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			request.ID,
			request.RequesterID,
			request.OwnerID,
			request.Subject,
			request.Message,
			request.DurationMinutes,
			string(request.Status),
			scheduledAt,
			encodeTime(request.CreatedAt),
			encodeTime(request.UpdatedAt),
		)
		if err != nil {
			return mapError(err)
		}
		return insertPreferredDates(tx, request.ID, request.PreferredDates)
	})
}

// GetMeetingRequest retrieves a request by id.
func (r *MeetingRequestRepository) GetMeetingRequest(ctx context.Context, id string) (meeting.Request, error) {
	if id == "" {
		return meeting.Request{}, persistence.ErrNotFound
	}

	row := r.pool.db.QueryRowContext(ctx, meetingRequestSelect+` WHERE id = ?`, id)
	request, err := scanMeetingRequest(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return meeting.Request{}, persistence.ErrNotFound
		}
		return meeting.Request{}, err
	}

	if request.PreferredDates, err = r.loadPreferredDates(ctx, request.ID); err != nil {
		return meeting.Request{}, err
	}
	return request, nil
}

// UpdateMeetingRequest rewrites a request and its preferred dates.
func (r *MeetingRequestRepository) UpdateMeetingRequest(ctx context.Context, request meeting.Request) error {
	if request.ID == "" {
		return persistence.ErrNotFound
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		scheduledAt := ""
		if request.ScheduledDate != nil {
			scheduledAt = encodeTime(*request.ScheduledDate)
		}
		result, err := tx.Exec(
			`UPDATE meeting_requests SET
				subject = ?, message = ?, duration_minutes = ?,
				status = ?, scheduled_at = ?, updated_at = ?
			 WHERE id = ?`,
			request.Subject,
			request.Message,
			request.DurationMinutes,
			string(request.Status),
			scheduledAt,
			encodeTime(request.UpdatedAt),
			request.ID,
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

		if _, err := tx.Exec(`DELETE FROM meeting_request_dates WHERE request_id = ?`, request.ID); err != nil {
			return mapError(err)
		}
		return insertPreferredDates(tx, request.ID, request.PreferredDates)
	})
}

// ListMeetingRequests returns requests matching the filter ordered by
// creation time.
func (r *MeetingRequestRepository) ListMeetingRequests(ctx context.Context, filter persistence.MeetingRequestFilter) ([]meeting.Request, error) {
	query := meetingRequestSelect
	conditions := []string{}
	args := []any{}

	if filter.UserID != "" {
		conditions = append(conditions, `(requester_id = ? OR owner_id = ?)`)
		args = append(args, filter.UserID, filter.UserID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, `requester_id = ?`)
		args = append(args, filter.RequesterID)
	}
	if filter.OwnerID != "" {
		conditions = append(conditions, `owner_id = ?`)
		args = append(args, filter.OwnerID)
	}
	if filter.Status != "" {
		conditions = append(conditions, `status = ?`)
		args = append(args, string(filter.Status))
	}

	for i, condition := range conditions {
		if i == 0 {
			query += ` WHERE ` + condition
		} else {
			query += ` AND ` + condition
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	requests := []meeting.Request{}
	for rows.Next() {
		request, err := scanMeetingRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}

	for i := range requests {
		if requests[i].PreferredDates, err = r.loadPreferredDates(ctx, requests[i].ID); err != nil {
			return nil, err
		}
	}
	return requests, nil
}

// DeleteMeetingRequest removes a request by id.
func (r *MeetingRequestRepository) DeleteMeetingRequest(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.pool.db.ExecContext(ctx, `DELETE FROM meeting_requests WHERE id = ?`, id)
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

const meetingRequestSelect = `
	SELECT id, requester_id, owner_id, subject, message,
		duration_minutes, status, scheduled_at, created_at, updated_at
	FROM meeting_requests`

func scanMeetingRequest(row rowScanner) (meeting.Request, error) {
	var (
		request     meeting.Request
		statusText  string
		scheduledAt string
		created     string
		updated     string
	)
	err := row.Scan(
		&request.ID,
		&request.RequesterID,
		&request.OwnerID,
		&request.Subject,
		&request.Message,
		&request.DurationMinutes,
		&statusText,
		&scheduledAt,
		&created,
		&updated,
	)
	if err != nil {
		return meeting.Request{}, err
	}

	if request.Status, err = meeting.ParseStatus(statusText); err != nil {
		return meeting.Request{}, err
	}
	if scheduledAt != "" {
		when, err := decodeTime(scheduledAt)
		if err != nil {
			return meeting.Request{}, err
		}
		request.ScheduledDate = &when
	}
	if request.CreatedAt, err = decodeTime(created); err != nil {
		return meeting.Request{}, err
	}
	if request.UpdatedAt, err = decodeTime(updated); err != nil {
		return meeting.Request{}, err
	}
	return request, nil
}

func insertPreferredDates(tx *sql.Tx, requestID string, dates []time.Time) error {
	for position, date := range dates {
		_, err := tx.Exec(
			`INSERT INTO meeting_request_dates (request_id, preferred_at, position) VALUES (?, ?, ?)`,
			requestID, encodeTime(date), position,
		)
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r *MeetingRequestRepository) loadPreferredDates(ctx context.Context, requestID string) ([]time.Time, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		`SELECT preferred_at FROM meeting_request_dates WHERE request_id = ? ORDER BY position ASC`,
		requestID,
	)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	dates := []time.Time{}
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, mapError(err)
		}
		date, err := decodeTime(text)
		if err != nil {
			return nil, err
		}
		dates = append(dates, date)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return dates, nil
}
