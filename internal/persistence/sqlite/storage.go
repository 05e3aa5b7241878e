package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the SQLite-backed repositories behind a single handle.
// It implements persistence.AvailabilityRepository,
// persistence.EventRepository and persistence.MeetingRequestRepository.
type Storage struct {
	pool *ConnectionPool

	*AvailabilityRepository
	*EventRepository
	*MeetingRequestRepository
}

// Open creates a Storage backed by the SQLite database at path.
func Open(path string) (*Storage, error) {
	pool, err := NewConnectionPool(path)
	if err != nil {
		return nil, err
	}
	return &Storage{
		pool:                     pool,
		AvailabilityRepository:   NewAvailabilityRepository(pool),
		EventRepository:          NewEventRepository(pool),
		MeetingRequestRepository: NewMeetingRequestRepository(pool),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

// Ping tests the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the schema when it does not exist yet.
func (s *Storage) Migrate(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS availability (
			user_id       TEXT PRIMARY KEY,
			default_start INTEGER NOT NULL,
			default_end   INTEGER NOT NULL,
			CHECK (default_start < default_end)
		)`,
		`CREATE TABLE IF NOT EXISTS availability_dates (
			user_id    TEXT NOT NULL REFERENCES availability(user_id) ON DELETE CASCADE,
			date       TEXT NOT NULL,
			available  INTEGER NOT NULL,
			start_time INTEGER NOT NULL,
			end_time   INTEGER NOT NULL,
			position   INTEGER NOT NULL,
			UNIQUE (user_id, date)
		)`,
		`CREATE TABLE IF NOT EXISTS unavailable_slots (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL REFERENCES availability(user_id) ON DELETE CASCADE,
			date           TEXT NOT NULL,
			start_time     INTEGER NOT NULL,
			end_time       INTEGER NOT NULL,
			title          TEXT NOT NULL DEFAULT '',
			frequency      TEXT NOT NULL DEFAULT 'none',
			interval       INTEGER NOT NULL DEFAULT 0,
			weekdays       TEXT NOT NULL DEFAULT '',
			month_day      INTEGER NOT NULL DEFAULT 0,
			end_condition  TEXT NOT NULL DEFAULT 'never',
			end_after      INTEGER NOT NULL DEFAULT 0,
			end_date       TEXT NOT NULL DEFAULT '',
			parent_slot_id TEXT NOT NULL DEFAULT '',
			is_instance    INTEGER NOT NULL DEFAULT 0,
			position       INTEGER NOT NULL,
			CHECK (start_time < end_time)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_unavailable_slots_user
			ON unavailable_slots(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_unavailable_slots_parent
			ON unavailable_slots(parent_slot_id)`,
		`CREATE TABLE IF NOT EXISTS events (
			id              TEXT PRIMARY KEY,
			title           TEXT NOT NULL,
			description     TEXT NOT NULL DEFAULT '',
			start_at        TEXT NOT NULL,
			end_at          TEXT NOT NULL,
			all_day         INTEGER NOT NULL DEFAULT 0,
			created_by      TEXT NOT NULL,
			frequency       TEXT NOT NULL DEFAULT 'none',
			interval        INTEGER NOT NULL DEFAULT 0,
			weekdays        TEXT NOT NULL DEFAULT '',
			month_day       INTEGER NOT NULL DEFAULT 0,
			end_condition   TEXT NOT NULL DEFAULT 'never',
			end_after       INTEGER NOT NULL DEFAULT 0,
			end_date        TEXT NOT NULL DEFAULT '',
			parent_event_id TEXT NOT NULL DEFAULT '',
			is_instance     INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL,
			updated_at      TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_parent
			ON events(parent_event_id)`,
		`CREATE TABLE IF NOT EXISTS event_attendees (
			event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
			user_id  TEXT NOT NULL,
			position INTEGER NOT NULL,
			UNIQUE (event_id, user_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_attendees_user
			ON event_attendees(user_id)`,
		`CREATE TABLE IF NOT EXISTS meeting_requests (
			id               TEXT PRIMARY KEY,
			requester_id     TEXT NOT NULL,
			owner_id         TEXT NOT NULL,
			subject          TEXT NOT NULL,
			message          TEXT NOT NULL DEFAULT '',
			duration_minutes INTEGER NOT NULL,
			status           TEXT NOT NULL,
			scheduled_at     TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL,
			updated_at       TEXT NOT NULL,
			CHECK (duration_minutes > 0)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_meeting_requests_requester
			ON meeting_requests(requester_id)`,
		`CREATE INDEX IF NOT EXISTS idx_meeting_requests_owner
			ON meeting_requests(owner_id)`,
		`CREATE TABLE IF NOT EXISTS meeting_request_dates (
			request_id   TEXT NOT NULL REFERENCES meeting_requests(id) ON DELETE CASCADE,
			preferred_at TEXT NOT NULL,
			position     INTEGER NOT NULL
		)`,
	}

	for _, statement := range statements {
		if _, err := s.pool.db.ExecContext(ctx, statement); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}
