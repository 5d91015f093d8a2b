package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"director/pkg/session"
)

// ErrSessionNotFound is returned when a requested session does not exist.
var ErrSessionNotFound = errors.New("session not found")

// Session status constants.
const (
	SessionStatusActive    = "active"
	SessionStatusShutdown  = "shutdown"  // Graceful shutdown, resumable
	SessionStatusCompleted = "completed" // Presentation delivered, not resumable
)

// Session represents a persisted conversation session.
//
//nolint:govet // struct alignment optimization not critical for this type.
type Session struct {
	SessionID string           `json:"session_id"`
	Status    string           `json:"status"`
	Progress  session.Progress `json:"progress"`
	StartedAt time.Time        `json:"started_at"`
	EndedAt   *time.Time       `json:"ended_at,omitempty"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store wraps a database connection with the session and audit operations.
type Store struct {
	db *sql.DB
}

// NewStore creates a store on an explicit connection. Tests use this with an
// isolated database from Open.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Ops returns a Store using the singleton connection.
// This is the primary way to perform database operations.
func Ops() *Store {
	return NewStore(GetDB())
}

// CreateSession creates a new session record with empty progress.
func (s *Store) CreateSession(sessionID string) error {
	progressJSON, err := json.Marshal(session.NewProgress())
	if err != nil {
		return fmt.Errorf("failed to marshal initial progress: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO sessions (session_id, status, progress_json)
		VALUES (?, ?, ?)
	`, sessionID, SessionStatusActive, string(progressJSON))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// SaveProgress persists the latest progress snapshot for a session. Called
// after each executed decision so a restart can resume where the user left
// off.
func (s *Store) SaveProgress(sessionID string, progress session.Progress) error {
	progressJSON, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to marshal progress: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE sessions
		SET progress_json = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE session_id = ?
	`, string(progressJSON), sessionID)
	if err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// UpdateSessionStatus updates the status and, for terminal statuses, the
// ended_at timestamp of a session.
func (s *Store) UpdateSessionStatus(sessionID, status string) error {
	var result sql.Result
	var err error
	if status == SessionStatusShutdown || status == SessionStatusCompleted {
		result, err = s.db.Exec(`
			UPDATE sessions
			SET status = ?, ended_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
			WHERE session_id = ?
		`, status, sessionID)
	} else {
		result, err = s.db.Exec(`
			UPDATE sessions SET status = ? WHERE session_id = ?
		`, status, sessionID)
	}
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetSession returns a single session by ID.
func (s *Store) GetSession(sessionID string) (*Session, error) {
	row := s.db.QueryRow(`
		SELECT session_id, status, progress_json, started_at, ended_at, updated_at
		FROM sessions
		WHERE session_id = ?
	`, sessionID)
	return scanSession(row)
}

// GetResumableSession returns the most recent session with status='shutdown'.
// Returns ErrSessionNotFound if no resumable session exists.
func (s *Store) GetResumableSession() (*Session, error) {
	row := s.db.QueryRow(`
		SELECT session_id, status, progress_json, started_at, ended_at, updated_at
		FROM sessions
		WHERE status = ?
		ORDER BY ended_at DESC
		LIMIT 1
	`, SessionStatusShutdown)
	return scanSession(row)
}

// scanSession scans a session row into a Session struct.
func scanSession(row *sql.Row) (*Session, error) {
	var sess Session
	var progressJSON string
	var startedAt, updatedAt string
	var endedAt sql.NullString

	err := row.Scan(&sess.SessionID, &sess.Status, &progressJSON, &startedAt, &endedAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	if err := json.Unmarshal([]byte(progressJSON), &sess.Progress); err != nil {
		return nil, fmt.Errorf("failed to unmarshal progress: %w", err)
	}

	sess.StartedAt = parseTimestamp(startedAt)
	sess.UpdatedAt = parseTimestamp(updatedAt)
	if endedAt.Valid {
		t := parseTimestamp(endedAt.String)
		sess.EndedAt = &t
	}

	return &sess, nil
}

// parseTimestamp parses the RFC3339 timestamps strftime writes; a zero time
// is returned for anything unparseable rather than failing the whole scan.
func parseTimestamp(value string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return t
}
