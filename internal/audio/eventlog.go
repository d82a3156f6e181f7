package audio

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	_ "modernc.org/sqlite"
)

// EventStarPlace is the event type recorded for accepted star triggers.
const EventStarPlace = "star_place"

// Event is one entry of the audio event log.
type Event struct {
	ID        int64          `json:"id"`
	EventType string         `json:"event_type"`
	UserID    string         `json:"user_id"`
	Metadata  map[string]any `json:"metadata"`
	Timestamp time.Time      `json:"timestamp"`
}

// EventLog records audio events. Implementations must be safe for concurrent use.
type EventLog interface {
	// Record appends e and returns it with ID and Timestamp filled in.
	Record(ctx context.Context, e Event) (Event, error)

	// Recent returns up to limit events, newest first.
	Recent(ctx context.Context, limit int) ([]Event, error)

	// Close releases the underlying resources.
	Close() error
}

// SQLiteLog is an [EventLog] stored in a SQLite database.
type SQLiteLog struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLiteLog opens (creating if needed) the event log at path.
// An empty path or ":memory:" opens a private in-memory database.
func OpenSQLiteLog(path string) (*SQLiteLog, error) {
	if path == "" {
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create event log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}
	// a single connection keeps ":memory:" databases shared and serialises writers
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteLog{db: db, now: time.Now}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS audio_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			event_type TEXT NOT NULL,
			user_id TEXT NOT NULL,
			metadata TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS audio_events_user ON audio_events(user_id, created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("failed to initialise event log schema: %w", err)
		}
	}
	return nil
}

// Record appends e to the log.
func (l *SQLiteLog) Record(ctx context.Context, e Event) (Event, error) {
	if e.EventType == "" {
		return Event{}, errors.New("event type is required")
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
	meta, err := json.Marshal(e.Metadata)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode metadata: %w", err)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = l.now().UTC()
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO audio_events(event_type, user_id, metadata, created_at) VALUES(?, ?, ?, ?)`,
		e.EventType, e.UserID, string(meta), e.Timestamp.UnixNano(),
	)
	if err != nil {
		return Event{}, fmt.Errorf("failed to record event: %w", err)
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return Event{}, fmt.Errorf("failed to read event id: %w", err)
	}
	return e, nil
}

// Recent returns up to limit events, newest first.
func (l *SQLiteLog) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, event_type, user_id, metadata, created_at FROM audio_events ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]Event, 0)
	for rows.Next() {
		var (
			e       Event
			meta    string
			created int64
		)
		if err := rows.Scan(&e.ID, &e.EventType, &e.UserID, &meta, &created); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
			return nil, fmt.Errorf("event %d: invalid metadata: %w", e.ID, err)
		}
		e.Timestamp = time.Unix(0, created).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}

// Close closes the database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
