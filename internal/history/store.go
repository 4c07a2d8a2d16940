// Package history persists the deployment-history log and settings blobs
// in a local SQLite file.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Entry is one deployment-history record.
type Entry struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	ObjectName   string    `json:"object_name"`
	Action       string    `json:"action"` // "picklist-deploy", "migration-run", etc.
	Status       string    `json:"status"` // "completed", "failed"
	ErrorMessage string    `json:"error_message,omitempty"`
}

// Store wraps the SQLite database holding history and settings.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS deploy_history (
	id            TEXT PRIMARY KEY,
	timestamp     TEXT NOT NULL,
	object_name   TEXT NOT NULL,
	action        TEXT NOT NULL,
	status        TEXT NOT NULL,
	error_message TEXT
);
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Open opens (creating if needed) the store at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Append records a history entry, assigning it an ID and timestamp.
func (s *Store) Append(objectName, action, status, errorMessage string) (*Entry, error) {
	e := &Entry{
		ID:           uuid.New().String(),
		Timestamp:    time.Now().UTC(),
		ObjectName:   objectName,
		Action:       action,
		Status:       status,
		ErrorMessage: errorMessage,
	}
	_, err := s.db.Exec(
		"INSERT INTO deploy_history (id, timestamp, object_name, action, status, error_message) VALUES (?, ?, ?, ?, ?, ?)",
		e.ID, e.Timestamp.Format(time.RFC3339Nano), e.ObjectName, e.Action, e.Status, e.ErrorMessage)
	if err != nil {
		return nil, fmt.Errorf("inserting history entry: %w", err)
	}
	return e, nil
}

// List returns history entries, newest first, up to limit (0 = all).
func (s *Store) List(limit int) ([]Entry, error) {
	query := "SELECT id, timestamp, object_name, action, status, error_message FROM deploy_history ORDER BY timestamp DESC"
	args := []interface{}{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var ts string
		var errMsg sql.NullString
		if err := rows.Scan(&e.ID, &ts, &e.ObjectName, &e.Action, &e.Status, &errMsg); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err == nil {
			e.Timestamp = parsed
		}
		if errMsg.Valid {
			e.ErrorMessage = errMsg.String
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return entries, nil
}

// GetSetting returns the value for key, or "" when the key is absent.
func (s *Store) GetSetting(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading setting %s: %w", key, err)
	}
	return value, nil
}

// PutSetting stores or replaces the value for key.
func (s *Store) PutSetting(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}
