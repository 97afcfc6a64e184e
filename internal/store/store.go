// Package store provides SQLite-backed persistence for the panchanga
// daemon: reminder preferences, pending notifications, and the sync
// journal. It also implements the reminders.Notifier delivery stand-in.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gokulnk/panchanga/internal/models"
	"github.com/gokulnk/panchanga/internal/reminders"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store provides access to the daemon's SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// Open with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs idempotent schema migrations.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS preferences (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		amavasya INTEGER NOT NULL DEFAULT 0,
		ekadashi INTEGER NOT NULL DEFAULT 0,
		purnima INTEGER NOT NULL DEFAULT 0,
		hour INTEGER NOT NULL DEFAULT 9,
		minute INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS notifications (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		trigger_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS journal (
		id TEXT PRIMARY KEY,
		action TEXT NOT NULL,
		inputs_hash TEXT NOT NULL,
		outcome TEXT NOT NULL,
		details TEXT,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_trigger_at ON notifications(trigger_at);
	CREATE INDEX IF NOT EXISTS idx_journal_timestamp ON journal(timestamp);

	INSERT OR IGNORE INTO preferences (id) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// --- Preferences ---

// GetPreferences returns the stored reminder preferences.
func (s *Store) GetPreferences() (models.ReminderPreferences, error) {
	var p models.ReminderPreferences
	err := s.db.QueryRow(
		`SELECT amavasya, ekadashi, purnima, hour, minute FROM preferences WHERE id = 1`,
	).Scan(&p.Amavasya, &p.Ekadashi, &p.Purnima, &p.Hour, &p.Minute)
	if err != nil {
		return p, fmt.Errorf("get preferences: %w", err)
	}
	return p, nil
}

// SavePreferences overwrites the stored reminder preferences.
func (s *Store) SavePreferences(p models.ReminderPreferences) error {
	_, err := s.db.Exec(
		`UPDATE preferences SET amavasya = ?, ekadashi = ?, purnima = ?, hour = ?, minute = ? WHERE id = 1`,
		p.Amavasya, p.Ekadashi, p.Purnima, p.Hour, p.Minute,
	)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// --- Notifications (reminders.Notifier) ---

// Schedule upserts a pending notification by its fixed identifier.
func (s *Store) Schedule(n reminders.Notification) error {
	_, err := s.db.Exec(
		`INSERT INTO notifications (id, title, body, trigger_at, created_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, body = excluded.body,
		 trigger_at = excluded.trigger_at, created_at = excluded.created_at`,
		n.ID, n.Title, n.Body, n.TriggerAt.UTC(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("schedule notification %s: %w", n.ID, err)
	}
	return nil
}

// CancelAll removes the pending notifications with the given identifiers.
func (s *Store) CancelAll(ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := s.db.Exec(`DELETE FROM notifications WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("cancel notifications: %w", err)
	}
	return nil
}

// ListNotifications returns pending notifications ordered by trigger time.
func (s *Store) ListNotifications() ([]reminders.Notification, error) {
	rows, err := s.db.Query(
		`SELECT id, title, body, trigger_at FROM notifications ORDER BY trigger_at ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []reminders.Notification
	for rows.Next() {
		var n reminders.Notification
		if err := rows.Scan(&n.ID, &n.Title, &n.Body, &n.TriggerAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// --- Journal ---

// WriteJournal inserts a journal entry.
func (s *Store) WriteJournal(action, inputsHash, outcome, details string) (*models.JournalEntry, error) {
	entry := &models.JournalEntry{
		ID:         uuid.New().String(),
		Action:     action,
		InputsHash: inputsHash,
		Outcome:    outcome,
		Details:    details,
		Timestamp:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO journal (id, action, inputs_hash, outcome, details, timestamp) VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Action, entry.InputsHash, entry.Outcome, entry.Details, entry.Timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert journal entry: %w", err)
	}
	return entry, nil
}

// ListJournal returns the most recent journal entries, newest first.
func (s *Store) ListJournal(limit int) ([]models.JournalEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(
		`SELECT id, action, inputs_hash, outcome, details, timestamp FROM journal ORDER BY timestamp DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal: %w", err)
	}
	defer rows.Close()

	var out []models.JournalEntry
	for rows.Next() {
		var e models.JournalEntry
		var details sql.NullString
		if err := rows.Scan(&e.ID, &e.Action, &e.InputsHash, &e.Outcome, &details, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		e.Details = details.String
		out = append(out, e)
	}
	return out, rows.Err()
}
