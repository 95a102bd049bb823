// Package store provides local persistence for ticketpilot using SQLite.
// It holds users, projects, the cached issue projection, and wizard
// sessions. The remote tracker stays the source of truth for issues; the
// local copy is a read-through cache with explicit sync timestamps.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// StorageError wraps local persistence failures so callers can classify
// them without inspecting driver error strings.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// Store provides persistent storage backed by a SQLite database.
// Store handles database migrations automatically on initialization.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a Store with a SQLite database under dataPath.
// It creates the data directory if it does not exist and runs migrations.
func NewStore(dataPath string) (*Store, error) {
	if err := os.MkdirAll(dataPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataPath, "ticketpilot.db")
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{
		db:   db,
		path: dataPath,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates necessary tables
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT,
			first_name TEXT,
			role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin', 'super_admin')),
			default_project TEXT,
			default_priority TEXT NOT NULL DEFAULT 'Medium',
			default_type TEXT NOT NULL DEFAULT 'Task',
			notify_on_sync BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			last_seen_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS projects (
			key TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_by TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			synced_at DATETIME
		)`,
		`CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			remote_key TEXT NOT NULL UNIQUE,
			project_key TEXT NOT NULL,
			summary TEXT NOT NULL,
			description TEXT,
			priority TEXT NOT NULL,
			type TEXT NOT NULL,
			status TEXT NOT NULL,
			reporter_id TEXT,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (project_key) REFERENCES projects(key)
		)`,
		`CREATE TABLE IF NOT EXISTS wizard_sessions (
			user_id TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			step TEXT NOT NULL,
			answers TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			expires_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_role ON users(role)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_project ON issues(project_key)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_reporter ON issues(reporter_id)`,
		`CREATE INDEX IF NOT EXISTS idx_issues_status ON issues(status)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON wizard_sessions(expires_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Close closes the database connection and releases resources.
func (s *Store) Close() error {
	return s.db.Close()
}

// notFound reports whether err is the driver's no-rows sentinel.
func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// nullableTime converts a sql.NullTime to *time.Time.
func nullableTime(t sql.NullTime) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}
