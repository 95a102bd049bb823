package store

import (
	"database/sql"
	"time"

	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// User is a chat user known to the bot. Users are created on first contact
// and never hard-deleted.
type User struct {
	ID              string
	Username        string
	FirstName       string
	Role            tracker.Role
	DefaultProject  string
	DefaultPriority tracker.Priority
	DefaultType     tracker.IssueType
	NotifyOnSync    bool
	CreatedAt       time.Time
	LastSeenAt      time.Time
}

// GetUser retrieves a user by ID. Returns (nil, nil) when the user is unknown.
func (s *Store) GetUser(id string) (*User, error) {
	row := s.db.QueryRow(`
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), role,
			COALESCE(default_project, ''), default_priority, default_type,
			notify_on_sync, created_at, last_seen_at
		FROM users WHERE id = ?
	`, id)

	user, err := scanUser(row)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get user", err)
	}
	return user, nil
}

// UpsertUser inserts a user or refreshes the mutable profile fields of an
// existing one. Role and preferences survive re-contact.
func (s *Store) UpsertUser(user *User) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, username, first_name, role, default_project, default_priority, default_type, notify_on_sync)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_seen_at = CURRENT_TIMESTAMP
	`, user.ID, user.Username, user.FirstName, user.Role.String(),
		user.DefaultProject, string(user.DefaultPriority), string(user.DefaultType), user.NotifyOnSync)
	return storageErr("upsert user", err)
}

// TouchUser bumps the user's last-seen timestamp.
func (s *Store) TouchUser(id string) error {
	_, err := s.db.Exec(`UPDATE users SET last_seen_at = CURRENT_TIMESTAMP WHERE id = ?`, id)
	return storageErr("touch user", err)
}

// SetUserRole persists a role change. Takes effect on the user's next
// permission resolution.
func (s *Store) SetUserRole(id string, role tracker.Role) error {
	res, err := s.db.Exec(`UPDATE users SET role = ? WHERE id = ?`, role.String(), id)
	if err != nil {
		return storageErr("set user role", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storageErr("set user role", sql.ErrNoRows)
	}
	return nil
}

// SetUserDefaults updates the preference set used by quick create and by
// wizard steps that fall back to defaults. Empty values leave the stored
// preference untouched.
func (s *Store) SetUserDefaults(id, project string, priority tracker.Priority, issueType tracker.IssueType) error {
	_, err := s.db.Exec(`
		UPDATE users SET
			default_project = CASE WHEN ? != '' THEN ? ELSE default_project END,
			default_priority = CASE WHEN ? != '' THEN ? ELSE default_priority END,
			default_type = CASE WHEN ? != '' THEN ? ELSE default_type END
		WHERE id = ?
	`, project, project, string(priority), string(priority), string(issueType), string(issueType), id)
	return storageErr("set user defaults", err)
}

// ListUsers returns all known users, most recently seen first.
func (s *Store) ListUsers() ([]*User, error) {
	rows, err := s.db.Query(`
		SELECT id, COALESCE(username, ''), COALESCE(first_name, ''), role,
			COALESCE(default_project, ''), default_priority, default_type,
			notify_on_sync, created_at, last_seen_at
		FROM users ORDER BY last_seen_at DESC
	`)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, storageErr("list users", err)
		}
		users = append(users, user)
	}
	return users, storageErr("list users", rows.Err())
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var user User
	var role, priority, issueType string
	err := row.Scan(&user.ID, &user.Username, &user.FirstName, &role,
		&user.DefaultProject, &priority, &issueType,
		&user.NotifyOnSync, &user.CreatedAt, &user.LastSeenAt)
	if err != nil {
		return nil, err
	}

	user.Role, err = tracker.ParseRole(role)
	if err != nil {
		return nil, err
	}
	user.DefaultPriority = tracker.Priority(priority)
	user.DefaultType = tracker.IssueType(issueType)
	return &user, nil
}
