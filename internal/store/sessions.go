package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// WizardSession is the persisted state of one user's active wizard. A user
// has at most one row; the row is the serialization point for that user's
// wizard input.
type WizardSession struct {
	UserID    string
	Kind      string
	Step      string
	Answers   map[string]string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has outlived its timeout at the given
// instant. Expired sessions are treated as absent on access, regardless of
// sweep timing.
func (w *WizardSession) Expired(now time.Time) bool {
	return !now.Before(w.ExpiresAt)
}

// GetWizardSession retrieves the user's active session. Expired sessions are
// deleted on access and reported as absent.
func (s *Store) GetWizardSession(userID string, now time.Time) (*WizardSession, error) {
	session, err := getSession(s.db, userID)
	if err != nil {
		return nil, storageErr("get session", err)
	}
	if session == nil {
		return nil, nil
	}
	if session.Expired(now) {
		if err := s.DeleteWizardSession(userID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return session, nil
}

// SaveWizardSession inserts or replaces the user's session row.
func (s *Store) SaveWizardSession(session *WizardSession) error {
	return storageErr("save session", saveSession(s.db, session))
}

// DeleteWizardSession removes the user's session row, if any.
func (s *Store) DeleteWizardSession(userID string) error {
	_, err := s.db.Exec(`DELETE FROM wizard_sessions WHERE user_id = ?`, userID)
	return storageErr("delete session", err)
}

// DeleteExpiredSessions removes every session past its expiry. Returns the
// number of sessions removed. Called by the periodic sweep.
func (s *Store) DeleteExpiredSessions(now time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM wizard_sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, storageErr("sweep sessions", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// UpdateWizardSession runs fn against the user's current session inside a
// single write transaction, making "load, validate, write" atomic per user.
// fn receives nil when no live session exists; it returns the session to
// persist, or nil to delete the row. fn must not block on remote calls.
// Errors returned by fn propagate unwrapped so callers can classify them.
func (s *Store) UpdateWizardSession(userID string, now time.Time, fn func(*WizardSession) (*WizardSession, error)) error {
	tx, err := s.db.Begin()
	if err != nil {
		return storageErr("update session", err)
	}
	defer tx.Rollback()

	// Take the write lock up front so concurrent inputs from the same user
	// serialize instead of both reading the same step.
	if _, err := tx.Exec(`UPDATE wizard_sessions SET user_id = user_id WHERE user_id = ?`, userID); err != nil {
		return storageErr("update session", err)
	}

	current, err := getSession(tx, userID)
	if err != nil {
		return storageErr("update session", err)
	}
	if current != nil && current.Expired(now) {
		if _, err := tx.Exec(`DELETE FROM wizard_sessions WHERE user_id = ?`, userID); err != nil {
			return storageErr("update session", err)
		}
		current = nil
	}

	next, err := fn(current)
	if err != nil {
		return err
	}

	if next == nil {
		if _, err := tx.Exec(`DELETE FROM wizard_sessions WHERE user_id = ?`, userID); err != nil {
			return storageErr("update session", err)
		}
	} else {
		if err := saveSession(tx, next); err != nil {
			return storageErr("update session", err)
		}
	}

	return storageErr("update session", tx.Commit())
}

// execer abstracts *sql.DB and *sql.Tx for session helpers.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

func getSession(db execer, userID string) (*WizardSession, error) {
	row := db.QueryRow(`
		SELECT user_id, kind, step, answers, created_at, expires_at
		FROM wizard_sessions WHERE user_id = ?
	`, userID)

	var session WizardSession
	var answers string
	err := row.Scan(&session.UserID, &session.Kind, &session.Step, &answers,
		&session.CreatedAt, &session.ExpiresAt)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(answers), &session.Answers); err != nil {
		return nil, fmt.Errorf("corrupt session answers for %s: %w", userID, err)
	}
	return &session, nil
}

func saveSession(db execer, session *WizardSession) error {
	answers := session.Answers
	if answers == nil {
		answers = map[string]string{}
	}
	data, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("failed to marshal session answers: %w", err)
	}

	_, err = db.Exec(`
		INSERT OR REPLACE INTO wizard_sessions (user_id, kind, step, answers, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, session.UserID, session.Kind, session.Step, string(data),
		session.CreatedAt.UTC(), session.ExpiresAt.UTC())
	return err
}
