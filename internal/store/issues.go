package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// Issue is the locally cached projection of a remote issue. The remote
// tracker is authoritative; rows here may be stale between syncs.
type Issue struct {
	ID          string
	RemoteKey   string
	ProjectKey  string
	Summary     string
	Description string
	Priority    tracker.Priority
	Type        tracker.IssueType
	Status      tracker.Status
	ReporterID  string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IssueFilter narrows ListCachedIssues. Zero values mean "any".
type IssueFilter struct {
	ProjectKey string
	ReporterID string
	Status     tracker.Status
	Limit      int
}

// CacheIssue inserts or refreshes a cached issue keyed by its remote key.
func (s *Store) CacheIssue(issue *Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO issues (id, remote_key, project_key, summary, description, priority, type, status, reporter_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(remote_key) DO UPDATE SET
			summary = excluded.summary,
			description = excluded.description,
			priority = excluded.priority,
			type = excluded.type,
			status = excluded.status,
			updated_at = CURRENT_TIMESTAMP
	`, issue.ID, issue.RemoteKey, issue.ProjectKey, issue.Summary, issue.Description,
		string(issue.Priority), string(issue.Type), string(issue.Status), issue.ReporterID)
	return storageErr("cache issue", err)
}

// ListCachedIssues returns cached issues matching the filter, newest first.
func (s *Store) ListCachedIssues(filter IssueFilter) ([]*Issue, error) {
	query := `
		SELECT id, remote_key, project_key, summary, COALESCE(description, ''),
			priority, type, status, COALESCE(reporter_id, ''), created_at, updated_at
		FROM issues WHERE 1=1`
	var args []any

	if filter.ProjectKey != "" {
		query += ` AND project_key = ?`
		args = append(args, filter.ProjectKey)
	}
	if filter.ReporterID != "" {
		query += ` AND reporter_id = ?`
		args = append(args, filter.ReporterID)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}

	query += ` ORDER BY updated_at DESC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("list issues", err)
	}
	defer rows.Close()

	var issues []*Issue
	for rows.Next() {
		var issue Issue
		var priority, issueType, status string
		err := rows.Scan(&issue.ID, &issue.RemoteKey, &issue.ProjectKey, &issue.Summary,
			&issue.Description, &priority, &issueType, &status, &issue.ReporterID,
			&issue.CreatedAt, &issue.UpdatedAt)
		if err != nil {
			return nil, storageErr("list issues", err)
		}
		issue.Priority = tracker.Priority(priority)
		issue.Type = tracker.IssueType(issueType)
		issue.Status = tracker.Status(status)
		issues = append(issues, &issue)
	}
	return issues, storageErr("list issues", rows.Err())
}
