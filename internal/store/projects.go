package store

import (
	"database/sql"
	"time"
)

// Project is a tracker project known locally. Projects are soft-deleted via
// the active flag; issue rows keep referencing inactive projects.
type Project struct {
	Key         string
	Name        string
	Description string
	IsActive    bool
	CreatedBy   string
	CreatedAt   time.Time
	SyncedAt    *time.Time
}

// GetProject retrieves a project by key, active or not.
// Returns (nil, nil) when the key is unknown.
func (s *Store) GetProject(key string) (*Project, error) {
	row := s.db.QueryRow(`
		SELECT key, name, COALESCE(description, ''), is_active, COALESCE(created_by, ''), created_at, synced_at
		FROM projects WHERE key = ?
	`, key)

	project, err := scanProject(row)
	if notFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get project", err)
	}
	return project, nil
}

// ListProjects returns projects ordered by key. With activeOnly, soft-deleted
// projects are filtered out.
func (s *Store) ListProjects(activeOnly bool) ([]*Project, error) {
	query := `
		SELECT key, name, COALESCE(description, ''), is_active, COALESCE(created_by, ''), created_at, synced_at
		FROM projects`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY key`

	rows, err := s.db.Query(query)
	if err != nil {
		return nil, storageErr("list projects", err)
	}
	defer rows.Close()

	var projects []*Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, storageErr("list projects", err)
		}
		projects = append(projects, project)
	}
	return projects, storageErr("list projects", rows.Err())
}

// UpsertProject inserts or updates a project. Re-inserting an existing key
// reactivates it and refreshes name and description.
func (s *Store) UpsertProject(project *Project) error {
	_, err := s.db.Exec(`
		INSERT INTO projects (key, name, description, is_active, created_by)
		VALUES (?, ?, ?, TRUE, ?)
		ON CONFLICT(key) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			is_active = TRUE
	`, project.Key, project.Name, project.Description, project.CreatedBy)
	return storageErr("upsert project", err)
}

// DeactivateProject soft-deletes a project. Cached issues keep their rows.
func (s *Store) DeactivateProject(key string) error {
	res, err := s.db.Exec(`UPDATE projects SET is_active = FALSE WHERE key = ?`, key)
	if err != nil {
		return storageErr("deactivate project", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return storageErr("deactivate project", sql.ErrNoRows)
	}
	return nil
}

// MarkProjectSynced records a successful reconciliation with the remote
// tracker. Staleness is queryable via SyncedAt.
func (s *Store) MarkProjectSynced(key string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE projects SET synced_at = ? WHERE key = ?`, at.UTC(), key)
	return storageErr("mark project synced", err)
}

func scanProject(row rowScanner) (*Project, error) {
	var project Project
	var syncedAt sql.NullTime
	err := row.Scan(&project.Key, &project.Name, &project.Description,
		&project.IsActive, &project.CreatedBy, &project.CreatedAt, &syncedAt)
	if err != nil {
		return nil, err
	}
	project.SyncedAt = nullableTime(syncedAt)
	return &project, nil
}
