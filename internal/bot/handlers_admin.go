package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alekspetrov/ticketpilot/internal/logging"
	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// handleSyncJira pulls recent remote issues into the local cache:
// /syncjira [KEY]. Without an argument it syncs every active project.
func (d *Dispatcher) handleSyncJira(ctx context.Context, _ *Caller, args []string) (*Response, error) {
	var projects []*store.Project

	if len(args) > 0 {
		key, err := tracker.ValidateProjectKey(args[0])
		if err != nil {
			return nil, err
		}
		project, err := d.store.GetProject(key)
		if err != nil {
			return nil, err
		}
		if project == nil || !project.IsActive {
			return nil, &tracker.ValidationError{Field: "project", Reason: fmt.Sprintf("no active project with key %s", key)}
		}
		projects = []*store.Project{project}
	} else {
		var err error
		projects, err = d.store.ListProjects(true)
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return textResponse("📭 No projects to sync."), nil
		}
	}

	var sb strings.Builder
	sb.WriteString("🔄 Sync complete:\n\n")
	for _, project := range projects {
		count, err := d.syncProject(ctx, project)
		if err != nil {
			// Partial sync keeps going; one unreachable project should not
			// block the rest.
			logging.WithContext(ctx).Error("Project sync failed",
				slog.String("project", project.Key), slog.Any("error", err))
			fmt.Fprintf(&sb, "❌ %s: sync failed\n", project.Key)
			continue
		}
		fmt.Fprintf(&sb, "✅ %s: %d issue(s) refreshed\n", project.Key, count)
	}
	return &Response{Text: sb.String()}, nil
}

// syncProject fetches issues updated since the project's last sync and
// caches them, then records the sync time. Also used by the cron schedule.
func (d *Dispatcher) syncProject(ctx context.Context, project *store.Project) (int, error) {
	issues, err := d.remote.ProjectIssues(ctx, project.Key, project.SyncedAt, 50)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, issue := range issues {
		err := d.store.CacheIssue(&store.Issue{
			RemoteKey:   issue.Key,
			ProjectKey:  project.Key,
			Summary:     issue.Fields.Summary,
			Description: issue.DescriptionText(),
			Priority:    issue.PriorityName(),
			Type:        issue.TypeName(),
			Status:      issue.StatusName(),
		})
		if err != nil {
			return count, err
		}
		count++
	}

	if err := d.store.MarkProjectSynced(project.Key, d.now()); err != nil {
		return count, err
	}
	return count, nil
}

// SyncAllProjects refreshes every active project. The cron schedule calls
// this; failures are logged per project, never fatal.
func (d *Dispatcher) SyncAllProjects(ctx context.Context) {
	projects, err := d.store.ListProjects(true)
	if err != nil {
		logging.WithContext(ctx).Error("Scheduled sync could not list projects", slog.Any("error", err))
		return
	}

	for _, project := range projects {
		count, err := d.syncProject(ctx, project)
		if err != nil {
			logging.WithContext(ctx).Error("Scheduled sync failed",
				slog.String("project", project.Key), slog.Any("error", err))
			continue
		}
		logging.WithContext(ctx).Info("Scheduled sync done",
			slog.String("project", project.Key), slog.Int("issues", count))
	}
}

// SweepExpiredSessions deletes wizard sessions past their deadline. The
// cron schedule calls this; expiry-on-access covers sessions touched in
// between sweeps.
func (d *Dispatcher) SweepExpiredSessions(ctx context.Context) {
	count, err := d.store.DeleteExpiredSessions(d.now())
	if err != nil {
		logging.WithContext(ctx).Error("Session sweep failed", slog.Any("error", err))
		return
	}
	if count > 0 {
		logging.WithContext(ctx).Info("Expired wizard sessions removed", slog.Int64("count", count))
	}
}

func (d *Dispatcher) handleStatus(_ context.Context, _ *Caller, _ []string) (*Response, error) {
	users, err := d.store.ListUsers()
	if err != nil {
		return nil, err
	}
	projects, err := d.store.ListProjects(false)
	if err != nil {
		return nil, err
	}
	issues, err := d.store.ListCachedIssues(store.IssueFilter{Limit: 1000})
	if err != nil {
		return nil, err
	}

	active := 0
	for _, project := range projects {
		if project.IsActive {
			active++
		}
	}

	return textResponse("📊 Status\n\n👥 Users: %d\n📁 Projects: %d active / %d total\n📋 Cached issues: %d",
		len(users), active, len(projects), len(issues)), nil
}

func (d *Dispatcher) handleUsers(_ context.Context, _ *Caller, _ []string) (*Response, error) {
	users, err := d.store.ListUsers()
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return textResponse("📭 No users yet."), nil
	}

	var sb strings.Builder
	sb.WriteString("👥 Users:\n\n")
	for _, user := range users {
		name := user.Username
		if name == "" {
			name = user.FirstName
		}
		role, err := d.perms.Resolve(user.ID, user.Role)
		if err != nil {
			// Users outside the allow-list still show up, with their stored role.
			role = user.Role
		}
		fmt.Fprintf(&sb, "%s (%s) — %s, seen %s\n",
			name, user.ID, role, formatTimeAgo(user.LastSeenAt, d.now()))
	}
	return &Response{Text: sb.String()}, nil
}

// handleRole sets a user's stored role: /role <user_id> <user|admin|super_admin>.
// Roles granted through configuration cannot be lowered here; the resolver
// always takes the maximum.
func (d *Dispatcher) handleRole(ctx context.Context, caller *Caller, args []string) (*Response, error) {
	if len(args) < 2 {
		return nil, &tracker.ValidationError{Field: "role", Reason: "usage: /role <user_id> <user|admin|super_admin>"}
	}

	targetID := args[0]
	role, err := tracker.ParseRole(args[1])
	if err != nil {
		return nil, &tracker.ValidationError{Field: "role", Reason: "role must be one of: user, admin, super_admin"}
	}

	target, err := d.store.GetUser(targetID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, &tracker.ValidationError{Field: "user", Reason: fmt.Sprintf("no known user with ID %s; they must message the bot first", targetID)}
	}

	if err := d.store.SetUserRole(targetID, role); err != nil {
		return nil, err
	}

	logging.WithContext(ctx).Info("Role changed",
		slog.String("target", targetID),
		slog.String("role", role.String()),
		slog.String("by", caller.User.ID))
	return textResponse("✅ %s is now %s.", targetID, role), nil
}
