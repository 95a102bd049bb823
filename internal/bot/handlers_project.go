package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

func (d *Dispatcher) handleSettings(_ context.Context, caller *Caller, _ []string) (*Response, error) {
	user := caller.User

	project := user.DefaultProject
	if project == "" {
		project = "not set"
	}

	text := fmt.Sprintf("⚙️ Your settings\n\n📁 Default project: %s\n%s Default priority: %s\n%s Default type: %s\n👤 Role: %s",
		project,
		user.DefaultPriority.Emoji(), user.DefaultPriority,
		user.DefaultType.Emoji(), user.DefaultType,
		caller.Role)

	if user.DefaultProject == "" {
		text += "\n\nRun /setup to pick a default project."
	}
	return textResponse(text), nil
}

// handleSetDefault switches the default project: /setdefault <KEY>.
// Without an argument it lists active projects as buttons carrying the
// full command.
func (d *Dispatcher) handleSetDefault(_ context.Context, caller *Caller, args []string) (*Response, error) {
	if len(args) == 0 {
		projects, err := d.store.ListProjects(true)
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return textResponse("📭 No projects registered yet. Run /quick to create one."), nil
		}

		var keyboard [][]Button
		for _, project := range projects {
			keyboard = append(keyboard, []Button{{
				Text: fmt.Sprintf("%s — %s", project.Key, project.Name),
				Data: "/setdefault " + project.Key,
			}})
		}
		return &Response{Text: "Pick your default project:", Keyboard: keyboard}, nil
	}

	key, err := tracker.ValidateProjectKey(args[0])
	if err != nil {
		return nil, err
	}

	project, err := d.store.GetProject(key)
	if err != nil {
		return nil, err
	}
	if project == nil || !project.IsActive {
		return nil, &tracker.ValidationError{Field: "project", Reason: fmt.Sprintf("project %s is not available; use /projects to see the list", key)}
	}

	if err := d.store.SetUserDefaults(caller.User.ID, key, "", ""); err != nil {
		return nil, err
	}
	return textResponse("✅ Default project set to %s (%s).", project.Key, project.Name), nil
}

func (d *Dispatcher) handleProjects(_ context.Context, caller *Caller, _ []string) (*Response, error) {
	projects, err := d.store.ListProjects(true)
	if err != nil {
		return nil, err
	}
	if len(projects) == 0 {
		return textResponse("📭 No projects registered yet. Run /quick to create one, or ask an admin for /addproject."), nil
	}

	var sb strings.Builder
	sb.WriteString("📁 Projects:\n\n")
	for _, project := range projects {
		marker := "  "
		if project.Key == caller.User.DefaultProject {
			marker = "⭐ "
		}
		fmt.Fprintf(&sb, "%s%s — %s\n", marker, project.Key, project.Name)
		if project.SyncedAt != nil {
			fmt.Fprintf(&sb, "   last synced %s\n", formatTimeAgo(*project.SyncedAt, d.now()))
		}
	}
	return &Response{Text: sb.String()}, nil
}

// handleEditProject renames a project: /editproject <KEY> <new name...>.
func (d *Dispatcher) handleEditProject(_ context.Context, _ *Caller, args []string) (*Response, error) {
	if len(args) < 2 {
		return nil, &tracker.ValidationError{Field: "editproject", Reason: "usage: /editproject <KEY> <new name>"}
	}

	key, err := tracker.ValidateProjectKey(args[0])
	if err != nil {
		return nil, err
	}
	name, err := tracker.ValidateProjectName(strings.Join(args[1:], " "))
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

	project.Name = name
	if err := d.store.UpsertProject(project); err != nil {
		return nil, err
	}
	return textResponse("✅ Project %s renamed to %s.", key, name), nil
}

// handleDeleteProject deactivates a project, keeping its cached issues:
// /deleteproject <KEY>.
func (d *Dispatcher) handleDeleteProject(_ context.Context, _ *Caller, args []string) (*Response, error) {
	if len(args) == 0 {
		return nil, &tracker.ValidationError{Field: "deleteproject", Reason: "usage: /deleteproject <KEY>"}
	}

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

	if err := d.store.DeactivateProject(key); err != nil {
		return nil, err
	}
	return textResponse("🗑 Project %s deactivated. Cached issues are kept; re-adding the key reactivates it.", key), nil
}
