package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alekspetrov/ticketpilot/internal/jira"
	"github.com/alekspetrov/ticketpilot/internal/logging"
	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// createIssue is the single creation path shared by the wizard, the quick
// create heuristic, and anything else that makes issues. It creates the
// remote issue first, then caches it locally; a cache failure after remote
// creation is logged but not surfaced, the issue exists either way.
func (d *Dispatcher) createIssue(ctx context.Context, caller *Caller, projectKey, summary, description string, priority tracker.Priority, issueType tracker.IssueType) (*Response, error) {
	created, err := d.remote.CreateIssue(ctx, projectKey, summary, description, priority, issueType, caller.User.ID)
	if err != nil {
		return nil, err
	}

	cacheErr := d.store.CacheIssue(&store.Issue{
		RemoteKey:   created.Key,
		ProjectKey:  projectKey,
		Summary:     summary,
		Description: description,
		Priority:    priority,
		Type:        issueType,
		Status:      tracker.StatusToDo,
		ReporterID:  caller.User.ID,
	})
	if cacheErr != nil {
		logging.WithContext(ctx).Warn("Issue created remotely but not cached",
			slog.String("issue_key", created.Key), slog.Any("error", cacheErr))
	}

	logging.WithContext(ctx).Info("Issue created",
		slog.String("issue_key", created.Key),
		slog.String("project", projectKey))

	text := fmt.Sprintf("✅ Created %s\n\n%s %s | %s %s\n📝 %s",
		created.Key,
		issueType.Emoji(), issueType,
		priority.Emoji(), priority,
		summary)

	return &Response{
		Text: text,
		Keyboard: [][]Button{{
			{Text: "🔗 Open in Jira", URL: d.remote.BrowseURL(created.Key)},
		}},
	}, nil
}

func (d *Dispatcher) handleHelp(_ context.Context, _ *Caller, _ []string) (*Response, error) {
	return textResponse(helpText), nil
}

// handleWizard starts a wizard by name: /wizard issue|setup|quick|project.
// Without an argument it defaults to the issue wizard.
func (d *Dispatcher) handleWizard(ctx context.Context, caller *Caller, args []string) (*Response, error) {
	kind := wizardIssue
	if len(args) > 0 {
		switch strings.ToLower(args[0]) {
		case "issue", "create":
			kind = wizardIssue
		case "setup":
			kind = wizardSetup
		case "quick", "quicksetup":
			kind = wizardQuickSetup
		case "project":
			kind = wizardProject
		default:
			return nil, &tracker.ValidationError{Field: "wizard", Reason: "unknown wizard; options: issue, setup, quick, project"}
		}
	}

	if kind == wizardProject && !caller.Role.AtLeast(tracker.RoleAdmin) {
		return nil, &tracker.AccessDeniedError{UserID: caller.User.ID, Required: tracker.RoleAdmin}
	}

	return d.startWizard(ctx, caller, kind)
}

func (d *Dispatcher) handleCancel(ctx context.Context, caller *Caller, _ []string) (*Response, error) {
	return d.cancelWizard(ctx, caller)
}

func (d *Dispatcher) handleMyIssues(_ context.Context, caller *Caller, _ []string) (*Response, error) {
	issues, err := d.store.ListCachedIssues(store.IssueFilter{ReporterID: caller.User.ID, Limit: 10})
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return textResponse("📭 You haven't reported any issues yet. Send a message to create one."), nil
	}
	return d.renderIssueList("📋 Your issues", issues), nil
}

// handleListIssues lists recent cached issues, optionally scoped to one
// project: /listissues [KEY].
func (d *Dispatcher) handleListIssues(_ context.Context, caller *Caller, args []string) (*Response, error) {
	filter := store.IssueFilter{Limit: 10}
	title := "📋 Recent issues"

	switch {
	case len(args) > 0:
		key, err := tracker.ValidateProjectKey(args[0])
		if err != nil {
			return nil, err
		}
		filter.ProjectKey = key
		title = "📋 Recent issues in " + key
	case caller.User.DefaultProject != "":
		filter.ProjectKey = caller.User.DefaultProject
		title = "📋 Recent issues in " + caller.User.DefaultProject
	}

	issues, err := d.store.ListCachedIssues(filter)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return textResponse("📭 No issues found."), nil
	}
	return d.renderIssueList(title, issues), nil
}

// handleSearchIssues searches the remote tracker: /searchissues <text>.
func (d *Dispatcher) handleSearchIssues(ctx context.Context, caller *Caller, args []string) (*Response, error) {
	query, err := tracker.ValidateSearchQuery(strings.Join(args, " "))
	if err != nil {
		return nil, err
	}

	jql := fmt.Sprintf(`text ~ "%s" ORDER BY updated DESC`, escapeJQL(query))
	if caller.User.DefaultProject != "" {
		jql = fmt.Sprintf(`project = %s AND %s`, caller.User.DefaultProject, jql)
	}

	issues, err := d.remote.SearchIssues(ctx, jql, 10)
	if err != nil {
		return nil, err
	}
	if len(issues) == 0 {
		return textResponse("🔍 No issues match '%s'.", query), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🔍 Results for '%s':\n\n", query)
	for _, issue := range issues {
		fmt.Fprintf(&sb, "%s %s %s — %s\n",
			issue.StatusName().Emoji(),
			issue.PriorityName().Emoji(),
			issue.Key,
			truncateText(issue.Fields.Summary, 60))
	}
	return &Response{Text: sb.String()}, nil
}

// handleComment adds a comment to a remote issue: /comment <KEY> <text>.
func (d *Dispatcher) handleComment(ctx context.Context, caller *Caller, args []string) (*Response, error) {
	if len(args) < 2 {
		return nil, &tracker.ValidationError{Field: "comment", Reason: "usage: /comment <ISSUE-KEY> <text>"}
	}

	issueKey := strings.ToUpper(args[0])
	body, err := tracker.ValidateDescription(strings.Join(args[1:], " "))
	if err != nil {
		return nil, err
	}
	if body == "" {
		return nil, &tracker.ValidationError{Field: "comment", Reason: "comment text cannot be empty"}
	}

	author := caller.User.Username
	if author == "" {
		author = caller.User.ID
	}

	if _, err := d.remote.AddComment(ctx, issueKey, fmt.Sprintf("%s (via TicketPilot):\n%s", author, body)); err != nil {
		return nil, err
	}

	return &Response{
		Text: fmt.Sprintf("💬 Comment added to %s.", issueKey),
		Keyboard: [][]Button{{
			{Text: "🔗 Open in Jira", URL: d.remote.BrowseURL(issueKey)},
		}},
	}, nil
}

// handleView shows an issue's details fetched live from the tracker:
// /view <KEY>. The fetched issue refreshes the local cache as a side effect.
func (d *Dispatcher) handleView(ctx context.Context, _ *Caller, args []string) (*Response, error) {
	if len(args) == 0 {
		return nil, &tracker.ValidationError{Field: "issue key", Reason: "usage: /view <ISSUE-KEY>"}
	}
	issueKey, err := tracker.ValidateIssueKey(args[0])
	if err != nil {
		return nil, err
	}

	issue, err := d.remote.GetIssue(ctx, issueKey)
	if err != nil {
		var rejected *jira.RemoteRejectedError
		if errors.As(err, &rejected) && rejected.StatusCode == http.StatusNotFound {
			return nil, &tracker.ValidationError{Field: "issue key", Reason: fmt.Sprintf("issue '%s' not found", issueKey)}
		}
		return nil, err
	}

	d.refreshCachedIssue(ctx, issue)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎫 %s — %s\n\n", issue.Key, issue.Fields.Summary)
	fmt.Fprintf(&sb, "%s %s | %s %s | %s %s\n",
		issue.TypeName().Emoji(), issue.TypeName(),
		issue.PriorityName().Emoji(), issue.PriorityName(),
		issue.StatusName().Emoji(), issue.StatusName())
	if desc := issue.DescriptionText(); desc != "" {
		fmt.Fprintf(&sb, "\n📝 %s\n", truncateText(desc, 500))
	}

	return &Response{
		Text: sb.String(),
		Keyboard: [][]Button{
			{
				{Text: "💬 Comment", Data: "/comment " + issueKey},
				{Text: "🔄 Transition", Data: "/transition " + issueKey},
			},
			{
				{Text: "✏️ Edit", Data: "/edit " + issueKey},
				{Text: "🔗 Open in Jira", URL: d.remote.BrowseURL(issueKey)},
			},
		},
	}, nil
}

// handleEdit updates one field of a remote issue:
// /edit <KEY> <summary|description|priority> <value>.
func (d *Dispatcher) handleEdit(ctx context.Context, _ *Caller, args []string) (*Response, error) {
	if len(args) == 0 {
		return nil, &tracker.ValidationError{Field: "issue key", Reason: "usage: /edit <ISSUE-KEY> <summary|description|priority> <value>"}
	}
	issueKey, err := tracker.ValidateIssueKey(args[0])
	if err != nil {
		return nil, err
	}
	if len(args) < 3 {
		return textResponse("✏️ Usage: /edit %s <summary|description|priority> <value>", issueKey), nil
	}

	field := strings.ToLower(args[1])
	value := strings.Join(args[2:], " ")

	var fields map[string]any
	switch field {
	case "summary":
		summary, err := tracker.ValidateSummary(value)
		if err != nil {
			return nil, err
		}
		fields = map[string]any{"summary": summary}
	case "description":
		desc, err := tracker.ValidateDescription(value)
		if err != nil {
			return nil, err
		}
		fields = map[string]any{"description": desc}
	case "priority":
		priority, err := tracker.ValidatePriority(value)
		if err != nil {
			return nil, err
		}
		fields = map[string]any{"priority": map[string]string{"name": string(priority)}}
	default:
		return nil, &tracker.ValidationError{Field: "field", Reason: "editable fields: summary, description, priority"}
	}

	if err := d.remote.UpdateIssue(ctx, issueKey, fields); err != nil {
		return nil, err
	}

	logging.WithContext(ctx).Info("Issue updated",
		slog.String("issue_key", issueKey), slog.String("field", field))
	return textResponse("✏️ %s updated (%s).", issueKey, field), nil
}

// handleAssign assigns an issue: /assign <KEY> <account>. Cloud expects an
// Atlassian account ID, server a username.
func (d *Dispatcher) handleAssign(ctx context.Context, _ *Caller, args []string) (*Response, error) {
	if len(args) < 2 {
		return nil, &tracker.ValidationError{Field: "assignee", Reason: "usage: /assign <ISSUE-KEY> <account>"}
	}
	issueKey, err := tracker.ValidateIssueKey(args[0])
	if err != nil {
		return nil, err
	}

	if err := d.remote.AssignIssue(ctx, issueKey, args[1]); err != nil {
		return nil, err
	}

	logging.WithContext(ctx).Info("Issue assigned",
		slog.String("issue_key", issueKey), slog.String("assignee", args[1]))
	return textResponse("👤 %s assigned to %s.", issueKey, args[1]), nil
}

// maxTransitionButtons bounds the transition picker keyboard.
const maxTransitionButtons = 10

// handleTransition moves an issue through its workflow. /transition <KEY>
// lists the available transitions as buttons; /transition <KEY> <status>
// performs the one matching by name, case-insensitively.
func (d *Dispatcher) handleTransition(ctx context.Context, _ *Caller, args []string) (*Response, error) {
	if len(args) == 0 {
		return nil, &tracker.ValidationError{Field: "issue key", Reason: "usage: /transition <ISSUE-KEY> [status]"}
	}
	issueKey, err := tracker.ValidateIssueKey(args[0])
	if err != nil {
		return nil, err
	}

	transitions, err := d.remote.GetTransitions(ctx, issueKey)
	if err != nil {
		return nil, err
	}
	if len(transitions) == 0 {
		return textResponse("🔄 No transitions available for %s.", issueKey), nil
	}

	if len(args) == 1 {
		var keyboard [][]Button
		for i, t := range transitions {
			if i == maxTransitionButtons {
				break
			}
			keyboard = append(keyboard, []Button{
				{Text: t.Name, Data: fmt.Sprintf("/transition %s %s", issueKey, t.Name)},
			})
		}
		return &Response{
			Text:     fmt.Sprintf("🔄 Choose a new status for %s:", issueKey),
			Keyboard: keyboard,
		}, nil
	}

	want := strings.Join(args[1:], " ")
	for _, t := range transitions {
		if !strings.EqualFold(t.Name, want) {
			continue
		}
		if err := d.remote.TransitionIssue(ctx, issueKey, t.ID); err != nil {
			return nil, err
		}
		logging.WithContext(ctx).Info("Issue transitioned",
			slog.String("issue_key", issueKey), slog.String("status", t.Name))
		return textResponse("🔄 %s moved to %s.", issueKey, t.Name), nil
	}

	names := make([]string, len(transitions))
	for i, t := range transitions {
		names[i] = t.Name
	}
	return nil, &tracker.ValidationError{
		Field:  "status",
		Reason: fmt.Sprintf("status '%s' not available for %s; options: %s", want, issueKey, strings.Join(names, ", ")),
	}
}

// refreshCachedIssue writes a freshly fetched remote issue into the local
// cache. Cache failures are logged, not surfaced.
func (d *Dispatcher) refreshCachedIssue(ctx context.Context, issue *jira.Issue) {
	projectKey := ""
	if issue.Fields.Project != nil {
		projectKey = issue.Fields.Project.Key
	}

	err := d.store.CacheIssue(&store.Issue{
		RemoteKey:   issue.Key,
		ProjectKey:  projectKey,
		Summary:     issue.Fields.Summary,
		Description: issue.DescriptionText(),
		Priority:    issue.PriorityName(),
		Type:        issue.TypeName(),
		Status:      issue.StatusName(),
	})
	if err != nil {
		logging.WithContext(ctx).Warn("Issue fetched but not cached",
			slog.String("issue_key", issue.Key), slog.Any("error", err))
	}
}

// renderIssueList formats cached issues as one compact line each.
func (d *Dispatcher) renderIssueList(title string, issues []*store.Issue) *Response {
	var sb strings.Builder
	sb.WriteString(title + ":\n\n")
	for _, issue := range issues {
		fmt.Fprintf(&sb, "%s %s %s — %s\n",
			issue.Status.Emoji(),
			issue.Priority.Emoji(),
			issue.RemoteKey,
			truncateText(issue.Summary, 60))
	}
	return &Response{Text: sb.String()}
}

// escapeJQL escapes quotes and backslashes in user text embedded in a JQL
// string literal.
func escapeJQL(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
