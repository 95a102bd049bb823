package bot

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alekspetrov/ticketpilot/internal/jira"
	"github.com/alekspetrov/ticketpilot/internal/logging"
	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// RemoteTracker is the remote ticketing surface the dispatcher consumes.
// *jira.Client satisfies it; tests substitute a fake.
type RemoteTracker interface {
	CreateIssue(ctx context.Context, projectKey, summary, description string, priority tracker.Priority, issueType tracker.IssueType, reporterID string) (*jira.CreatedIssue, error)
	AddComment(ctx context.Context, issueKey, body string) (*jira.Comment, error)
	GetIssue(ctx context.Context, issueKey string) (*jira.Issue, error)
	UpdateIssue(ctx context.Context, issueKey string, fields map[string]any) error
	AssignIssue(ctx context.Context, issueKey, assignee string) error
	GetTransitions(ctx context.Context, issueKey string) ([]jira.Transition, error)
	TransitionIssue(ctx context.Context, issueKey, transitionID string) error
	SearchIssues(ctx context.Context, jql string, maxResults int) ([]*jira.Issue, error)
	GetProject(ctx context.Context, projectKey string) (*jira.Project, error)
	ProjectIssues(ctx context.Context, projectKey string, updatedSince *time.Time, maxResults int) ([]*jira.Issue, error)
	BrowseURL(issueKey string) string
}

// Dispatcher turns inbound chat events into permission-checked, validated
// operations against the store and the remote tracker, producing exactly
// one outbound response per event.
type Dispatcher struct {
	store      *store.Store
	remote     RemoteTracker
	perms      *Resolver
	sessionTTL time.Duration
	commands   map[string]command
	now        func() time.Time
}

// NewDispatcher creates the dispatcher with its static command registry.
func NewDispatcher(st *store.Store, remote RemoteTracker, perms *Resolver, sessionTTL time.Duration) *Dispatcher {
	d := &Dispatcher{
		store:      st,
		remote:     remote,
		perms:      perms,
		sessionTTL: sessionTTL,
		now:        time.Now,
	}
	d.commands = d.registry()
	return d
}

// Dispatch processes one inbound event. It never returns an error: every
// failure is classified into a user-safe response, and internal detail
// stays in the logs.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) (response *Response) {
	ctx = logging.ContextWithCorrelationID(ctx, uuid.New().String())
	ctx = logging.ContextWithUserID(ctx, event.UserID)

	defer func() {
		if r := recover(); r != nil {
			logging.WithContext(ctx).Error("Panic in dispatch", slog.Any("panic", r))
			response = textResponse(msgInternalError)
		}
	}()

	caller, err := d.identify(event)
	if err != nil {
		return d.classify(ctx, err)
	}

	text := strings.TrimSpace(event.Text)
	if text == "" {
		return nil
	}

	name, args, isCommand := parseCommand(text)

	// An active wizard captures all input except an explicit cancel.
	if !isCommand || name != "cancel" {
		session, err := d.store.GetWizardSession(event.UserID, d.now())
		if err != nil {
			return d.classify(ctx, err)
		}
		if session != nil {
			return d.wizardInput(ctx, caller, text)
		}
	}

	if !isCommand {
		// Plain text, no wizard: the zero-step quick create path.
		return d.quickCreate(ctx, caller, text)
	}

	cmd, known := d.commands[name]
	if !known {
		return textResponse(msgUnknownCommand)
	}

	ctx = logging.ContextWithCommand(ctx, cmd.name)

	if !caller.Role.AtLeast(cmd.minRole) {
		logging.WithContext(ctx).Warn("Access denied",
			slog.String("required_role", cmd.minRole.String()),
			slog.String("role", caller.Role.String()))
		return textResponse(msgForbidden)
	}

	if cmd.wizard != "" {
		response, err := d.startWizard(ctx, caller, cmd.wizard)
		if err != nil {
			return d.classify(ctx, err)
		}
		return response
	}

	response, err = cmd.handler(ctx, caller, args)
	if err != nil {
		return d.classify(ctx, err)
	}
	return response
}

// identify loads or creates the user row for the sender and resolves the
// effective role. First contact creates the row with base defaults.
func (d *Dispatcher) identify(event *Event) (*Caller, error) {
	user, err := d.store.GetUser(event.UserID)
	if err != nil {
		return nil, err
	}

	if user == nil {
		user = &store.User{
			ID:              event.UserID,
			Username:        event.Username,
			FirstName:       event.FirstName,
			Role:            tracker.RoleUser,
			DefaultPriority: tracker.PriorityMedium,
			DefaultType:     tracker.TypeTask,
		}
		if err := d.store.UpsertUser(user); err != nil {
			return nil, err
		}
	} else if err := d.store.TouchUser(user.ID); err != nil {
		return nil, err
	}

	role, err := d.perms.Resolve(user.ID, user.Role)
	if err != nil {
		return nil, err
	}

	return &Caller{User: user, Role: role}, nil
}

// quickCreate handles the implicit "send any message" creation path via the
// smart-parse heuristic against the sender's default project.
func (d *Dispatcher) quickCreate(ctx context.Context, caller *Caller, text string) *Response {
	user := caller.User
	if user.DefaultProject == "" {
		return textResponse(msgSetupRequired)
	}

	parsed := tracker.SmartParse(text, user.DefaultPriority, user.DefaultType, tracker.MaxSummaryLength)

	summary, err := tracker.ValidateSummary(parsed.Summary)
	if err != nil {
		return d.classify(ctx, err)
	}

	response, err := d.createIssue(ctx, caller, user.DefaultProject, summary, parsed.Description, parsed.Priority, parsed.Type)
	if err != nil {
		return d.classify(ctx, err)
	}
	return response
}

// classify converts a handler failure into a user-safe response. Backend
// detail is logged, never surfaced.
func (d *Dispatcher) classify(ctx context.Context, err error) *Response {
	log := logging.WithContext(ctx)

	var validation *tracker.ValidationError
	if errors.As(err, &validation) {
		return textResponse("⚠️ %s", validation.Reason)
	}

	var denied *tracker.AccessDeniedError
	if errors.As(err, &denied) {
		log.Warn("Access denied", slog.String("detail", denied.Error()))
		return textResponse(msgForbidden)
	}

	var conflict *tracker.WizardConflictError
	if errors.As(err, &conflict) {
		return textResponse(msgWizardConflict)
	}

	var storage *store.StorageError
	if errors.As(err, &storage) {
		log.Error("Storage failure", slog.Any("error", storage))
		return textResponse(msgStorageError)
	}

	var rejected *jira.RemoteRejectedError
	if errors.As(err, &rejected) {
		log.Warn("Remote rejected request", slog.Any("error", rejected))
		return textResponse("🔗 The tracker rejected the request: %s", rejected.Reason)
	}

	var network *jira.NetworkError
	if errors.As(err, &network) {
		log.Error("Remote call failed after retries", slog.Any("error", network))
		return textResponse(msgNetworkError)
	}

	log.Error("Unexpected failure", slog.Any("error", err))
	return textResponse(msgInternalError)
}
