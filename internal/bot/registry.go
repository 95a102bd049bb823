package bot

import (
	"context"
	"strings"

	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// Caller is the resolved identity a handler acts on behalf of.
type Caller struct {
	User *store.User
	Role tracker.Role
}

// handlerFunc executes one command. Handlers return either a response or an
// error for the dispatcher to classify; they never do both.
type handlerFunc func(ctx context.Context, caller *Caller, args []string) (*Response, error)

// command is one entry of the static command registry.
type command struct {
	name    string
	minRole tracker.Role
	wizard  string // wizard kind started by this command, if any
	handler handlerFunc
}

// shortcuts expands abbreviated command names to their canonical form
// before registry lookup.
var shortcuts = map[string]string{
	"p":    "projects",
	"ap":   "addproject",
	"ep":   "editproject",
	"dp":   "deleteproject",
	"sd":   "setdefault",
	"c":    "create",
	"v":    "view",
	"li":   "listissues",
	"mi":   "myissues",
	"si":   "searchissues",
	"s":    "status",
	"u":    "users",
	"sync": "syncjira",
	"w":    "wizard",
	"q":    "quick",
}

// registry builds the static command table. Registered once at construction;
// permission minimums live here, not in the handlers.
func (d *Dispatcher) registry() map[string]command {
	return map[string]command{
		"help":          {name: "help", minRole: tracker.RoleUser, handler: d.handleHelp},
		"start":         {name: "start", minRole: tracker.RoleUser, handler: d.handleHelp},
		"create":        {name: "create", minRole: tracker.RoleUser, wizard: wizardIssue, handler: nil},
		"wizard":        {name: "wizard", minRole: tracker.RoleUser, handler: d.handleWizard},
		"quick":         {name: "quick", minRole: tracker.RoleUser, wizard: wizardQuickSetup, handler: nil},
		"setup":         {name: "setup", minRole: tracker.RoleUser, wizard: wizardSetup, handler: nil},
		"cancel":        {name: "cancel", minRole: tracker.RoleUser, handler: d.handleCancel},
		"settings":      {name: "settings", minRole: tracker.RoleUser, handler: d.handleSettings},
		"setdefault":    {name: "setdefault", minRole: tracker.RoleUser, handler: d.handleSetDefault},
		"projects":      {name: "projects", minRole: tracker.RoleUser, handler: d.handleProjects},
		"view":          {name: "view", minRole: tracker.RoleUser, handler: d.handleView},
		"edit":          {name: "edit", minRole: tracker.RoleUser, handler: d.handleEdit},
		"assign":        {name: "assign", minRole: tracker.RoleUser, handler: d.handleAssign},
		"transition":    {name: "transition", minRole: tracker.RoleUser, handler: d.handleTransition},
		"myissues":      {name: "myissues", minRole: tracker.RoleUser, handler: d.handleMyIssues},
		"listissues":    {name: "listissues", minRole: tracker.RoleUser, handler: d.handleListIssues},
		"searchissues":  {name: "searchissues", minRole: tracker.RoleUser, handler: d.handleSearchIssues},
		"comment":       {name: "comment", minRole: tracker.RoleUser, handler: d.handleComment},
		"addproject":    {name: "addproject", minRole: tracker.RoleAdmin, wizard: wizardProject, handler: nil},
		"editproject":   {name: "editproject", minRole: tracker.RoleAdmin, handler: d.handleEditProject},
		"deleteproject": {name: "deleteproject", minRole: tracker.RoleAdmin, handler: d.handleDeleteProject},
		"syncjira":      {name: "syncjira", minRole: tracker.RoleAdmin, handler: d.handleSyncJira},
		"status":        {name: "status", minRole: tracker.RoleAdmin, handler: d.handleStatus},
		"users":         {name: "users", minRole: tracker.RoleAdmin, handler: d.handleUsers},
		"role":          {name: "role", minRole: tracker.RoleSuperAdmin, handler: d.handleRole},
	}
}

// parseCommand splits "/cmd@botname arg1 arg2" into a canonical command name
// and its arguments. Returns ok=false when text is not a slash command.
func parseCommand(text string) (name string, args []string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", nil, false
	}

	parts := strings.Fields(text[1:])
	if len(parts) == 0 {
		return "", nil, false
	}

	name = strings.ToLower(parts[0])
	if at := strings.Index(name, "@"); at >= 0 {
		name = name[:at]
	}
	if canonical, isShortcut := shortcuts[name]; isShortcut {
		name = canonical
	}
	return name, parts[1:], true
}
