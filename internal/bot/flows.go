package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// skipKeyword lets the user leave an optional step empty.
const skipKeyword = "skip"

// severityLevels are the accepted answers for the bug severity step.
var severityLevels = []string{"Minor", "Major", "Critical"}

// flows returns the static step tables for every wizard kind.
func (d *Dispatcher) flows() map[string]flow {
	return map[string]flow{
		wizardIssue:      d.issueFlow(),
		wizardProject:    d.projectFlow(),
		wizardSetup:      d.setupFlow(),
		wizardQuickSetup: d.quickSetupFlow(),
	}
}

// issueFlow guides issue creation: project, type, severity for bugs,
// priority, summary, optional description, confirm. The project step is
// skipped when the caller already has a default project.
func (d *Dispatcher) issueFlow() flow {
	return flow{
		kind:  wizardIssue,
		title: "Issue Creation Wizard",
		first: func(caller *Caller) string {
			if caller.User.DefaultProject != "" {
				return "type"
			}
			return "project"
		},
		steps: map[string]step{
			"project": {
				key:      "project",
				prompt:   d.projectPickerPrompt("Which project should the issue go to?"),
				validate: d.validateActiveProject,
				next:     func(map[string]string) string { return "type" },
			},
			"type": {
				key:    "type",
				prompt: staticPrompt("What kind of issue is this?", enumKeyboard(issueTypeOptions())),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					t, err := tracker.ValidateIssueType(input)
					return string(t), err
				},
				next: func(answers map[string]string) string {
					if answers["type"] == string(tracker.TypeBug) {
						return "severity"
					}
					return "priority"
				},
			},
			"severity": {
				key:    "severity",
				prompt: staticPrompt("How severe is the bug?", enumKeyboard(severityLevels)),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					for _, level := range severityLevels {
						if strings.EqualFold(input, level) {
							return level, nil
						}
					}
					return "", &tracker.ValidationError{Field: "severity", Reason: "severity must be one of: Minor, Major, Critical"}
				},
				next: func(map[string]string) string { return "priority" },
			},
			"priority": {
				key:    "priority",
				prompt: staticPrompt("Pick a priority.", enumKeyboard(priorityOptions())),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					p, err := tracker.ValidatePriority(input)
					return string(p), err
				},
				next: func(map[string]string) string { return "summary" },
			},
			"summary": {
				key:    "summary",
				prompt: staticPrompt("Enter a short summary for the issue (200 characters max).", nil),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					return tracker.ValidateSummary(input)
				},
				next: func(map[string]string) string { return "description" },
			},
			"description": {
				key:    "description",
				prompt: staticPrompt("Add a detailed description, or send 'skip' to leave it empty.", nil),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					if strings.EqualFold(strings.TrimSpace(input), skipKeyword) {
						return "", nil
					}
					return tracker.ValidateDescription(input)
				},
				next: func(map[string]string) string { return "confirm" },
			},
			"confirm": {
				key:      "confirm",
				prompt:   d.issueConfirmPrompt,
				validate: confirmValidator,
				next:     func(map[string]string) string { return "" },
			},
		},
		complete: d.completeIssueWizard,
	}
}

// projectFlow guides project registration: key, name, optional description,
// confirm.
func (d *Dispatcher) projectFlow() flow {
	return flow{
		kind:  wizardProject,
		title: "Project Setup Wizard",
		first: func(*Caller) string { return "key" },
		steps: map[string]step{
			"key": {
				key:      "key",
				prompt:   staticPrompt("Enter a unique project key (2-10 uppercase letters and digits, e.g. PROJ).", nil),
				validate: d.validateNewProjectKey,
				next:     func(map[string]string) string { return "name" },
			},
			"name": {
				key:    "name",
				prompt: staticPrompt("Enter a descriptive name for the project.", nil),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					return tracker.ValidateProjectName(input)
				},
				next: func(map[string]string) string { return "description" },
			},
			"description": {
				key:    "description",
				prompt: staticPrompt("Describe the project, or send 'skip' to leave it empty.", nil),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					if strings.EqualFold(strings.TrimSpace(input), skipKeyword) {
						return "", nil
					}
					return tracker.ValidateDescription(input)
				},
				next: func(map[string]string) string { return "confirm" },
			},
			"confirm": {
				key:      "confirm",
				prompt:   d.projectConfirmPrompt,
				validate: confirmValidator,
				next:     func(map[string]string) string { return "" },
			},
		},
		complete: d.completeProjectWizard,
	}
}

// setupFlow guides preference setup: default project, priority, issue type.
func (d *Dispatcher) setupFlow() flow {
	return flow{
		kind:  wizardSetup,
		title: "Preferences Setup Wizard",
		first: func(*Caller) string { return "project" },
		steps: map[string]step{
			"project": {
				key:      "project",
				prompt:   d.projectPickerPrompt("Pick your default project for quick issue creation."),
				validate: d.validateActiveProject,
				next:     func(map[string]string) string { return "priority" },
			},
			"priority": {
				key:    "priority",
				prompt: staticPrompt("Pick your default priority.", enumKeyboard(priorityOptions())),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					p, err := tracker.ValidatePriority(input)
					return string(p), err
				},
				next: func(map[string]string) string { return "type" },
			},
			"type": {
				key:    "type",
				prompt: staticPrompt("Pick your default issue type.", enumKeyboard(issueTypeOptions())),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					t, err := tracker.ValidateIssueType(input)
					return string(t), err
				},
				next: func(map[string]string) string { return "" },
			},
		},
		complete: d.completeSetupWizard,
	}
}

// quickSetupFlow is the two-step zero-to-ready path: it registers a project
// and makes it the caller's default in one go.
func (d *Dispatcher) quickSetupFlow() flow {
	return flow{
		kind:  wizardQuickSetup,
		title: "Quick Setup",
		first: func(*Caller) string { return "key" },
		steps: map[string]step{
			"key": {
				key:      "key",
				prompt:   staticPrompt("Enter a project key to create and use as your default (e.g. PROJ).", nil),
				validate: d.validateNewProjectKey,
				next:     func(map[string]string) string { return "name" },
			},
			"name": {
				key:    "name",
				prompt: staticPrompt("Enter the project's display name.", nil),
				validate: func(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
					return tracker.ValidateProjectName(input)
				},
				next: func(map[string]string) string { return "" },
			},
		},
		complete: d.completeQuickSetupWizard,
	}
}

// Shared prompt and validation helpers

// staticPrompt returns a prompt that does not depend on runtime state.
func staticPrompt(text string, keyboard [][]Button) func(context.Context, *Dispatcher, *Caller) (*Response, error) {
	return func(context.Context, *Dispatcher, *Caller) (*Response, error) {
		return &Response{Text: text, Keyboard: keyboard}, nil
	}
}

// projectPickerPrompt lists active projects as buttons.
func (d *Dispatcher) projectPickerPrompt(text string) func(context.Context, *Dispatcher, *Caller) (*Response, error) {
	return func(ctx context.Context, d *Dispatcher, _ *Caller) (*Response, error) {
		projects, err := d.store.ListProjects(true)
		if err != nil {
			return nil, err
		}
		if len(projects) == 0 {
			return &Response{Text: text + "\n\nNo projects registered yet. Type a project key, or ask an admin to run /addproject."}, nil
		}

		var keyboard [][]Button
		for _, project := range projects {
			keyboard = append(keyboard, []Button{{
				Text: fmt.Sprintf("%s — %s", project.Key, project.Name),
				Data: project.Key,
			}})
		}
		return &Response{Text: text, Keyboard: keyboard}, nil
	}
}

// validateActiveProject checks the key format and that the project exists
// and is active.
func (d *Dispatcher) validateActiveProject(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
	key, err := tracker.ValidateProjectKey(input)
	if err != nil {
		return "", err
	}
	project, err := d.store.GetProject(key)
	if err != nil {
		return "", err
	}
	if project == nil || !project.IsActive {
		return "", &tracker.ValidationError{Field: "project", Reason: fmt.Sprintf("project %s is not available; use /projects to see the list", key)}
	}
	return key, nil
}

// validateNewProjectKey checks the key format and rejects keys already
// taken by an active project. Reusing an inactive key reactivates it on
// completion.
func (d *Dispatcher) validateNewProjectKey(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
	key, err := tracker.ValidateProjectKey(input)
	if err != nil {
		return "", err
	}
	project, err := d.store.GetProject(key)
	if err != nil {
		return "", err
	}
	if project != nil && project.IsActive {
		return "", &tracker.ValidationError{Field: "project key", Reason: fmt.Sprintf("project key %s is already taken", key)}
	}
	return key, nil
}

// confirmValidator accepts only an explicit yes; everything except the
// cancel keyword re-prompts.
func confirmValidator(_ context.Context, _ *Dispatcher, input string, _ map[string]string) (string, error) {
	if strings.EqualFold(strings.TrimSpace(input), "yes") {
		return "yes", nil
	}
	return "", &tracker.ValidationError{Field: "confirm", Reason: "press ✅ Confirm to proceed, or send 'cancel' to abort"}
}

// confirmKeyboard is the standard confirm/cancel button row.
func confirmKeyboard() [][]Button {
	return [][]Button{{
		{Text: "✅ Confirm", Data: "yes"},
		{Text: "❌ Cancel", Data: cancelKeyword},
	}}
}

func (d *Dispatcher) issueConfirmPrompt(_ context.Context, _ *Dispatcher, caller *Caller) (*Response, error) {
	session, err := d.store.GetWizardSession(caller.User.ID, d.now())
	if err != nil || session == nil {
		return &Response{Text: "Create this issue?", Keyboard: confirmKeyboard()}, err
	}

	answers := session.Answers
	project := answers["project"]
	if project == "" {
		project = caller.User.DefaultProject
	}

	var sb strings.Builder
	sb.WriteString("About to create:\n\n")
	fmt.Fprintf(&sb, "📁 Project: %s\n", project)
	fmt.Fprintf(&sb, "%s Type: %s\n", tracker.IssueType(answers["type"]).Emoji(), answers["type"])
	if severity := answers["severity"]; severity != "" {
		fmt.Fprintf(&sb, "💥 Severity: %s\n", severity)
	}
	fmt.Fprintf(&sb, "%s Priority: %s\n", tracker.Priority(answers["priority"]).Emoji(), answers["priority"])
	fmt.Fprintf(&sb, "📝 Summary: %s\n", answers["summary"])
	if desc := answers["description"]; desc != "" {
		fmt.Fprintf(&sb, "📄 Description: %s\n", truncateText(desc, 120))
	}

	return &Response{Text: sb.String(), Keyboard: confirmKeyboard()}, nil
}

func (d *Dispatcher) projectConfirmPrompt(_ context.Context, _ *Dispatcher, caller *Caller) (*Response, error) {
	session, err := d.store.GetWizardSession(caller.User.ID, d.now())
	if err != nil || session == nil {
		return &Response{Text: "Create this project?", Keyboard: confirmKeyboard()}, err
	}

	answers := session.Answers
	var sb strings.Builder
	sb.WriteString("About to register:\n\n")
	fmt.Fprintf(&sb, "🔑 Key: %s\n", answers["key"])
	fmt.Fprintf(&sb, "📁 Name: %s\n", answers["name"])
	if desc := answers["description"]; desc != "" {
		fmt.Fprintf(&sb, "📄 Description: %s\n", truncateText(desc, 120))
	}

	return &Response{Text: sb.String(), Keyboard: confirmKeyboard()}, nil
}

// Terminal actions

func (d *Dispatcher) completeIssueWizard(ctx context.Context, _ *Dispatcher, caller *Caller, answers map[string]string) (*Response, error) {
	project := answers["project"]
	if project == "" {
		project = caller.User.DefaultProject
	}

	description := answers["description"]
	if severity := answers["severity"]; severity != "" {
		if description != "" {
			description = fmt.Sprintf("Severity: %s\n\n%s", severity, description)
		} else {
			description = "Severity: " + severity
		}
	}

	return d.createIssue(ctx, caller, project, answers["summary"], description,
		tracker.Priority(answers["priority"]), tracker.IssueType(answers["type"]))
}

func (d *Dispatcher) completeProjectWizard(_ context.Context, _ *Dispatcher, caller *Caller, answers map[string]string) (*Response, error) {
	project := &store.Project{
		Key:         answers["key"],
		Name:        answers["name"],
		Description: answers["description"],
		CreatedBy:   caller.User.ID,
	}
	if err := d.store.UpsertProject(project); err != nil {
		return nil, err
	}
	return textResponse("✅ Project %s (%s) registered.", project.Key, project.Name), nil
}

func (d *Dispatcher) completeSetupWizard(_ context.Context, _ *Dispatcher, caller *Caller, answers map[string]string) (*Response, error) {
	err := d.store.SetUserDefaults(caller.User.ID, answers["project"],
		tracker.Priority(answers["priority"]), tracker.IssueType(answers["type"]))
	if err != nil {
		return nil, err
	}
	return textResponse("✅ Preferences saved. Default project %s, priority %s, type %s.\n\nSend any message to create an issue.",
		answers["project"], answers["priority"], answers["type"]), nil
}

func (d *Dispatcher) completeQuickSetupWizard(_ context.Context, _ *Dispatcher, caller *Caller, answers map[string]string) (*Response, error) {
	project := &store.Project{
		Key:       answers["key"],
		Name:      answers["name"],
		CreatedBy: caller.User.ID,
	}
	if err := d.store.UpsertProject(project); err != nil {
		return nil, err
	}
	if err := d.store.SetUserDefaults(caller.User.ID, project.Key, "", ""); err != nil {
		return nil, err
	}
	return textResponse("✅ Project %s created and set as your default.\n\nSend any message to create your first issue.", project.Key), nil
}

// Keyboard option helpers

func priorityOptions() []string {
	options := make([]string, len(tracker.Priorities))
	for i, p := range tracker.Priorities {
		options[i] = string(p)
	}
	return options
}

func issueTypeOptions() []string {
	options := make([]string, len(tracker.IssueTypes))
	for i, t := range tracker.IssueTypes {
		options[i] = string(t)
	}
	return options
}

// enumKeyboard lays out enum values as button rows, three per row.
func enumKeyboard(options []string) [][]Button {
	var keyboard [][]Button
	var row []Button
	for _, option := range options {
		row = append(row, Button{Text: option, Data: option})
		if len(row) == 3 {
			keyboard = append(keyboard, row)
			row = nil
		}
	}
	if len(row) > 0 {
		keyboard = append(keyboard, row)
	}
	return keyboard
}
