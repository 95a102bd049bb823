// Package tracker holds the issue-tracker domain types shared by the bot,
// the store, and the Jira client: enums, field validation, and the
// smart-parse heuristic for one-line issue creation.
package tracker

import (
	"fmt"
	"strings"
)

// Priority is a Jira issue priority level.
type Priority string

const (
	PriorityLowest  Priority = "Lowest"
	PriorityLow     Priority = "Low"
	PriorityMedium  Priority = "Medium"
	PriorityHigh    Priority = "High"
	PriorityHighest Priority = "Highest"
)

// Priorities lists all priority levels in ascending order.
var Priorities = []Priority{PriorityLowest, PriorityLow, PriorityMedium, PriorityHigh, PriorityHighest}

// ParsePriority matches a priority name case-insensitively.
func ParsePriority(s string) (Priority, error) {
	for _, p := range Priorities {
		if strings.EqualFold(s, string(p)) {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown priority: %s", s)
}

// Emoji returns the marker used in chat messages for this priority.
func (p Priority) Emoji() string {
	switch p {
	case PriorityLowest:
		return "🔵"
	case PriorityLow:
		return "🟢"
	case PriorityMedium:
		return "🟡"
	case PriorityHigh:
		return "🟠"
	case PriorityHighest:
		return "🔴"
	default:
		return "⚪"
	}
}

// IssueType is a Jira issue type.
type IssueType string

const (
	TypeTask        IssueType = "Task"
	TypeBug         IssueType = "Bug"
	TypeStory       IssueType = "Story"
	TypeEpic        IssueType = "Epic"
	TypeImprovement IssueType = "Improvement"
	TypeSubtask     IssueType = "Sub-task"
)

// IssueTypes lists all supported issue types.
var IssueTypes = []IssueType{TypeTask, TypeBug, TypeStory, TypeEpic, TypeImprovement, TypeSubtask}

// ParseIssueType matches an issue type name, ignoring case and hyphens
// so that "subtask" and "Sub-task" both resolve.
func ParseIssueType(s string) (IssueType, error) {
	norm := strings.ReplaceAll(strings.ToUpper(s), "-", "")
	for _, t := range IssueTypes {
		if strings.ReplaceAll(strings.ToUpper(string(t)), "-", "") == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown issue type: %s", s)
}

// Emoji returns the marker used in chat messages for this issue type.
func (t IssueType) Emoji() string {
	switch t {
	case TypeTask:
		return "📋"
	case TypeBug:
		return "🐛"
	case TypeStory:
		return "📖"
	case TypeEpic:
		return "🚀"
	case TypeImprovement:
		return "⚡"
	case TypeSubtask:
		return "📝"
	default:
		return "📄"
	}
}

// Status is a Jira workflow status.
type Status string

const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
	StatusClosed     Status = "Closed"
	StatusReopened   Status = "Reopened"
	StatusResolved   Status = "Resolved"
)

// Statuses lists all recognized workflow statuses.
var Statuses = []Status{StatusToDo, StatusInProgress, StatusDone, StatusClosed, StatusReopened, StatusResolved}

// ParseStatus matches a status name, ignoring case and spacing.
func ParseStatus(s string) (Status, error) {
	norm := strings.ReplaceAll(strings.ToUpper(s), " ", "_")
	for _, st := range Statuses {
		if strings.ReplaceAll(strings.ToUpper(string(st)), " ", "_") == norm {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown status: %s", s)
}

// Emoji returns the marker used in chat messages for this status.
func (s Status) Emoji() string {
	switch s {
	case StatusToDo:
		return "📝"
	case StatusInProgress:
		return "⏳"
	case StatusDone, StatusResolved:
		return "✅"
	case StatusClosed:
		return "🔒"
	case StatusReopened:
		return "🔄"
	default:
		return "❓"
	}
}

// Role is a permission tier derived from configured ID sets and stored state.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
	RoleSuperAdmin
)

// ParseRole matches a role name case-insensitively.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "super_admin", "superadmin":
		return RoleSuperAdmin, nil
	}
	return 0, fmt.Errorf("unknown role: %s", s)
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "super_admin"
	default:
		return "user"
	}
}

// AtLeast reports whether this role satisfies the required minimum.
func (r Role) AtLeast(min Role) bool {
	return r >= min
}
