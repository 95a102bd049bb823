// Package jira is the remote ticketing client. The remote tracker is the
// source of truth for issues; this package only shuttles requests and
// classifies failures into retryable and permanent kinds.
package jira

import (
	"fmt"

	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// Platform values for API path selection.
const (
	PlatformCloud  = "cloud"
	PlatformServer = "server"
)

// NetworkError is a transient remote failure (transport error, 429, 5xx).
// Calls failing this way are retried with bounded exponential backoff.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("jira %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// RemoteRejectedError is a permanent remote failure, e.g. the tracker
// rejected the request as invalid. Reason is sanitized for display; the raw
// response body never leaves this package.
type RemoteRejectedError struct {
	Op         string
	StatusCode int
	Reason     string
}

func (e *RemoteRejectedError) Error() string {
	return fmt.Sprintf("jira %s rejected (status %d): %s", e.Op, e.StatusCode, e.Reason)
}

// Issue is a remote issue as returned by the tracker API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the subset of Jira fields the bot reads.
type IssueFields struct {
	Summary     string     `json:"summary"`
	Description any        `json:"description"` // string on server, ADF document on cloud
	IssueType   *NamedRef  `json:"issuetype"`
	Priority    *NamedRef  `json:"priority"`
	Status      *NamedRef  `json:"status"`
	Labels      []string   `json:"labels"`
	Project     *ProjectRef `json:"project"`
	Updated     string     `json:"updated"`
	Created     string     `json:"created"`
}

// NamedRef is a Jira entity referenced by name.
type NamedRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ProjectRef identifies the project an issue belongs to.
type ProjectRef struct {
	ID   string `json:"id,omitempty"`
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

// Project is a remote project as returned by the tracker API.
type Project struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Transition is one workflow transition currently available on an issue.
type Transition struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	To   *NamedRef `json:"to,omitempty"`
}

// transitionsResponse is the response from the transitions API.
type transitionsResponse struct {
	Transitions []Transition `json:"transitions"`
}

// Comment is a created comment reference.
type Comment struct {
	ID string `json:"id"`
}

// CreatedIssue is the response to an issue-creation request.
type CreatedIssue struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Self string `json:"self"`
}

// searchResponse is the response from the search API.
type searchResponse struct {
	Issues     []*Issue `json:"issues"`
	Total      int      `json:"total"`
	StartAt    int      `json:"startAt"`
	MaxResults int      `json:"maxResults"`
}

// errorBody is the Jira error envelope used for sanitized reasons.
type errorBody struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}

// TypeName returns the parsed issue type, defaulting to Task.
func (i *Issue) TypeName() tracker.IssueType {
	if i.Fields.IssueType != nil {
		if t, err := tracker.ParseIssueType(i.Fields.IssueType.Name); err == nil {
			return t
		}
	}
	return tracker.TypeTask
}

// PriorityName returns the parsed priority, defaulting to Medium.
func (i *Issue) PriorityName() tracker.Priority {
	if i.Fields.Priority != nil {
		if p, err := tracker.ParsePriority(i.Fields.Priority.Name); err == nil {
			return p
		}
	}
	return tracker.PriorityMedium
}

// StatusName returns the parsed workflow status, defaulting to To Do.
func (i *Issue) StatusName() tracker.Status {
	if i.Fields.Status != nil {
		if s, err := tracker.ParseStatus(i.Fields.Status.Name); err == nil {
			return s
		}
	}
	return tracker.StatusToDo
}

// DescriptionText flattens the description field to plain text. Cloud
// returns an ADF document; server returns a string.
func (i *Issue) DescriptionText() string {
	switch d := i.Fields.Description.(type) {
	case string:
		return d
	case map[string]any:
		return flattenADF(d)
	default:
		return ""
	}
}

// flattenADF extracts the text nodes of an Atlassian Document Format tree.
func flattenADF(node map[string]any) string {
	if text, ok := node["text"].(string); ok {
		return text
	}
	content, ok := node["content"].([]any)
	if !ok {
		return ""
	}
	var out string
	for _, child := range content {
		m, ok := child.(map[string]any)
		if !ok {
			continue
		}
		if part := flattenADF(m); part != "" {
			if out != "" {
				out += "\n"
			}
			out += part
		}
	}
	return out
}
