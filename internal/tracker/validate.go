package tracker

import (
	"regexp"
	"strings"
)

// Field bounds shared with the original tracker's limits.
const (
	MaxSummaryLength     = 200
	MaxDescriptionLength = 5000
	MaxProjectKeyLength  = 10
	MaxProjectNameLength = 255
	MinSearchQueryLength = 3
	MaxSearchQueryLength = 200
)

var (
	projectKeyPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]{1,9}$`)
	issueKeyPattern   = regexp.MustCompile(`^[A-Z][A-Z0-9_]*-\d+$`)
)

// ValidateSummary trims and bounds-checks an issue summary.
func ValidateSummary(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "summary", Reason: "summary cannot be empty"}
	}
	if len(s) > MaxSummaryLength {
		return "", &ValidationError{Field: "summary", Reason: "summary must be 200 characters or less"}
	}
	return s, nil
}

// ValidateDescription trims and bounds-checks an issue description.
// Empty descriptions are allowed.
func ValidateDescription(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) > MaxDescriptionLength {
		return "", &ValidationError{Field: "description", Reason: "description must be 5000 characters or less"}
	}
	return s, nil
}

// ValidateProjectKey normalizes a project key to uppercase and checks the
// 2-10 character uppercase-alphanumeric format.
func ValidateProjectKey(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", &ValidationError{Field: "project key", Reason: "project key cannot be empty"}
	}
	if len(s) > MaxProjectKeyLength {
		return "", &ValidationError{Field: "project key", Reason: "project key must be 10 characters or less"}
	}
	if !projectKeyPattern.MatchString(s) {
		return "", &ValidationError{Field: "project key", Reason: "project key must start with a letter and contain only uppercase letters and digits (e.g. PROJ, WEB1)"}
	}
	return s, nil
}

// ValidateIssueKey normalizes an issue key to uppercase and checks the
// PROJECT-123 format.
func ValidateIssueKey(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", &ValidationError{Field: "issue key", Reason: "issue key cannot be empty"}
	}
	if !issueKeyPattern.MatchString(s) {
		return "", &ValidationError{Field: "issue key", Reason: "invalid issue key format (e.g. WEBAPP-123)"}
	}
	return s, nil
}

// ValidateProjectName trims and bounds-checks a project display name.
func ValidateProjectName(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", &ValidationError{Field: "project name", Reason: "project name cannot be empty"}
	}
	if len(s) > MaxProjectNameLength {
		return "", &ValidationError{Field: "project name", Reason: "project name must be 255 characters or less"}
	}
	return s, nil
}

// ValidatePriority matches user input against the priority enum.
func ValidatePriority(s string) (Priority, error) {
	p, err := ParsePriority(strings.TrimSpace(s))
	if err != nil {
		return "", &ValidationError{Field: "priority", Reason: "priority must be one of: Lowest, Low, Medium, High, Highest"}
	}
	return p, nil
}

// ValidateIssueType matches user input against the issue type enum.
func ValidateIssueType(s string) (IssueType, error) {
	t, err := ParseIssueType(strings.TrimSpace(s))
	if err != nil {
		return "", &ValidationError{Field: "issue type", Reason: "issue type must be one of: Task, Bug, Story, Epic, Improvement, Sub-task"}
	}
	return t, nil
}

// ValidateSearchQuery bounds-checks a free-text search query.
func ValidateSearchQuery(s string) (string, error) {
	s = strings.TrimSpace(s)
	if len(s) < MinSearchQueryLength {
		return "", &ValidationError{Field: "query", Reason: "search query must be at least 3 characters"}
	}
	if len(s) > MaxSearchQueryLength {
		return "", &ValidationError{Field: "query", Reason: "search query must be 200 characters or less"}
	}
	return s, nil
}
