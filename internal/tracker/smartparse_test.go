package tracker

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSmartParse_PlainText(t *testing.T) {
	parsed := SmartParse("fix the login page", PriorityMedium, TypeTask, MaxSummaryLength)

	if parsed.Priority != PriorityMedium {
		t.Errorf("expected default priority Medium, got %s", parsed.Priority)
	}
	if parsed.Type != TypeTask {
		t.Errorf("expected default type Task, got %s", parsed.Type)
	}
	if parsed.Summary != "fix the login page" {
		t.Errorf("unexpected summary: %q", parsed.Summary)
	}
	if parsed.Description != "" {
		t.Errorf("expected empty description, got %q", parsed.Description)
	}
}

func TestSmartParse_LeadingTokens(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		priority Priority
		issueType IssueType
		summary  string
	}{
		{
			name:     "priority only",
			input:    "high checkout crashes",
			priority: PriorityHigh,
			issueType: TypeTask,
			summary:  "checkout crashes",
		},
		{
			name:     "type only",
			input:    "bug checkout crashes",
			priority: PriorityMedium,
			issueType: TypeBug,
			summary:  "checkout crashes",
		},
		{
			name:     "priority then type",
			input:    "high bug checkout crashes",
			priority: PriorityHigh,
			issueType: TypeBug,
			summary:  "checkout crashes",
		},
		{
			name:     "type then priority",
			input:    "bug high checkout crashes",
			priority: PriorityHigh,
			issueType: TypeBug,
			summary:  "checkout crashes",
		},
		{
			name:     "case insensitive",
			input:    "HIGHEST Story rework onboarding",
			priority: PriorityHighest,
			issueType: TypeStory,
			summary:  "rework onboarding",
		},
		{
			name:     "hyphen insensitive type",
			input:    "subtask split the migration",
			priority: PriorityMedium,
			issueType: TypeSubtask,
			summary:  "split the migration",
		},
		{
			name:     "non-matching first token stops parsing",
			input:    "urgent bug checkout crashes",
			priority: PriorityMedium,
			issueType: TypeTask,
			summary:  "urgent bug checkout crashes",
		},
		{
			name:     "third token is never consumed",
			input:    "high bug low threshold alarm",
			priority: PriorityHigh,
			issueType: TypeBug,
			summary:  "low threshold alarm",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed := SmartParse(tt.input, PriorityMedium, TypeTask, MaxSummaryLength)
			if parsed.Priority != tt.priority {
				t.Errorf("priority: expected %s, got %s", tt.priority, parsed.Priority)
			}
			if parsed.Type != tt.issueType {
				t.Errorf("type: expected %s, got %s", tt.issueType, parsed.Type)
			}
			if parsed.Summary != tt.summary {
				t.Errorf("summary: expected %q, got %q", tt.summary, parsed.Summary)
			}
		})
	}
}

func TestSmartParse_TokenWithoutRemainderIsSummary(t *testing.T) {
	// A message that is nothing but a matching token stays a summary;
	// consuming it would leave the issue without one.
	parsed := SmartParse("bug", PriorityMedium, TypeTask, MaxSummaryLength)

	if parsed.Type != TypeTask {
		t.Errorf("expected default type, got %s", parsed.Type)
	}
	if parsed.Summary != "bug" {
		t.Errorf("expected summary %q, got %q", "bug", parsed.Summary)
	}
}

func TestSmartParse_LongMessageSpillsToDescription(t *testing.T) {
	long := strings.Repeat("a", 250)
	parsed := SmartParse("high "+long, PriorityMedium, TypeTask, MaxSummaryLength)

	if parsed.Priority != PriorityHigh {
		t.Errorf("expected High, got %s", parsed.Priority)
	}
	if len(parsed.Summary) != MaxSummaryLength {
		t.Errorf("expected summary cut at %d, got %d", MaxSummaryLength, len(parsed.Summary))
	}
	if parsed.Description != long {
		t.Error("description should carry the full untruncated remainder")
	}
}

func TestSmartParse_TruncationKeepsRunesWhole(t *testing.T) {
	// 2-byte runes with a bound that lands mid-rune: the summary must back
	// off to the previous rune boundary instead of emitting invalid UTF-8.
	long := strings.Repeat("я", 80)
	parsed := SmartParse(long, PriorityMedium, TypeTask, 101)

	if !utf8.ValidString(parsed.Summary) {
		t.Fatalf("summary is not valid UTF-8: %q", parsed.Summary)
	}
	if len(parsed.Summary) != 100 {
		t.Errorf("expected cut at the rune boundary before 101, got %d bytes", len(parsed.Summary))
	}
	if parsed.Description != long {
		t.Error("description should carry the full untruncated remainder")
	}
}

func TestSmartParse_ShortMessageHasNoDescription(t *testing.T) {
	parsed := SmartParse("short one", PriorityLow, TypeBug, MaxSummaryLength)
	if parsed.Description != "" {
		t.Errorf("expected no description, got %q", parsed.Description)
	}
	if parsed.Priority != PriorityLow || parsed.Type != TypeBug {
		t.Error("defaults should pass through untouched")
	}
}
