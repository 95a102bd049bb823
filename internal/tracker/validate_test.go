package tracker

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateSummary(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "trims whitespace", input: "  fix login  ", want: "fix login"},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "whitespace only rejected", input: "   ", wantErr: true},
		{name: "at bound", input: strings.Repeat("x", MaxSummaryLength), want: strings.Repeat("x", MaxSummaryLength)},
		{name: "over bound rejected", input: strings.Repeat("x", MaxSummaryLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateSummary(tt.input)
			if tt.wantErr {
				assertValidationError(t, err)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateDescription_EmptyAllowed(t *testing.T) {
	got, err := ValidateDescription("")
	if err != nil {
		t.Fatalf("empty description should pass: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty, got %q", got)
	}

	_, err = ValidateDescription(strings.Repeat("x", MaxDescriptionLength+1))
	assertValidationError(t, err)
}

func TestValidateProjectKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uppercased", input: "proj", want: "PROJ"},
		{name: "digits allowed after first", input: "web1", want: "WEB1"},
		{name: "leading digit rejected", input: "1web", wantErr: true},
		{name: "single char rejected", input: "A", wantErr: true},
		{name: "too long rejected", input: "ABCDEFGHIJK", wantErr: true},
		{name: "special chars rejected", input: "AB-C", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
		{name: "max length", input: "ABCDEFGHIJ", want: "ABCDEFGHIJ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateProjectKey(tt.input)
			if tt.wantErr {
				assertValidationError(t, err)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateIssueKey(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "uppercased", input: "proj-42", want: "PROJ-42"},
		{name: "whitespace trimmed", input: "  WEBAPP-123  ", want: "WEBAPP-123"},
		{name: "underscore allowed", input: "MY_PROJ-7", want: "MY_PROJ-7"},
		{name: "missing number rejected", input: "PROJ-", wantErr: true},
		{name: "missing dash rejected", input: "PROJ42", wantErr: true},
		{name: "leading digit rejected", input: "1AB-2", wantErr: true},
		{name: "bare word rejected", input: "nope", wantErr: true},
		{name: "empty rejected", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateIssueKey(tt.input)
			if tt.wantErr {
				assertValidationError(t, err)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidatePriority(t *testing.T) {
	p, err := ValidatePriority("  high ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != PriorityHigh {
		t.Errorf("expected High, got %s", p)
	}

	_, err = ValidatePriority("urgent")
	assertValidationError(t, err)
}

func TestValidateIssueType(t *testing.T) {
	typ, err := ValidateIssueType("sub-task")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != TypeSubtask {
		t.Errorf("expected Sub-task, got %s", typ)
	}

	typ, err = ValidateIssueType("SUBTASK")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if typ != TypeSubtask {
		t.Errorf("expected Sub-task, got %s", typ)
	}

	_, err = ValidateIssueType("feature")
	assertValidationError(t, err)
}

func TestValidateSearchQuery(t *testing.T) {
	if _, err := ValidateSearchQuery("ab"); err == nil {
		t.Error("two characters should be rejected")
	}
	got, err := ValidateSearchQuery("  login bug  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "login bug" {
		t.Errorf("expected trimmed query, got %q", got)
	}
}

// assertValidationError checks the error is a *ValidationError so handlers
// re-prompt instead of failing.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}
