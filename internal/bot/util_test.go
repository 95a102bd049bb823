package bot

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		input  string
		maxLen int
		want   string
	}{
		{"short", 10, "short"},
		{"exactly ten", 11, "exactly ten"},
		{"this is too long", 10, "this is..."},
		{"abc", 2, "ab"},
	}

	for _, tt := range tests {
		if got := truncateText(tt.input, tt.maxLen); got != tt.want {
			t.Errorf("truncateText(%q, %d) = %q, expected %q", tt.input, tt.maxLen, got, tt.want)
		}
	}
}

func TestTruncateText_NeverSplitsRunes(t *testing.T) {
	// Cyrillic runes are 2 bytes each; odd byte limits land mid-rune.
	input := strings.Repeat("ж", 20)
	for maxLen := 1; maxLen < len(input); maxLen++ {
		got := truncateText(input, maxLen)
		if !utf8.ValidString(got) {
			t.Fatalf("truncateText(%d) produced invalid UTF-8: %q", maxLen, got)
		}
		if len(got) > maxLen {
			t.Fatalf("truncateText(%d) returned %d bytes", maxLen, len(got))
		}
	}

	if got := truncateText("само 🎫 билет и още текст след това", 20); !utf8.ValidString(got) {
		t.Errorf("mixed-width input produced invalid UTF-8: %q", got)
	}
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-2 * 24 * time.Hour), "2d ago"},
		{now.Add(-30 * 24 * time.Hour), "Feb 13"},
	}

	for _, tt := range tests {
		if got := formatTimeAgo(tt.at, now); got != tt.want {
			t.Errorf("formatTimeAgo(%v) = %q, expected %q", tt.at, got, tt.want)
		}
	}
}
