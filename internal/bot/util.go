package bot

import (
	"fmt"
	"time"
	"unicode/utf8"
)

// truncateText truncates text to at most maxLen bytes, adding "..." if
// truncated. The cut never splits a multibyte rune.
func truncateText(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	if maxLen > 3 {
		cut = maxLen - 3
	}
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	if maxLen <= 3 {
		return text[:cut]
	}
	return text[:cut] + "..."
}

// formatTimeAgo formats a time as a human-readable relative duration.
func formatTimeAgo(t, now time.Time) string {
	d := now.Sub(t)

	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2")
	}
}
