package tracker

import (
	"strings"
	"unicode/utf8"
)

// ParsedMessage is the result of SmartParse: an issue draft extracted from
// a single free-text line.
type ParsedMessage struct {
	Priority    Priority
	Type        IssueType
	Summary     string
	Description string
}

// SmartParse extracts an issue draft from one line of free text. Up to two
// leading tokens are consumed when they match the priority or issue type
// enums, in either order; the remainder becomes the summary. When the
// remainder exceeds summaryMax the summary is cut at the bound and the
// untruncated remainder is carried in the description so no text is lost.
// Unset priority/type fall back to the given defaults; defaulting is
// independent of truncation.
func SmartParse(text string, defaultPriority Priority, defaultType IssueType, summaryMax int) ParsedMessage {
	parsed := ParsedMessage{Priority: defaultPriority, Type: defaultType}
	remainder := strings.TrimSpace(text)

	for range [2]int{} {
		token, rest, ok := strings.Cut(remainder, " ")
		if !ok || rest == "" {
			break
		}
		if p, err := ParsePriority(token); err == nil {
			parsed.Priority = p
			remainder = strings.TrimSpace(rest)
			continue
		}
		if t, err := ParseIssueType(token); err == nil {
			parsed.Type = t
			remainder = strings.TrimSpace(rest)
			continue
		}
		break
	}

	if summaryMax > 0 && len(remainder) > summaryMax {
		parsed.Summary = cutAtRuneBoundary(remainder, summaryMax)
		parsed.Description = remainder
	} else {
		parsed.Summary = remainder
	}
	return parsed
}

// cutAtRuneBoundary cuts s to at most max bytes without splitting a rune.
func cutAtRuneBoundary(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
