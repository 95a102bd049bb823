// Package bot contains the platform-agnostic core of ticketpilot: the
// command dispatcher, permission resolution, the wizard engine, and the
// command handlers that tie the local store to the remote tracker.
package bot

import "fmt"

// Event is the platform-agnostic representation of one inbound user input,
// either a text message or an inline-button click.
type Event struct {
	UserID     string // platform-assigned user identifier
	Username   string // handle, may be empty
	FirstName  string // display name for greetings
	ChatID     string // outbound response target
	Text       string // message text, or button payload for callbacks
	IsCallback bool   // true when Text came from a button click
}

// Button is one interactive control attached to a response.
type Button struct {
	Text string
	Data string // callback payload; mutually exclusive with URL
	URL  string
}

// Response is the single outbound reply produced for one inbound event.
type Response struct {
	Text     string
	Keyboard [][]Button
}

// textResponse wraps formatted text in a Response.
func textResponse(format string, args ...any) *Response {
	if len(args) == 0 {
		return &Response{Text: format}
	}
	return &Response{Text: fmt.Sprintf(format, args...)}
}
