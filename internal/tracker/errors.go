package tracker

import "fmt"

// ValidationError marks user-correctable input problems. The dispatcher
// re-prompts with the reason instead of logging a failure.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// AccessDeniedError is returned when a user fails the allow-list gate or
// lacks the role a command requires.
type AccessDeniedError struct {
	UserID   string
	Required Role
}

func (e *AccessDeniedError) Error() string {
	if e.Required != 0 {
		return fmt.Sprintf("user %s lacks required role %s", e.UserID, e.Required)
	}
	return fmt.Sprintf("user %s is not allowed", e.UserID)
}

// WizardConflictError is returned when a wizard-initiating command fires
// while the user already has an active session.
type WizardConflictError struct {
	Kind string
}

func (e *WizardConflictError) Error() string {
	return fmt.Sprintf("wizard already active: %s", e.Kind)
}
