package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alekspetrov/ticketpilot/internal/store"
	"github.com/alekspetrov/ticketpilot/internal/tracker"
)

// Wizard kinds. Each kind has a fixed, statically-known step table.
const (
	wizardSetup      = "setup"
	wizardQuickSetup = "quicksetup"
	wizardIssue      = "issue"
	wizardProject    = "project"
)

// cancelKeyword cancels an active wizard from any step.
const cancelKeyword = "cancel"

// step is one state of a wizard flow.
type step struct {
	key string
	// prompt renders the question for this step. It may read the store but
	// must not mutate anything.
	prompt func(ctx context.Context, d *Dispatcher, caller *Caller) (*Response, error)
	// validate normalizes the raw input or rejects it with a
	// ValidationError. It may read the store for referential checks.
	validate func(ctx context.Context, d *Dispatcher, input string, answers map[string]string) (string, error)
	// next returns the following step key given the accumulated answers,
	// or "" when the flow is complete. Branching and skipping happen here.
	next func(answers map[string]string) string
}

// flow is the static definition of one wizard kind.
type flow struct {
	kind  string
	title string
	// first picks the initial step for this caller. Flows may skip steps
	// that caller defaults already answer.
	first func(caller *Caller) string
	steps map[string]step
	// complete performs the terminal action with the accumulated answers.
	// It runs after the session row is already gone: a failing terminal
	// action is reported but never resurrects the session.
	complete func(ctx context.Context, d *Dispatcher, caller *Caller, answers map[string]string) (*Response, error)
}

// startWizard creates a session at the flow's first step. Starting while
// another wizard is active is a conflict and leaves that session untouched.
func (d *Dispatcher) startWizard(ctx context.Context, caller *Caller, kind string) (*Response, error) {
	fl, ok := d.flows()[kind]
	if !ok {
		return nil, fmt.Errorf("unknown wizard kind: %s", kind)
	}

	firstStep := fl.first(caller)
	now := d.now()

	err := d.store.UpdateWizardSession(caller.User.ID, now, func(current *store.WizardSession) (*store.WizardSession, error) {
		if current != nil {
			return nil, &tracker.WizardConflictError{Kind: current.Kind}
		}
		return &store.WizardSession{
			UserID:    caller.User.ID,
			Kind:      kind,
			Step:      firstStep,
			Answers:   map[string]string{},
			CreatedAt: now,
			ExpiresAt: now.Add(d.sessionTTL),
		}, nil
	})
	if err != nil {
		return nil, err
	}

	prompt, err := fl.steps[firstStep].prompt(ctx, d, caller)
	if err != nil {
		return nil, err
	}
	prompt.Text = fmt.Sprintf("🧙 %s\n\n%s\n\nSend '%s' at any time to abort.", fl.title, prompt.Text, cancelKeyword)
	return prompt, nil
}

// wizardInput advances the caller's active wizard with one input. The load,
// validate, and write happen inside a single store transaction keyed by the
// user; the terminal action runs only after that transaction committed and
// the session row is gone.
func (d *Dispatcher) wizardInput(ctx context.Context, caller *Caller, input string) *Response {
	input = strings.TrimSpace(input)

	var (
		fl        flow
		nextStep  string
		completed bool
		cancelled bool
		answers   map[string]string
	)

	err := d.store.UpdateWizardSession(caller.User.ID, d.now(), func(current *store.WizardSession) (*store.WizardSession, error) {
		if current == nil {
			// Expired or already gone between routing and this transaction.
			return nil, &tracker.ValidationError{Reason: "No active wizard. Start one with /create or /wizard."}
		}

		var ok bool
		fl, ok = d.flows()[current.Kind]
		if !ok {
			return nil, fmt.Errorf("session %s has unknown wizard kind %s", current.UserID, current.Kind)
		}

		if strings.EqualFold(input, cancelKeyword) {
			cancelled = true
			return nil, nil
		}

		st, ok := fl.steps[current.Step]
		if !ok {
			return nil, fmt.Errorf("session %s at unknown step %s", current.UserID, current.Step)
		}

		value, err := st.validate(ctx, d, input, current.Answers)
		if err != nil {
			// Rolls the transaction back: no state change, no data recorded.
			return nil, err
		}

		current.Answers[st.key] = value
		nextStep = st.next(current.Answers)
		answers = current.Answers

		if nextStep == "" {
			completed = true
			return nil, nil
		}

		current.Step = nextStep
		return current, nil
	})
	if err != nil {
		return d.wizardRejection(ctx, caller, err)
	}

	if cancelled {
		return textResponse(msgWizardCancelled)
	}

	if completed {
		response, err := fl.complete(ctx, d, caller, answers)
		if err != nil {
			// The session stays completed; the user re-initiates to retry.
			return d.classify(ctx, err)
		}
		return response
	}

	prompt, err := fl.steps[nextStep].prompt(ctx, d, caller)
	if err != nil {
		return d.classify(ctx, err)
	}
	return prompt
}

// wizardRejection renders an invalid-input error together with the current
// step's re-prompt, leaving the session untouched.
func (d *Dispatcher) wizardRejection(ctx context.Context, caller *Caller, err error) *Response {
	var validation *tracker.ValidationError
	if !errors.As(err, &validation) {
		return d.classify(ctx, err)
	}

	session, sessionErr := d.store.GetWizardSession(caller.User.ID, d.now())
	if sessionErr != nil || session == nil {
		return textResponse("⚠️ %s", validation.Reason)
	}

	fl := d.flows()[session.Kind]
	prompt, promptErr := fl.steps[session.Step].prompt(ctx, d, caller)
	if promptErr != nil {
		return textResponse("⚠️ %s", validation.Reason)
	}

	prompt.Text = fmt.Sprintf("⚠️ %s\n\n%s", validation.Reason, prompt.Text)
	return prompt
}

// cancelWizard removes the caller's active session without any action.
func (d *Dispatcher) cancelWizard(ctx context.Context, caller *Caller) (*Response, error) {
	session, err := d.store.GetWizardSession(caller.User.ID, d.now())
	if err != nil {
		return nil, err
	}
	if session == nil {
		return textResponse(msgNothingToCancel), nil
	}
	if err := d.store.DeleteWizardSession(caller.User.ID); err != nil {
		return nil, err
	}
	return textResponse(msgWizardCancelled), nil
}
