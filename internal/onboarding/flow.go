package onboarding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Button labels and the skip confirmation dialog text.
const (
	LabelNext = "Next"
	LabelDone = "Done"

	ConfirmTitle = "Proceed?"
	ConfirmText  = "You are skipping important setup for this app"
)

// ErrFinished is returned by Flow methods once the last step was left.
var ErrFinished = errors.New("onboarding finished")

// ErrNotConfirming is returned by ConfirmSkip when no skip is pending.
var ErrNotConfirming = errors.New("no skip awaiting confirmation")

// Action performs a step's host interaction. The boolean is the host's
// answer (granted or denied); an error means the host could not answer.
type Action func(ctx context.Context) (bool, error)

// Step is one onboarding page.
type Step struct {
	Name        string
	Description string

	// ActionLabel is the button text for Action. Empty when the step has
	// no action.
	ActionLabel string
	Action      Action
}

// HasAction reports whether the step carries a host action.
func (s Step) HasAction() bool {
	return s.Action != nil
}

// Completer persists the end of onboarding.
type Completer interface {
	MarkFirstLaunchCompleted(ctx context.Context) error
}

// Outcome is the result of pressing Next.
type Outcome int

const (
	// Advanced moved to the following step.
	Advanced Outcome = iota
	// Finished left the last step and marked first launch completed.
	Finished
	// NeedsConfirmation means the step's action was never completed; the
	// host must call ConfirmSkip or CancelSkip.
	NeedsConfirmation
)

func (o Outcome) String() string {
	switch o {
	case Advanced:
		return "advanced"
	case Finished:
		return "finished"
	case NeedsConfirmation:
		return "needs_confirmation"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Flow is the onboarding state machine.
//
// Not safe for concurrent use; the host drives it from one goroutine.
type Flow struct {
	steps      []Step
	completer  Completer
	index      int
	completed  bool // action of the current step answered
	confirming bool
	finished   bool
	results    map[string]bool
}

// NewFlow creates a Flow positioned at the first step.
// A nil completer skips persistence.
func NewFlow(steps []Step, completer Completer) (*Flow, error) {
	if len(steps) == 0 {
		return nil, errors.New("onboarding needs at least one step")
	}
	return &Flow{
		steps:     steps,
		completer: completer,
		results:   make(map[string]bool),
	}, nil
}

// Current returns the step being shown.
func (f *Flow) Current() Step {
	return f.steps[f.index]
}

// Index returns the zero-based position of the current step.
func (f *Flow) Index() int {
	return f.index
}

// Len returns the number of steps.
func (f *Flow) Len() int {
	return len(f.steps)
}

// IsLast reports whether the current step is the final one.
func (f *Flow) IsLast() bool {
	return f.index == len(f.steps)-1
}

// NextLabel returns the label of the advance button.
func (f *Flow) NextLabel() string {
	if f.IsLast() {
		return LabelDone
	}
	return LabelNext
}

// Confirming reports whether a skip is awaiting confirmation.
func (f *Flow) Confirming() bool {
	return f.confirming
}

// Done reports whether the flow has finished.
func (f *Flow) Done() bool {
	return f.finished
}

// Result returns the recorded answer of a step's action.
// ok is false when the action never completed.
func (f *Flow) Result(name string) (granted bool, ok bool) {
	granted, ok = f.results[name]
	return granted, ok
}

// Perform runs the current step's action. A boolean answer, granted or
// not, completes the step. A host error leaves it incomplete.
func (f *Flow) Perform(ctx context.Context) (bool, error) {
	if f.finished {
		return false, ErrFinished
	}
	step := f.Current()
	if !step.HasAction() {
		return true, nil
	}

	granted, err := step.Action(ctx)
	if err != nil {
		slog.Warn("onboarding action failed", "step", step.Name, "error", err)
		return false, fmt.Errorf("step %s: %w", step.Name, err)
	}

	f.completed = true
	f.results[step.Name] = granted
	slog.Info("onboarding action completed", "step", step.Name, "granted", granted)
	return granted, nil
}

// Next tries to leave the current step.
func (f *Flow) Next(ctx context.Context) (Outcome, error) {
	if f.finished {
		return Finished, ErrFinished
	}
	if f.Current().HasAction() && !f.completed {
		f.confirming = true
		return NeedsConfirmation, nil
	}
	return f.advance(ctx)
}

// ConfirmSkip accepts the pending skip and leaves the step.
func (f *Flow) ConfirmSkip(ctx context.Context) (Outcome, error) {
	if !f.confirming {
		return NeedsConfirmation, ErrNotConfirming
	}
	slog.Info("onboarding step skipped", "step", f.Current().Name)
	return f.advance(ctx)
}

// CancelSkip dismisses the confirmation and stays on the step.
func (f *Flow) CancelSkip() {
	f.confirming = false
}

func (f *Flow) advance(ctx context.Context) (Outcome, error) {
	f.confirming = false

	if !f.IsLast() {
		f.index++
		f.completed = false
		return Advanced, nil
	}

	if f.completer != nil {
		if err := f.completer.MarkFirstLaunchCompleted(ctx); err != nil {
			return Finished, fmt.Errorf("mark first launch completed: %w", err)
		}
	}
	f.finished = true
	slog.Info("onboarding finished")
	return Finished, nil
}
