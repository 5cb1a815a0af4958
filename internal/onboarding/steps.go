package onboarding

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Step names.
const (
	StepIntro        = "AppIntro"
	StepNotification = "Notification"
	StepDone         = "Done"
)

// Permissions requests the post-notification permission from the host.
type Permissions interface {
	RequestNotifications(ctx context.Context) (bool, error)
}

// DefaultSteps returns the three first-run pages.
func DefaultSteps(perms Permissions) []Step {
	return []Step{
		{
			Name:        StepIntro,
			Description: "This is TimerApp",
		},
		{
			Name:        StepNotification,
			Description: "Allow notifications permissions please.",
			ActionLabel: "Grant",
			Action:      perms.RequestNotifications,
		},
		{
			Name:        StepDone,
			Description: "You're ready to go!",
		},
	}
}

// LineReader reads one line of user input. *readline.Instance satisfies it.
type LineReader interface {
	Readline() (string, error)
}

// Prompt asks for the permission with a y/n question.
type Prompt struct {
	Lines LineReader
	Out   io.Writer
}

// RequestNotifications writes the question and reads one line.
// Anything other than y or yes counts as denied. A read failure is an error.
func (p Prompt) RequestNotifications(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprint(p.Out, "Allow timerapp to post notifications? [y/N] ")

	line, err := p.Lines.Readline()
	if err != nil {
		return false, fmt.Errorf("read permission answer: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
