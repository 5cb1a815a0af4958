package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shrk/timerapp/internal/onboarding"
	"github.com/shrk/timerapp/internal/store"
)

// errOnboardingAborted is returned when the user quits onboarding.
var errOnboardingAborted = errors.New("onboarding aborted")

// OnboardOptions holds flags for the onboard command.
type OnboardOptions struct {
	*RootOptions
	Force bool

	// Input replaces the terminal (for testing).
	Input io.Reader
}

// OnboardResult is the outcome of the onboard command.
type OnboardResult struct {
	Completed            bool `json:"completed"`
	Skipped              bool `json:"skipped"`
	NotificationsGranted bool `json:"notifications_granted"`
}

// Text renders the result for text output.
func (r OnboardResult) Text() string {
	if r.Skipped {
		return "Onboarding already completed.\n"
	}
	granted := "denied"
	if r.NotificationsGranted {
		granted = "granted"
	}
	return fmt.Sprintf("Onboarding completed (notifications %s).\n", granted)
}

// NewOnboardCommand creates the onboard command.
func NewOnboardCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &OnboardOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "onboard",
		Short: "Walk through first-launch onboarding",
		Long: `Walk through the onboarding pages shown on first launch.

On each page press Enter for Next (Done on the last page). The
notification page offers g to grant the permission; leaving it without
answering asks for confirmation. q aborts without completing.

Examples:
  timerapp onboard
  timerapp onboard --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnboard(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "run onboarding even if already completed")

	return cmd
}

func runOnboard(opts *OnboardOptions, cmd *cobra.Command) error {
	cfg, formatter, err := prepare(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	first, err := st.IsFirstLaunch(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read first launch flag", err)
	}
	if !first && !opts.Force {
		return formatter.Success(OnboardResult{Skipped: true})
	}

	con, err := newConsole(opts.Input, cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open terminal", err)
	}
	defer con.Close()

	if err := runOnboarding(ctx, con, st); err != nil {
		if errors.Is(err, errOnboardingAborted) {
			return NewExitError(ExitFailure, "onboarding aborted")
		}
		return WrapExitError(ExitFailure, "onboarding failed", err)
	}

	granted, err := st.GetBool(ctx, store.KeyNotificationsGranted, false)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read notification permission", err)
	}
	return formatter.Success(OnboardResult{Completed: true, NotificationsGranted: granted})
}

// runOnboarding drives the onboarding flow on the console and stores the
// notification answer.
func runOnboarding(ctx context.Context, con console, st *store.Store) error {
	out := con.Stdout()
	perms := onboarding.Prompt{Lines: con, Out: out}

	flow, err := onboarding.NewFlow(onboarding.DefaultSteps(perms), st)
	if err != nil {
		return err
	}

	for !flow.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}

		step := flow.Current()
		fmt.Fprintf(out, "[%d/%d] %s\n", flow.Index()+1, flow.Len(), step.Description)
		if step.HasAction() {
			fmt.Fprintf(out, "  g: %s   Enter: %s   q: quit\n", step.ActionLabel, flow.NextLabel())
		} else {
			fmt.Fprintf(out, "  Enter: %s   q: quit\n", flow.NextLabel())
		}

		line, err := con.Readline()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return errOnboardingAborted
			}
			return err
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "q", "quit":
			slog.Info("onboarding aborted", "step", step.Name)
			return errOnboardingAborted

		case "g":
			if !step.HasAction() {
				continue
			}
			granted, err := flow.Perform(ctx)
			if err != nil {
				fmt.Fprintf(out, "Could not request permission: %v\n", err)
				continue
			}
			if err := st.SetBool(ctx, store.KeyNotificationsGranted, granted); err != nil {
				return fmt.Errorf("store notification permission: %w", err)
			}

		case "", "n", "next", "done":
			if _, err := flow.Next(ctx); err != nil {
				return err
			}
			if flow.Confirming() {
				if err := confirmSkip(ctx, con, flow); err != nil {
					return err
				}
			}
		}
	}

	fmt.Fprintln(out, "Onboarding complete.")
	return nil
}

// confirmSkip asks whether to leave a step whose action was not completed.
func confirmSkip(ctx context.Context, con console, flow *onboarding.Flow) error {
	fmt.Fprintf(con.Stdout(), "%s %s [y/N] ", onboarding.ConfirmTitle, onboarding.ConfirmText)

	line, err := con.Readline()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return errOnboardingAborted
		}
		return err
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		_, err := flow.ConfirmSkip(ctx)
		return err
	default:
		flow.CancelSkip()
		return nil
	}
}
