package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// MonitorOptions holds flags for the monitor command.
type MonitorOptions struct {
	*RootOptions
	Input   string // feed path, "-" for stdin
	Journal string // overrides monitor.journal
}

// MonitorResult summarizes a monitor session.
type MonitorResult struct {
	Source   string `json:"source"`
	Journal  string `json:"journal,omitempty"`
	Recorded int64  `json:"recorded"`
}

// Text renders the result for text output.
func (r MonitorResult) Text() string {
	return fmt.Sprintf("Recorded %d screen event(s) from %s.\n", r.Recorded, r.Source)
}

// NewMonitorCommand creates the monitor command.
func NewMonitorCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MonitorOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "monitor",
		Short: "Record screen-on and unlock events",
		Long: `Run the screen-state monitor in the foreground.

Each line of the feed names one event, optionally preceded by an RFC 3339
timestamp:

  screen_on
  2026-01-02T08:00:00Z user_present

Events are recorded to the database and, when configured, appended to a
CBOR journal. The monitor stops at end of input or on Ctrl-C.

Examples:
  timerapp monitor --input /var/run/screen.log
  some-watcher | timerapp monitor --input -
  timerapp monitor --input - --journal ~/.timerapp/screen.cbor`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMonitor(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "screen event feed (file path or - for stdin)")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "CBOR journal path (overrides config)")

	return cmd
}

func runMonitor(opts *MonitorOptions, cmd *cobra.Command) error {
	cfg, formatter, err := prepare(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.Journal != "" {
		cfg.Monitor.Journal = opts.Journal
	}

	source := opts.Input
	if source == "" {
		source = cfg.Monitor.Source
	}
	if source == "" {
		return NewExitError(ExitCommandError, "no screen event feed: use --input or set monitor.source")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	svc, cleanup, err := startMonitor(ctx, cfg, st, source, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	waitErr := svc.Wait()
	cleanup()

	if waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return WrapExitError(ExitFailure, "screen monitor failed", waitErr)
	}

	return formatter.Success(MonitorResult{
		Source:   source,
		Journal:  cfg.Monitor.Journal,
		Recorded: svc.Recorded(),
	})
}
