package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shrk/timerapp/internal/alert"
	"github.com/shrk/timerapp/internal/clock"
	"github.com/shrk/timerapp/internal/config"
	"github.com/shrk/timerapp/internal/countdown"
	"github.com/shrk/timerapp/internal/engine"
	"github.com/shrk/timerapp/internal/monitor"
	"github.com/shrk/timerapp/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ScreenEvents   string // monitor feed, overrides monitor.source
	Sound          string // overrides alert.sound
	SkipOnboarding bool

	// Input replaces the terminal (for testing).
	Input io.Reader

	// Clock replaces the system clock (for testing).
	Clock clock.Clock
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the interactive countdown timer",
		Long: `Run the countdown timer in the terminal.

Type up to four digits to set the time (the last two are seconds, the
rest minutes). Then:

  Enter or s   start, pause or resume
  p            pause
  r            reset to the full duration
  q            quit

The first launch walks through onboarding before the timer starts.

Examples:
  timerapp run
  timerapp run --sound bell
  timerapp run --screen-events /var/run/screen.log`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTimer(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ScreenEvents, "screen-events", "", "screen event feed to monitor (file path)")
	cmd.Flags().StringVar(&opts.Sound, "sound", "", "alert sound (tone|bell|none)")
	cmd.Flags().BoolVar(&opts.SkipOnboarding, "skip-onboarding", false, "do not run first-launch onboarding")

	return cmd
}

func runTimer(opts *RunOptions, cmd *cobra.Command) error {
	cfg, _, err := prepare(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	if opts.Sound != "" {
		cfg.Alert.Sound = opts.Sound
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

	con, err := newConsole(opts.Input, cmd.OutOrStdout())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open terminal", err)
	}
	defer con.Close()
	out := con.Stdout()

	if !opts.SkipOnboarding {
		first, err := st.IsFirstLaunch(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read first launch flag", err)
		}
		if first {
			if err := runOnboarding(ctx, con, st); err != nil {
				if errors.Is(err, errOnboardingAborted) {
					return NewExitError(ExitFailure, "onboarding aborted")
				}
				return WrapExitError(ExitFailure, "onboarding failed", err)
			}
		}
	}

	feed := opts.ScreenEvents
	if feed == "" && cfg.Monitor.Enabled {
		feed = cfg.Monitor.Source
	}
	if feed == "-" {
		return NewExitError(ExitCommandError, "run reads the terminal from stdin; give the screen event feed as a file")
	}
	if feed != "" {
		svc, cleanup, err := startMonitor(ctx, cfg, st, feed, out)
		if err != nil {
			return err
		}
		defer func() {
			if err := svc.Stop(); err != nil {
				slog.Warn("screen monitor stopped with error", "error", err)
			}
			cleanup()
		}()
	}

	player, err := alert.New(cfg.AlertOptions(), out)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid alert sound", err)
	}

	clk := opts.Clock
	if clk == nil {
		clk = clock.System
	}

	eng := engine.New(clk,
		engine.WithTickInterval(cfg.TickInterval()),
		engine.WithPlayer(player),
		engine.WithListener(consoleListener(con)),
	)

	runErr := make(chan error, 1)
	go func() {
		runErr <- eng.Run(ctx)
	}()

	fmt.Fprintln(out, "Enter time (digits), Enter to start or pause, r to reset, q to quit.")
	readTimerCommands(ctx, con, eng)

	eng.Stop()
	if err := <-runErr; err != nil && !errors.Is(err, context.Canceled) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	slog.Info("timer stopped", "status", eng.Snapshot().Status)
	return nil
}

// readTimerCommands feeds console lines to the engine until q, end of
// input or cancellation.
func readTimerCommands(ctx context.Context, con console, eng *engine.Engine) {
	lines := make(chan string)
	go func() {
		defer close(lines)
		for {
			line, err := con.Readline()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Debug("input closed", "error", err)
				}
				return
			}
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if !dispatchTimerCommand(eng, strings.TrimSpace(line)) {
				return
			}
		}
	}
}

// dispatchTimerCommand applies one input line. Returns false on quit.
func dispatchTimerCommand(eng *engine.Engine, line string) bool {
	switch strings.ToLower(line) {
	case "q", "quit", "exit":
		return false
	case "", "s":
		// On an expired countdown Enter silences the alarm and rearms the
		// full duration; the next Enter starts it.
		if eng.Snapshot().Status == countdown.StatusExpired {
			eng.Reset()
			return true
		}
		eng.Toggle()
	case "p":
		eng.Pause()
	case "r":
		eng.Reset()
	default:
		eng.Input(line)
	}
	return true
}

// consoleListener shows engine output on the console.
func consoleListener(con console) engine.Listener {
	out := con.Stdout()
	return engine.ListenerFuncs{
		Display: con.Show,
		Status: func(status countdown.Status) {
			slog.Debug("countdown status", "status", status)
		},
		Expire: func() {
			fmt.Fprintln(out, "Press Enter to stop the alarm.")
		},
		Rejected: func(err error) {
			fmt.Fprintln(out, rejectionHint(err))
		},
	}
}

// rejectionHint turns a refused action into a short user message.
func rejectionHint(err error) string {
	var te *countdown.TransitionError
	if !errors.As(err, &te) {
		return err.Error()
	}
	switch te.Code {
	case countdown.ErrCodeZeroDuration:
		return countdown.Placeholder
	case countdown.ErrCodeInputLocked:
		return "Pause the timer to change the time."
	case countdown.ErrCodeExpired:
		return "Time is up. Enter a new time or press r."
	default:
		return te.Message
	}
}

// startMonitor starts a screen monitor reading path. The cleanup function
// closes the feed and journal and must run after the service stops.
func startMonitor(ctx context.Context, cfg *config.Config, st *store.Store, path string, out io.Writer) (*monitor.Service, func(), error) {
	var (
		in      io.Reader
		closers []io.Closer
	)
	if path == "-" {
		in = os.Stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, WrapExitError(ExitCommandError, "failed to open screen event feed", err)
		}
		in = f
		closers = append(closers, f)
	}

	svcOpts := []monitor.Option{
		monitor.WithRecorder(monitor.NewStoreRecorder(st)),
	}

	if cfg.Monitor.Journal != "" {
		j, err := monitor.OpenJournal(cfg.Monitor.Journal)
		if err != nil {
			closeAll(closers)
			return nil, nil, WrapExitError(ExitCommandError, "failed to open journal", err)
		}
		svcOpts = append(svcOpts, monitor.WithRecorder(j))
		closers = append(closers, j)
	}

	granted, err := st.GetBool(ctx, store.KeyNotificationsGranted, false)
	if err != nil {
		slog.Warn("failed to read notification permission", "error", err)
	}
	if granted {
		svcOpts = append(svcOpts, monitor.WithNotifier(monitor.WriterNotifier{W: out}))
	}

	svc := monitor.NewService(monitor.NewLineSource(in), svcOpts...)
	if err := svc.Start(ctx); err != nil {
		closeAll(closers)
		return nil, nil, WrapExitError(ExitFailure, "failed to start screen monitor", err)
	}
	return svc, func() { closeAll(closers) }, nil
}

func closeAll(closers []io.Closer) {
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i].Close(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}
