package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shrk/timerapp/internal/config"
	"github.com/shrk/timerapp/internal/monitor"
)

// EventsOptions holds flags for the events command.
type EventsOptions struct {
	*RootOptions
	Limit  int
	Kind    string
	Export  string
	Journal string // read this CBOR journal instead of the database
}

// EventsResult lists recorded screen events.
type EventsResult struct {
	Events   []monitor.Event `json:"events"`
	Exported string          `json:"exported,omitempty"`
}

// Text renders the events as a table.
func (r EventsResult) Text() string {
	var b strings.Builder
	if len(r.Events) == 0 {
		b.WriteString("No screen events recorded.\n")
	} else {
		fmt.Fprintf(&b, "%-6s %-7s %-24s %s\n", "SEQ", "EVENT", "TIME", "ID")
		for _, ev := range r.Events {
			fmt.Fprintf(&b, "%-6d %-7s %-24s %s\n",
				ev.Seq, ev.Kind.Label(), ev.At.UTC().Format(time.RFC3339), ev.ID)
		}
	}
	if r.Exported != "" {
		fmt.Fprintf(&b, "Exported %d event(s) to %s\n", len(r.Events), r.Exported)
	}
	return b.String()
}

// NewEventsCommand creates the events command.
func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List recorded screen events",
		Long: `List the screen-on and unlock events recorded by the monitor, oldest
first.

Examples:
  timerapp events
  timerapp events --limit 20 --kind unlock
  timerapp events --export screen.cbor
  timerapp events --journal ~/.timerapp/screen.cbor`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvents(opts, cmd)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the most recent N events (0 = all)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "only events of this kind (screen_on|user_present)")
	cmd.Flags().StringVar(&opts.Export, "export", "", "write the listed events to a CBOR journal file")
	cmd.Flags().StringVar(&opts.Journal, "journal", "", "list events from a CBOR journal instead of the database")

	return cmd
}

func runEvents(opts *EventsOptions, cmd *cobra.Command) error {
	cfg, formatter, err := prepare(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	var kind monitor.Kind
	if opts.Kind != "" {
		kind, err = monitor.ParseKind(opts.Kind)
		if err != nil {
			return WrapExitError(ExitCommandError, "invalid --kind", err)
		}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	all, err := loadEvents(ctx, opts, cfg)
	if err != nil {
		return err
	}

	events := make([]monitor.Event, 0, len(all))
	for _, ev := range all {
		if kind != "" && ev.Kind != kind {
			continue
		}
		events = append(events, ev)
	}
	if opts.Limit > 0 && len(events) > opts.Limit {
		events = events[len(events)-opts.Limit:]
	}

	result := EventsResult{Events: events}
	if opts.Export != "" {
		if err := exportEvents(ctx, opts.Export, events); err != nil {
			return WrapExitError(ExitFailure, "failed to export screen events", err)
		}
		result.Exported = opts.Export
	}

	return formatter.Success(result)
}

// loadEvents reads every recorded event, oldest first, from the journal
// when one is given and from the database otherwise.
func loadEvents(ctx context.Context, opts *EventsOptions, cfg *config.Config) ([]monitor.Event, error) {
	if opts.Journal != "" {
		events, err := monitor.ReadJournalFile(opts.Journal)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "failed to read journal", err)
		}
		return events, nil
	}

	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	defer closeStore(st)

	stored, err := st.ReadScreenEvents(ctx, 0)
	if err != nil {
		return nil, WrapExitError(ExitFailure, "failed to read screen events", err)
	}
	events := make([]monitor.Event, 0, len(stored))
	for _, se := range stored {
		events = append(events, monitor.FromScreenEvent(se))
	}
	return events, nil
}

// exportEvents writes events to a fresh CBOR journal.
func exportEvents(ctx context.Context, path string, events []monitor.Event) error {
	j, err := monitor.CreateJournal(path)
	if err != nil {
		return err
	}
	for _, ev := range events {
		if err := j.Record(ctx, ev); err != nil {
			j.Close()
			return err
		}
	}
	return j.Close()
}
