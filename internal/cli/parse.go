package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/shrk/timerapp/internal/countdown"
)

// ParseResult shows how raw input is interpreted.
type ParseResult struct {
	Raw          string `json:"raw"`
	Input        string `json:"input"`
	TotalSeconds int    `json:"total_seconds"`
	Display      string `json:"display"`
}

// Text renders the result for the terminal.
func (r ParseResult) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "input:   %q\n", r.Input)
	fmt.Fprintf(&b, "seconds: %d\n", r.TotalSeconds)
	fmt.Fprintf(&b, "display: %s\n", r.Display)
	return b.String()
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <input>",
		Short: "Show how a typed duration is interpreted",
		Long: `Sanitize and parse a duration the way the timer does.

The last two digits are seconds and the rest are minutes. Non-digits are
dropped, at most four digits are kept and leading zeros are stripped.

Examples:
  timerapp parse 0130      # 90 seconds, "1m 30s"
  timerapp parse 5
  timerapp parse 12:34 --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return f.Success(parseInput(args[0]))
		},
	}
	return cmd
}

func parseInput(raw string) ParseResult {
	input := countdown.SanitizeInput(raw)
	seconds := countdown.ParseTime(input)

	display := countdown.Placeholder
	if seconds > 0 {
		display = countdown.FormatDuration(seconds)
	}
	return ParseResult{
		Raw:          raw,
		Input:        input,
		TotalSeconds: seconds,
		Display:      display,
	}
}
