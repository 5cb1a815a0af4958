package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shrk/timerapp/internal/config"
)

// ConfigOptions holds flags for the config command.
type ConfigOptions struct {
	*RootOptions
	Write bool
}

// ConfigResult is the effective configuration.
type ConfigResult struct {
	Path    string         `json:"path"`
	Written bool           `json:"written"`
	Config  *config.Config `json:"config"`
}

// Text renders the configuration as YAML.
func (r ConfigResult) Text() string {
	data, err := yaml.Marshal(r.Config)
	if err != nil {
		return fmt.Sprintf("error: %v\n", err)
	}
	if r.Written {
		return string(data) + fmt.Sprintf("Wrote %s\n", r.Path)
	}
	return string(data)
}

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or write the effective configuration",
		Long: `Print the configuration timerapp runs with: the config file merged over
the defaults, with --db applied.

--write saves it back to the --config path, which creates a starter file
on first use.

Examples:
  timerapp config
  timerapp config --write
  timerapp config --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfig(opts, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Write, "write", false, "save the effective configuration to --config")

	return cmd
}

func runConfig(opts *ConfigOptions, cmd *cobra.Command) error {
	cfg, formatter, err := prepare(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	path := opts.ConfigPath
	if path == "" {
		path = config.DefaultPath()
	}

	result := ConfigResult{Path: path, Config: cfg}
	if opts.Write {
		if err := config.Save(path, cfg); err != nil {
			return WrapExitError(ExitCommandError, "failed to write config", err)
		}
		result.Written = true
	}
	return formatter.Success(result)
}
