// Package config loads timerapp settings from a YAML file.
//
// Missing files yield DefaultConfig. Present files are decoded over the
// defaults (unknown keys are rejected) and then checked against the
// embedded CUE schema.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/shrk/timerapp/internal/alert"
)

//go:embed schema.cue
var schemaSource string

// DirName is the per-user settings directory under $HOME.
const DirName = ".timerapp"

// Config is the full settings file.
type Config struct {
	Database string        `yaml:"database" json:"database"`
	Timer    TimerConfig   `yaml:"timer" json:"timer"`
	Alert    AlertConfig   `yaml:"alert" json:"alert"`
	Monitor  MonitorConfig `yaml:"monitor" json:"monitor"`
	Log      LogConfig     `yaml:"log" json:"log"`
}

type TimerConfig struct {
	TickIntervalMS int `yaml:"tick_interval_ms" json:"tick_interval_ms"`
}

type AlertConfig struct {
	Sound       string  `yaml:"sound" json:"sound"`
	FrequencyHz float64 `yaml:"frequency_hz" json:"frequency_hz"`
	Volume      float64 `yaml:"volume" json:"volume"`
}

type MonitorConfig struct {
	// Enabled starts the screen monitor together with the timer.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// Source is the screen event feed, a file path or "-" for stdin.
	Source string `yaml:"source" json:"source"`

	// Journal is an optional CBOR journal path.
	Journal string `yaml:"journal" json:"journal"`
}

type LogConfig struct {
	Level string `yaml:"level" json:"level"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	return &Config{
		Database: filepath.Join(defaultDir(), "timerapp.db"),
		Timer: TimerConfig{
			TickIntervalMS: 1000,
		},
		Alert: AlertConfig{
			Sound:       alert.SoundTone,
			FrequencyHz: 880,
			Volume:      0.5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns ~/.timerapp/config.yaml.
func DefaultPath() string {
	return filepath.Join(defaultDir(), "config.yaml")
}

func defaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DirName
	}
	return filepath.Join(home, DirName)
}

// Load reads the config at path. A missing file returns DefaultConfig.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Debug("config file not found, using defaults", "path", path)
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses YAML over the defaults and validates the result.
func Decode(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path, creating the parent directory.
func Save(path string, cfg *Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// ValidationError reports a config that does not satisfy the schema.
type ValidationError struct {
	Details string
	Err     error
}

func (e *ValidationError) Error() string {
	return "invalid config: " + e.Details
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Validate checks cfg against the #Config schema.
func Validate(cfg *Config) error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def.Unify(ctx.Encode(cfg))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return &ValidationError{
			Details: cueerrors.Details(err, nil),
			Err:     err,
		}
	}
	return nil
}

// TickInterval returns the display refresh period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.Timer.TickIntervalMS) * time.Millisecond
}

// AlertOptions converts the alert section for alert.New.
func (c *Config) AlertOptions() alert.Options {
	return alert.Options{
		Sound:       c.Alert.Sound,
		FrequencyHz: c.Alert.FrequencyHz,
		Volume:      c.Alert.Volume,
	}
}

// SlogLevel maps log.level to a slog level. Unknown names map to Info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}
