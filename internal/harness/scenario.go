package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of user actions, clock advances and
// expectations.
type Scenario struct {
	// Name uniquely identifies this scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// TickIntervalMS overrides the engine's display refresh period.
	TickIntervalMS int `yaml:"tick_interval_ms,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is one scenario line. Exactly one field is set.
type Step struct {
	Input   *string `yaml:"input,omitempty"`
	Do      string  `yaml:"do,omitempty"`
	Advance string  `yaml:"advance,omitempty"`
	Expect  *Expect `yaml:"expect,omitempty"`
}

// Expect checks the engine after the preceding steps.
// Unset fields are not checked.
type Expect struct {
	Status      string  `yaml:"status,omitempty"`
	RemainingMS *int64  `yaml:"remaining_ms,omitempty"`
	Display     *string `yaml:"display,omitempty"`

	// Alerts is the number of times the alert started playing.
	Alerts *int `yaml:"alerts,omitempty"`

	// Playing reports whether the alert is sounding right now.
	Playing *bool `yaml:"playing,omitempty"`

	// Rejected is the number of refused user actions so far.
	Rejected *int `yaml:"rejected,omitempty"`
}

// Actions accepted by Step.Do.
const (
	DoStart  = "start"
	DoPause  = "pause"
	DoToggle = "toggle"
	DoReset  = "reset"
)

var validStatuses = map[string]bool{
	"idle":    true,
	"running": true,
	"paused":  true,
	"expired": true,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "expects:" vs "expect:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario directory: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			paths = append(paths, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.TickIntervalMS < 0 {
		return fmt.Errorf("tick_interval_ms must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	if step.Input != nil {
		set++
	}
	if step.Do != "" {
		set++
	}
	if step.Advance != "" {
		set++
	}
	if step.Expect != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of input, do, advance, expect is required", index)
	}

	switch {
	case step.Do != "":
		switch step.Do {
		case DoStart, DoPause, DoToggle, DoReset:
		default:
			return fmt.Errorf("steps[%d]: unknown action %q", index, step.Do)
		}

	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return fmt.Errorf("steps[%d]: advance: %w", index, err)
		}
		if d < 0 {
			return fmt.Errorf("steps[%d]: advance must be non-negative", index)
		}

	case step.Expect != nil:
		e := step.Expect
		if e.Status == "" && e.RemainingMS == nil && e.Display == nil &&
			e.Alerts == nil && e.Playing == nil && e.Rejected == nil {
			return fmt.Errorf("steps[%d]: expect must check at least one field", index)
		}
		if e.Status != "" && !validStatuses[e.Status] {
			return fmt.Errorf("steps[%d]: unknown status %q", index, e.Status)
		}
	}
	return nil
}
