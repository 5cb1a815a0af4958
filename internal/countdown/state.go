package countdown

import (
	"time"
)

// Display texts shown by hosts for states that have no duration to render.
const (
	// ExpiredText replaces the countdown once it reaches zero.
	ExpiredText = "Time's up!"

	// Placeholder is shown while there is no duration to display.
	Placeholder = "Enter time"
)

// Status is the countdown lifecycle position.
type Status int

const (
	StatusIdle Status = iota
	StatusRunning
	StatusPaused
	StatusExpired
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusRunning:
		return "running"
	case StatusPaused:
		return "paused"
	case StatusExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// MarshalText encodes the status by name for JSON and YAML output.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is the countdown timer state.
//
// INVARIANTS:
//   - RemainingMillis is only written while Status != StatusRunning
//   - StartedAt is non-zero exactly when Status == StatusRunning
//   - RemainingMillis >= 0
type State struct {
	// Input is the sanitized RawInput the duration was parsed from.
	Input string `json:"input"`

	// TotalSeconds is the parsed target duration.
	TotalSeconds int `json:"total_seconds"`

	// RemainingMillis is the committed time left; authoritative when paused.
	RemainingMillis int64 `json:"remaining_ms"`

	Status Status `json:"status"`

	// StartedAt is when the current running period began.
	StartedAt time.Time `json:"started_at,omitzero"`
}

// New returns an Idle state with no duration.
func New() *State {
	return &State{Status: StatusIdle}
}

// SetInput applies a user edit of the raw input.
//
// The input is sanitized and parsed, the state returns to Idle, and any
// remainder left by a pause is discarded. A fresh RemainingMillis is only
// derived on the next Start. Edits are refused while running.
//
// Returns the display text for the new duration ("" when it is zero).
func (s *State) SetInput(raw string) (string, error) {
	if s.Status == StatusRunning {
		return "", newTransitionError(ErrCodeInputLocked, s.Status, "input is locked while the countdown runs")
	}

	s.Input = SanitizeInput(raw)
	s.TotalSeconds = ParseTime(s.Input)
	s.RemainingMillis = 0
	s.Status = StatusIdle
	s.StartedAt = time.Time{}

	return s.Display(), nil
}

// Start enters Running, either fresh from Idle or resuming from Paused.
//
// From Idle the remaining time is reset to TotalSeconds. From Paused the
// committed remainder is kept. A start with nothing to count is rejected and
// leaves the state unchanged.
func (s *State) Start(now time.Time) error {
	switch s.Status {
	case StatusRunning:
		return newTransitionError(ErrCodeAlreadyRunning, s.Status, "countdown is already running")

	case StatusExpired:
		return newTransitionError(ErrCodeExpired, s.Status, "countdown expired; enter a new time or reset")

	case StatusIdle:
		if s.TotalSeconds <= 0 {
			return newTransitionError(ErrCodeZeroDuration, s.Status, "no duration entered")
		}
		s.RemainingMillis = int64(s.TotalSeconds) * 1000

	case StatusPaused:
		if s.RemainingMillis <= 0 {
			return newTransitionError(ErrCodeZeroDuration, s.Status, "no time remaining")
		}
	}

	s.Status = StatusRunning
	s.StartedAt = now
	return nil
}

// Pause commits the elapsed time and enters Paused.
//
// Pause is a no-op unless the countdown is running, so repeated pauses
// leave RemainingMillis untouched. Returns true if the state changed.
func (s *State) Pause(now time.Time) bool {
	if s.Status != StatusRunning {
		return false
	}

	s.RemainingMillis -= elapsedMillis(s.StartedAt, now)
	if s.RemainingMillis < 0 {
		s.RemainingMillis = 0
	}
	s.Status = StatusPaused
	s.StartedAt = time.Time{}
	return true
}

// Remaining returns the time left at now without mutating the state.
func (s *State) Remaining(now time.Time) time.Duration {
	ms := s.RemainingMillis
	if s.Status == StatusRunning {
		ms -= elapsedMillis(s.StartedAt, now)
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

// Tick derives the display value for now. due reports that the computed
// remaining time has reached zero and the caller should Expire.
//
// Tick never transitions and never writes committed state.
func (s *State) Tick(now time.Time) (display string, due bool) {
	if s.Status != StatusRunning {
		return s.Display(), false
	}

	ms := s.RemainingMillis - elapsedMillis(s.StartedAt, now)
	if ms <= 0 {
		return FormatDuration(0), true
	}
	return FormatDuration(int(ms / 1000)), false
}

// Expire moves a running countdown to Expired and zeroes the remainder.
// Returns false when the countdown was not running.
func (s *State) Expire() bool {
	if s.Status != StatusRunning {
		return false
	}
	s.Status = StatusExpired
	s.RemainingMillis = 0
	s.StartedAt = time.Time{}
	return true
}

// Reset returns a Paused or Expired countdown to Idle with the same
// duration, so the next Start counts the full TotalSeconds again.
// Returns false when there was nothing to reset.
func (s *State) Reset() bool {
	if s.Status != StatusPaused && s.Status != StatusExpired {
		return false
	}
	s.Status = StatusIdle
	s.RemainingMillis = 0
	s.StartedAt = time.Time{}
	return true
}

// Display returns the text for the committed state.
// Running states should use Tick, which accounts for elapsed time.
func (s *State) Display() string {
	switch s.Status {
	case StatusExpired:
		return ExpiredText
	case StatusPaused, StatusRunning:
		return FormatDuration(int(s.RemainingMillis / 1000))
	default:
		if s.TotalSeconds > 0 {
			return FormatDuration(s.TotalSeconds)
		}
		return ""
	}
}

// elapsedMillis is now - start in milliseconds, never negative.
func elapsedMillis(start, now time.Time) int64 {
	d := now.Sub(start).Milliseconds()
	if d < 0 {
		return 0
	}
	return d
}
