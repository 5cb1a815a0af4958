package countdown

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func newWithInput(t *testing.T, raw string) *State {
	t.Helper()
	s := New()
	_, err := s.SetInput(raw)
	require.NoError(t, err)
	return s
}

func TestState_NewIsIdle(t *testing.T) {
	s := New()
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, "", s.Display())
}

func TestState_SetInput(t *testing.T) {
	s := New()
	display, err := s.SetInput("0130")
	require.NoError(t, err)

	assert.Equal(t, "130", s.Input)
	assert.Equal(t, 90, s.TotalSeconds)
	assert.Equal(t, "1m 30s", display)
	assert.Equal(t, StatusIdle, s.Status)
}

func TestState_SetInput_ZeroDisplaysEmpty(t *testing.T) {
	s := New()
	display, err := s.SetInput("00")
	require.NoError(t, err)
	assert.Equal(t, "", display)
	assert.Equal(t, 0, s.TotalSeconds)
}

func TestState_SetInput_LockedWhileRunning(t *testing.T) {
	s := newWithInput(t, "10")
	require.NoError(t, s.Start(t0))

	_, err := s.SetInput("20")
	require.Error(t, err)
	assert.True(t, IsInputLocked(err))
	assert.Equal(t, 10, s.TotalSeconds)
	assert.Equal(t, StatusRunning, s.Status)
}

func TestState_SetInput_CancelsPausedRemainder(t *testing.T) {
	s := newWithInput(t, "130")
	require.NoError(t, s.Start(t0))
	s.Pause(t0.Add(30 * time.Second))
	require.Equal(t, int64(60000), s.RemainingMillis)

	_, err := s.SetInput("45")
	require.NoError(t, err)
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, int64(0), s.RemainingMillis)

	require.NoError(t, s.Start(t0.Add(time.Minute)))
	assert.Equal(t, int64(45000), s.RemainingMillis)
}

func TestState_Start_ZeroDurationRejected(t *testing.T) {
	s := New()
	before := *s

	err := s.Start(t0)
	require.Error(t, err)
	assert.True(t, IsZeroDuration(err))
	assert.Equal(t, before, *s, "rejected start must not change state")
}

func TestState_Start_Fresh(t *testing.T) {
	s := newWithInput(t, "130")
	require.NoError(t, s.Start(t0))

	assert.Equal(t, StatusRunning, s.Status)
	assert.Equal(t, t0, s.StartedAt)
	assert.Equal(t, int64(90000), s.RemainingMillis)
}

func TestState_Start_AlreadyRunning(t *testing.T) {
	s := newWithInput(t, "10")
	require.NoError(t, s.Start(t0))

	err := s.Start(t0.Add(time.Second))
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeAlreadyRunning, te.Code)
	assert.Equal(t, t0, s.StartedAt)
}

func TestState_PauseResume(t *testing.T) {
	s := newWithInput(t, "130")
	require.NoError(t, s.Start(t0))

	assert.True(t, s.Pause(t0.Add(30*time.Second)))
	assert.Equal(t, StatusPaused, s.Status)
	assert.Equal(t, int64(60000), s.RemainingMillis)
	assert.True(t, s.StartedAt.IsZero())

	resumeAt := t0.Add(5 * time.Minute)
	require.NoError(t, s.Start(resumeAt))
	assert.Equal(t, int64(60000), s.RemainingMillis, "resume continues from the paused remainder")
	assert.Equal(t, 60*time.Second, s.Remaining(resumeAt))

	display, due := s.Tick(resumeAt.Add(10 * time.Second))
	assert.Equal(t, "50s", display)
	assert.False(t, due)
}

func TestState_Pause_Idempotent(t *testing.T) {
	s := newWithInput(t, "130")
	require.NoError(t, s.Start(t0))

	assert.True(t, s.Pause(t0.Add(30*time.Second)))
	once := s.RemainingMillis

	assert.False(t, s.Pause(t0.Add(45*time.Second)))
	assert.Equal(t, once, s.RemainingMillis)
	assert.Equal(t, StatusPaused, s.Status)
}

func TestState_Pause_NotRunningIsNoop(t *testing.T) {
	for _, status := range []Status{StatusIdle, StatusPaused, StatusExpired} {
		t.Run(status.String(), func(t *testing.T) {
			s := &State{Status: status, TotalSeconds: 10, RemainingMillis: 4000}
			before := *s
			assert.False(t, s.Pause(t0))
			assert.Equal(t, before, *s)
		})
	}
}

func TestState_StartThenImmediatePause(t *testing.T) {
	s := newWithInput(t, "130")
	require.NoError(t, s.Start(t0))
	s.Pause(t0)
	assert.Equal(t, int64(90000), s.RemainingMillis)
}

func TestState_Pause_FloorsAtZero(t *testing.T) {
	s := newWithInput(t, "5")
	require.NoError(t, s.Start(t0))
	s.Pause(t0.Add(time.Hour))
	assert.Equal(t, int64(0), s.RemainingMillis)

	err := s.Start(t0.Add(2 * time.Hour))
	assert.True(t, IsZeroDuration(err))
	assert.Equal(t, StatusPaused, s.Status)
}

func TestState_Pause_ClockBackwardsCountsAsZero(t *testing.T) {
	s := newWithInput(t, "10")
	require.NoError(t, s.Start(t0))
	s.Pause(t0.Add(-time.Second))
	assert.Equal(t, int64(10000), s.RemainingMillis)
}

func TestState_Tick(t *testing.T) {
	s := newWithInput(t, "130")
	require.NoError(t, s.Start(t0))

	tests := []struct {
		offset time.Duration
		want   string
		due    bool
	}{
		{0, "1m 30s", false},
		{500 * time.Millisecond, "1m 29s", false},
		{30 * time.Second, "1m 00s", false},
		{31 * time.Second, "59s", false},
		{89*time.Second + 999*time.Millisecond, "0s", false},
		{90 * time.Second, "0s", true},
		{95 * time.Second, "0s", true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.offset), func(t *testing.T) {
			display, due := s.Tick(t0.Add(tt.offset))
			assert.Equal(t, tt.want, display)
			assert.Equal(t, tt.due, due)
		})
	}

	assert.Equal(t, int64(90000), s.RemainingMillis, "ticks must not commit state")
	assert.Equal(t, StatusRunning, s.Status)
}

func TestState_Expire(t *testing.T) {
	s := newWithInput(t, "0130")
	require.NoError(t, s.Start(t0))

	_, due := s.Tick(t0.Add(90 * time.Second))
	require.True(t, due)
	assert.True(t, s.Expire())

	assert.Equal(t, StatusExpired, s.Status)
	assert.Equal(t, int64(0), s.RemainingMillis)
	assert.Equal(t, ExpiredText, s.Display())
	assert.False(t, s.Expire(), "expire is terminal")

	err := s.Start(t0.Add(100 * time.Second))
	var te *TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ErrCodeExpired, te.Code)
}

func TestState_ExpiredRestartsOnInput(t *testing.T) {
	s := newWithInput(t, "5")
	require.NoError(t, s.Start(t0))
	s.Expire()

	display, err := s.SetInput("5")
	require.NoError(t, err)
	assert.Equal(t, "5s", display)
	assert.Equal(t, StatusIdle, s.Status)
	require.NoError(t, s.Start(t0.Add(time.Minute)))
}

func TestState_Reset(t *testing.T) {
	s := newWithInput(t, "130")
	assert.False(t, s.Reset(), "idle has nothing to reset")

	require.NoError(t, s.Start(t0))
	assert.False(t, s.Reset(), "running cannot reset")

	s.Expire()
	assert.True(t, s.Reset())
	assert.Equal(t, StatusIdle, s.Status)
	assert.Equal(t, "1m 30s", s.Display())

	require.NoError(t, s.Start(t0.Add(time.Hour)))
	assert.Equal(t, int64(90000), s.RemainingMillis)
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "running", StatusRunning.String())
	assert.Equal(t, "paused", StatusPaused.String())
	assert.Equal(t, "expired", StatusExpired.String())
	assert.Equal(t, "unknown", Status(42).String())

	text, err := StatusPaused.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "paused", string(text))
}

func TestTransitionError_Message(t *testing.T) {
	err := newTransitionError(ErrCodeZeroDuration, StatusIdle, "no duration entered")
	assert.Equal(t, "ZERO_DURATION: no duration entered (status=idle)", err.Error())
	assert.True(t, IsZeroDuration(fmt.Errorf("start: %w", err)))
	assert.False(t, IsInputLocked(err))
}
