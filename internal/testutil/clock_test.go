package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrk/timerapp/internal/clock"
)

var _ clock.Clock = (*FakeClock)(nil)

func TestFakeClock_StartsAtEpoch(t *testing.T) {
	c := NewFakeClock()
	assert.Equal(t, Epoch, c.Now())
}

func TestFakeClock_AdvanceMovesTime(t *testing.T) {
	c := NewFakeClock()
	c.Advance(90 * time.Second)
	assert.Equal(t, Epoch.Add(90*time.Second), c.Now())
}

func TestFakeClock_FiresInDeadlineOrder(t *testing.T) {
	c := NewFakeClock()
	var fired []string
	var at []time.Duration

	record := func(name string) func() {
		return func() {
			fired = append(fired, name)
			at = append(at, c.Now().Sub(Epoch))
		}
	}

	c.AfterFunc(3*time.Second, record("c"))
	c.AfterFunc(1*time.Second, record("a"))
	c.AfterFunc(2*time.Second, record("b1"))
	c.AfterFunc(2*time.Second, record("b2"))

	c.Advance(5 * time.Second)

	assert.Equal(t, []string{"a", "b1", "b2", "c"}, fired)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 2 * time.Second, 3 * time.Second}, at)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeClock_DoesNotFireEarly(t *testing.T) {
	c := NewFakeClock()
	fired := false
	c.AfterFunc(time.Second, func() { fired = true })

	c.Advance(999 * time.Millisecond)
	assert.False(t, fired)

	c.Advance(time.Millisecond)
	assert.True(t, fired)
}

func TestFakeClock_Stop(t *testing.T) {
	c := NewFakeClock()
	fired := false
	timer := c.AfterFunc(time.Second, func() { fired = true })

	require.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	c.Advance(time.Minute)
	assert.False(t, fired)
	assert.Equal(t, 0, c.Pending())
}

func TestFakeClock_StopAfterFire(t *testing.T) {
	c := NewFakeClock()
	timer := c.AfterFunc(time.Second, func() {})
	c.Advance(time.Second)
	assert.False(t, timer.Stop())
}

func TestFakeClock_RearmingCallbackFiresWithinAdvance(t *testing.T) {
	c := NewFakeClock()
	count := 0

	var tick func()
	tick = func() {
		count++
		c.AfterFunc(time.Second, tick)
	}
	c.AfterFunc(time.Second, tick)

	c.Advance(5 * time.Second)
	assert.Equal(t, 5, count)
	assert.Equal(t, 1, c.Pending())
}

func TestFakeClock_Next(t *testing.T) {
	c := NewFakeClock()
	_, ok := c.Next()
	assert.False(t, ok)

	c.AfterFunc(5*time.Second, func() {})
	second := c.AfterFunc(2*time.Second, func() {})

	next, ok := c.Next()
	require.True(t, ok)
	assert.Equal(t, Epoch.Add(2*time.Second), next)

	second.Stop()
	next, ok = c.Next()
	require.True(t, ok)
	assert.Equal(t, Epoch.Add(5*time.Second), next)
}
