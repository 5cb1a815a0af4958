// Package testutil provides deterministic collaborators for tests.
package testutil

import (
	"sort"
	"sync"
	"time"

	"github.com/shrk/timerapp/internal/clock"
)

// Epoch is the default start time of a FakeClock.
var Epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// FakeClock is a manually advanced clock.Clock.
//
// Time only moves when Advance or Set is called. Timers created with
// AfterFunc fire synchronously inside Advance, in deadline order, with Now
// reporting each timer's deadline while its callback runs. Callbacks may
// schedule further timers; those fire within the same Advance if due.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
// Callbacks run without the mutex held.
type FakeClock struct {
	mu     sync.Mutex
	now    time.Time
	timers []*fakeTimer
	nextID int64
}

type fakeTimer struct {
	clock    *FakeClock
	id       int64
	deadline time.Time
	f        func()
	done     bool
}

// NewFakeClock creates a fake clock positioned at Epoch.
func NewFakeClock() *FakeClock {
	return NewFakeClockAt(Epoch)
}

// NewFakeClockAt creates a fake clock positioned at start.
func NewFakeClockAt(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// AfterFunc schedules f to run once the clock has advanced by d.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	t := &fakeTimer{
		clock:    c,
		id:       c.nextID,
		deadline: c.now.Add(d),
		f:        f,
	}
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, firing every timer that comes due.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()

	for {
		t := c.popDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	c.mu.Lock()
	c.now = target
	c.mu.Unlock()
}

// Pending returns the number of timers that have not fired or been stopped.
func (c *FakeClock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Next returns the earliest pending deadline.
func (c *FakeClock) Next() (time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.timers) == 0 {
		return time.Time{}, false
	}
	next := c.timers[0].deadline
	for _, t := range c.timers[1:] {
		if t.deadline.Before(next) {
			next = t.deadline
		}
	}
	return next, true
}

// popDue removes the earliest timer due at or before target and moves the
// clock to its deadline. Ties fire in creation order.
func (c *FakeClock) popDue(target time.Time) *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.timers) == 0 {
		return nil
	}

	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].id < c.timers[j].id
		}
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})

	t := c.timers[0]
	if t.deadline.After(target) {
		return nil
	}

	c.timers = c.timers[1:]
	t.done = true
	if t.deadline.After(c.now) {
		c.now = t.deadline
	}
	return t
}

// Stop cancels the timer.
func (t *fakeTimer) Stop() bool {
	c := t.clock
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	for i, other := range c.timers {
		if other == t {
			c.timers = append(c.timers[:i], c.timers[i+1:]...)
			break
		}
	}
	return true
}
