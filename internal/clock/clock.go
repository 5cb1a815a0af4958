// Package clock abstracts wall time and one-shot timers so the countdown
// engine can be driven by a fake clock in tests.
package clock

import "time"

// Timer is a scheduled callback that can be cancelled.
type Timer interface {
	// Stop prevents the callback from firing. Returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Clock provides the host scheduling primitive.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// System is the Clock backed by the standard library.
var System Clock = systemClock{}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
