// Package countdown implements the countdown timer state machine.
//
// A State moves through four statuses:
//
//	Idle → Running → {Paused ⇄ Running, Expired}
//
// Expired is terminal until new input (or Reset) returns the state to Idle.
//
// Time is always passed in by the caller. State never reads a clock and never
// schedules anything, which keeps every transition deterministic. The engine
// package owns the clock, the tick source and the serial event loop that calls
// into State.
//
// RemainingMillis is committed only when the countdown is not running. While
// Running the remaining time is derived as RemainingMillis - (now - StartedAt),
// so ticks never mutate committed state.
package countdown
