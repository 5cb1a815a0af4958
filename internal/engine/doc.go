// Package engine runs the countdown timer as a single-writer event loop.
//
// ARCHITECTURE:
//
// The engine owns exactly one countdown.State. Every transition happens in
// the goroutine that calls Run, one event at a time:
//
//  1. User actions (input, toggle, start, pause, reset) are enqueued by the host.
//  2. Clock callbacks (tick, expiry) only enqueue events; they never touch state.
//  3. Run dequeues events in FIFO order and applies them to the state.
//  4. Results are reported to a Listener and the alert Player.
//
// Tick source:
// At most one tick timer and one expiry timer exist per engine. Starting or
// resuming cancels both before arming new ones. Each running period gets a
// fresh run ID; tick and expiry events carry the ID they were armed for, and
// events from an earlier run are dropped. This covers callbacks that were
// already queued when their timer was cancelled.
//
// Ticks are display-only. Committed remaining time changes only on pause
// and expiry.
package engine
