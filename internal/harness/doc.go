// Package harness runs scripted countdown scenarios against the engine.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: pause_resume
//	description: "Pausing commits the remainder and resuming continues from it"
//	tick_interval_ms: 1000   # optional
//	steps:
//	  - input: "0130"
//	  - do: start
//	  - advance: 30s
//	  - do: pause
//	  - expect:
//	      status: paused
//	      remaining_ms: 60000
//	      display: "1m 00s"
//
// Each step sets exactly one of:
//
//   - input: raw keystrokes for the duration field
//   - do: start, pause, toggle or reset
//   - advance: a Go duration to move the fake clock forward
//   - expect: checks against the engine state and counters
//
// # Deterministic Execution
//
// The engine runs without its Run goroutine. The harness drives a
// testutil.FakeClock one timer deadline at a time and drains the engine
// queue after every step and every fired timer, so traces are identical on
// every run and can be compared with golden files.
package harness
