package harness

import (
	"fmt"
	"strings"
	"time"

	"github.com/shrk/timerapp/internal/countdown"
)

// Trace event kinds.
const (
	TraceStep     = "step"
	TraceStatus   = "status"
	TraceDisplay  = "display"
	TraceExpire   = "expire"
	TraceRejected = "rejected"
	TraceAlert    = "alert"
)

// TraceEvent is one line of a scenario trace.
type TraceEvent struct {
	// At is the fake time elapsed since the scenario began.
	At     time.Duration `json:"at"`
	Kind   string        `json:"kind"`
	Detail string        `json:"detail,omitempty"`
}

// String renders the event as "t=1.500s kind detail".
func (e TraceEvent) String() string {
	line := elapsed(e.At) + " " + e.Kind
	if e.Detail != "" {
		line += " " + e.Detail
	}
	return line
}

func elapsed(d time.Duration) string {
	ms := d.Milliseconds()
	return fmt.Sprintf("t=%d.%03ds", ms/1000, ms%1000)
}

// FormatTrace renders a trace with a scenario header, one event per line.
func FormatTrace(name string, trace []TraceEvent) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", name)
	for _, ev := range trace {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect step matched.
	Pass bool `json:"pass"`

	// Trace lists steps and engine output in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation failures. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the countdown state after the last step.
	Final countdown.State `json:"final"`

	// Alerts is how many times the alert started playing.
	Alerts int `json:"alerts"`

	// Rejected is how many user actions were refused.
	Rejected int `json:"rejected"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
