package harness

import (
	"errors"
	"fmt"
	"time"

	"github.com/shrk/timerapp/internal/countdown"
	"github.com/shrk/timerapp/internal/engine"
	"github.com/shrk/timerapp/internal/testutil"
)

// runner executes one scenario. It is the engine's Listener and, through
// tracePlayer, its alert Player.
type runner struct {
	clock   *testutil.FakeClock
	engine  *engine.Engine
	start   time.Time
	result  *Result
	display string
	playing bool
}

// Run executes a scenario and returns the result.
//
// Each scenario gets its own fake clock and engine. Expectation failures
// are collected in the result; the error return is reserved for scenarios
// that cannot be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	if err := validateScenario(scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	clk := testutil.NewFakeClock()
	r := &runner{
		clock:  clk,
		start:  clk.Now(),
		result: NewResult(),
	}

	opts := []engine.Option{
		engine.WithListener(r),
		engine.WithPlayer(tracePlayer{r}),
		engine.WithRunIDGenerator(testutil.NewSequentialIDs("run")),
	}
	if scenario.TickIntervalMS > 0 {
		opts = append(opts, engine.WithTickInterval(time.Duration(scenario.TickIntervalMS)*time.Millisecond))
	}
	r.engine = engine.New(clk, opts...)
	defer r.engine.Stop()

	for i, step := range scenario.Steps {
		if err := r.execute(i, step); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	r.result.Final = r.engine.Snapshot()
	return r.result, nil
}

func (r *runner) execute(index int, step Step) error {
	switch {
	case step.Input != nil:
		r.trace(TraceStep, fmt.Sprintf("input %q", *step.Input))
		r.engine.Input(*step.Input)

	case step.Do != "":
		r.trace(TraceStep, step.Do)
		switch step.Do {
		case DoStart:
			r.engine.Start()
		case DoPause:
			r.engine.Pause()
		case DoToggle:
			r.engine.Toggle()
		case DoReset:
			r.engine.Reset()
		}

	case step.Advance != "":
		d, err := time.ParseDuration(step.Advance)
		if err != nil {
			return err
		}
		r.trace(TraceStep, "advance "+d.String())
		r.advance(d)
		return nil

	case step.Expect != nil:
		for _, err := range checkExpect(index, r.clock.Now().Sub(r.start), step.Expect, r.observe()) {
			r.result.AddError(err.Error())
		}
		return nil
	}

	r.engine.Drain()
	return nil
}

// advance moves the clock one timer deadline at a time, draining the engine
// after each so re-armed ticks are scheduled from the time they fired.
func (r *runner) advance(d time.Duration) {
	target := r.clock.Now().Add(d)
	for {
		next, ok := r.clock.Next()
		if !ok || next.After(target) {
			break
		}
		r.clock.Advance(next.Sub(r.clock.Now()))
		r.engine.Drain()
	}
	r.clock.Advance(target.Sub(r.clock.Now()))
	r.engine.Drain()
}

func (r *runner) observe() observed {
	snap := r.engine.Snapshot()
	return observed{
		status:      snap.Status.String(),
		remainingMS: snap.Remaining(r.clock.Now()).Milliseconds(),
		display:     r.display,
		alerts:      r.result.Alerts,
		playing:     r.playing,
		rejected:    r.result.Rejected,
	}
}

func (r *runner) trace(kind, detail string) {
	r.result.Trace = append(r.result.Trace, TraceEvent{
		At:     r.clock.Now().Sub(r.start),
		Kind:   kind,
		Detail: detail,
	})
}

func (r *runner) OnDisplay(text string) {
	r.display = text
	r.trace(TraceDisplay, fmt.Sprintf("%q", text))
}

func (r *runner) OnStatus(status countdown.Status) {
	r.trace(TraceStatus, status.String())
}

func (r *runner) OnExpire() {
	r.trace(TraceExpire, "")
}

func (r *runner) OnRejected(err error) {
	r.result.Rejected++
	var te *countdown.TransitionError
	if errors.As(err, &te) {
		r.trace(TraceRejected, string(te.Code))
		return
	}
	r.trace(TraceRejected, err.Error())
}

// tracePlayer records alert start and stop edges.
type tracePlayer struct {
	r *runner
}

func (p tracePlayer) Play() error {
	if p.r.playing {
		return nil
	}
	p.r.playing = true
	p.r.result.Alerts++
	p.r.trace(TraceAlert, "on")
	return nil
}

func (p tracePlayer) Stop() {
	if !p.r.playing {
		return
	}
	p.r.playing = false
	p.r.trace(TraceAlert, "off")
}
