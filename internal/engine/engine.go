package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shrk/timerapp/internal/alert"
	"github.com/shrk/timerapp/internal/clock"
	"github.com/shrk/timerapp/internal/countdown"
)

// DefaultTickInterval is the nominal display refresh period.
const DefaultTickInterval = time.Second

// Listener receives the engine's output. Calls happen on the Run goroutine,
// in the order the state changed.
type Listener interface {
	// OnDisplay is called with the text the host should show.
	OnDisplay(text string)

	// OnStatus is called after every status change.
	OnStatus(status countdown.Status)

	// OnExpire is called once when a run reaches zero.
	OnExpire()

	// OnRejected is called when a user action was refused. State is unchanged.
	OnRejected(err error)
}

// ListenerFuncs adapts optional functions to a Listener. Nil fields are skipped.
type ListenerFuncs struct {
	Display  func(text string)
	Status   func(status countdown.Status)
	Expire   func()
	Rejected func(err error)
}

func (l ListenerFuncs) OnDisplay(text string) {
	if l.Display != nil {
		l.Display(text)
	}
}

func (l ListenerFuncs) OnStatus(status countdown.Status) {
	if l.Status != nil {
		l.Status(status)
	}
}

func (l ListenerFuncs) OnExpire() {
	if l.Expire != nil {
		l.Expire()
	}
}

func (l ListenerFuncs) OnRejected(err error) {
	if l.Rejected != nil {
		l.Rejected(err)
	}
}

// Engine is the single-writer countdown event loop.
//
// Thread-safety model:
//   - Enqueue() and the action helpers: safe from any goroutine
//   - Snapshot(): safe from any goroutine
//   - Run() / Drain(): must be called from exactly one goroutine
//
// INVARIANTS:
//   - at most one tick timer and one expiry timer are armed
//   - runID is non-empty exactly while the state is Running
type Engine struct {
	clock    clock.Clock
	player   alert.Player
	listener Listener
	ids      RunIDGenerator
	interval time.Duration
	seq      Sequence
	queue    *eventQueue

	// Owned by the Run goroutine.
	state  *countdown.State
	runID  string
	ticker clock.Timer
	expiry clock.Timer

	mu   sync.RWMutex
	snap countdown.State
}

// Option configures an Engine.
type Option func(*Engine)

// WithTickInterval sets the display refresh period.
//
// Default: 1s (DefaultTickInterval). Non-positive values are ignored.
func WithTickInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// WithPlayer sets the alert played on expiry.
func WithPlayer(p alert.Player) Option {
	return func(e *Engine) {
		e.player = p
	}
}

// WithListener sets the receiver of display and status updates.
func WithListener(l Listener) Option {
	return func(e *Engine) {
		e.listener = l
	}
}

// WithRunIDGenerator overrides the run ID source (for testing).
func WithRunIDGenerator(g RunIDGenerator) Option {
	return func(e *Engine) {
		e.ids = g
	}
}

// New creates an Engine with an Idle countdown.
func New(clk clock.Clock, opts ...Option) *Engine {
	e := &Engine{
		clock:    clk,
		player:   alert.Nop{},
		listener: ListenerFuncs{},
		ids:      UUIDv7Generator{},
		interval: DefaultTickInterval,
		queue:    newEventQueue(),
		state:    countdown.New(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.snap = *e.state
	return e
}

// Enqueue submits an event for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	ev.Seq = e.seq.Next()
	return e.queue.Enqueue(ev)
}

// Input submits a raw input edit.
func (e *Engine) Input(raw string) bool {
	return e.Enqueue(Event{Type: EventInput, Input: raw})
}

// Toggle submits the start/pause button press.
func (e *Engine) Toggle() bool {
	return e.Enqueue(Event{Type: EventToggle})
}

// Start submits a start or resume.
func (e *Engine) Start() bool {
	return e.Enqueue(Event{Type: EventStart})
}

// Pause submits a pause.
func (e *Engine) Pause() bool {
	return e.Enqueue(Event{Type: EventPause})
}

// Reset submits a reset to the full duration.
func (e *Engine) Reset() bool {
	return e.Enqueue(Event{Type: EventReset})
}

// Snapshot returns a copy of the countdown state as of the last processed event.
// Thread-safe: may be called from any goroutine.
func (e *Engine) Snapshot() countdown.State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap
}

// Run starts the single-writer event loop.
// Blocks until context is cancelled or Stop() is called.
//
// CRITICAL: Must be called from exactly ONE goroutine.
//
// On exit all timers are cancelled and the alert is silenced.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("countdown engine starting", "tick_interval", e.interval)
	defer e.shutdown()

	for {
		if ev, ok := e.queue.TryDequeue(); ok {
			e.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("countdown engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-e.queue.Wait():
			// The signal channel closes when the queue is closed,
			// which makes this case fire immediately.
			if e.queue.Len() == 0 && e.isClosed() {
				slog.Info("countdown engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Drain processes every queued event synchronously and returns how many
// were handled. It is the Run loop without blocking, for hosts that drive
// the engine step by step (the scenario harness, tests).
//
// Must not be called concurrently with Run.
func (e *Engine) Drain() int {
	n := 0
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return n
		}
		e.process(ev)
		n++
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

func (e *Engine) isClosed() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed
}

func (e *Engine) shutdown() {
	e.cancelTimers()
	e.player.Stop()
}

// process applies one event to the state.
// CRITICAL: Called only from the Run/Drain goroutine - single-writer guarantee.
func (e *Engine) process(ev Event) {
	slog.Debug("processing event",
		"type", ev.Type,
		"seq", ev.Seq,
		"run_id", ev.RunID,
	)

	if ev.Type.isUserAction() {
		e.player.Stop()
	}

	switch ev.Type {
	case EventInput:
		e.handleInput(ev.Input)
	case EventToggle:
		if e.state.Status == countdown.StatusRunning {
			e.handlePause()
		} else {
			e.handleStart()
		}
	case EventStart:
		e.handleStart()
	case EventPause:
		e.handlePause()
	case EventReset:
		e.handleReset()
	case EventTick:
		e.handleTick(ev)
	case EventExpire:
		e.handleExpire(ev)
	default:
		slog.Error("event processing failed", "error", &UnknownEventError{Type: ev.Type, Seq: ev.Seq})
	}

	e.publish()
}

func (e *Engine) handleInput(raw string) {
	display, err := e.state.SetInput(raw)
	if err != nil {
		e.reject(err)
		return
	}
	e.listener.OnStatus(e.state.Status)
	e.listener.OnDisplay(display)
}

func (e *Engine) handleStart() {
	now := e.clock.Now()
	if err := e.state.Start(now); err != nil {
		e.reject(err)
		return
	}

	// Replace any previous tick source before arming a new one.
	e.cancelTimers()
	e.runID = e.ids.Generate()
	e.armTick()
	e.armExpiry(e.state.Remaining(now))

	slog.Info("countdown running",
		"run_id", e.runID,
		"remaining_ms", e.state.RemainingMillis,
		"total_seconds", e.state.TotalSeconds,
	)

	display, _ := e.state.Tick(now)
	e.listener.OnStatus(e.state.Status)
	e.listener.OnDisplay(display)
}

func (e *Engine) handlePause() {
	if !e.state.Pause(e.clock.Now()) {
		slog.Debug("pause ignored", "status", e.state.Status)
		return
	}

	slog.Info("countdown paused",
		"run_id", e.runID,
		"remaining_ms", e.state.RemainingMillis,
	)

	e.cancelTimers()
	e.runID = ""
	e.listener.OnStatus(e.state.Status)
	e.listener.OnDisplay(e.state.Display())
}

func (e *Engine) handleReset() {
	if !e.state.Reset() {
		slog.Debug("reset ignored", "status", e.state.Status)
		return
	}
	e.listener.OnStatus(e.state.Status)
	e.listener.OnDisplay(e.state.Display())
}

func (e *Engine) handleTick(ev Event) {
	if e.isStale(ev) {
		slog.Debug("stale tick dropped", "run_id", ev.RunID, "current_run_id", e.runID)
		return
	}

	at := ev.At
	if at.IsZero() {
		at = e.clock.Now()
	}

	display, due := e.state.Tick(at)
	if due {
		e.expire()
		return
	}

	e.listener.OnDisplay(display)
	e.armTick()
}

func (e *Engine) handleExpire(ev Event) {
	if e.isStale(ev) {
		slog.Debug("stale expiry dropped", "run_id", ev.RunID, "current_run_id", e.runID)
		return
	}
	e.expire()
}

func (e *Engine) expire() {
	runID := e.runID
	e.cancelTimers()
	e.runID = ""
	if !e.state.Expire() {
		return
	}

	slog.Info("countdown expired", "run_id", runID)

	e.listener.OnStatus(e.state.Status)
	e.listener.OnDisplay(countdown.ExpiredText)
	e.listener.OnExpire()

	if err := e.player.Play(); err != nil {
		slog.Warn("alert sound failed", "error", err)
	}
}

func (e *Engine) reject(err error) {
	slog.Debug("action rejected", "error", err, "status", e.state.Status)
	e.listener.OnRejected(err)
}

// isStale reports whether a clock event belongs to a run that has ended.
func (e *Engine) isStale(ev Event) bool {
	return e.state.Status != countdown.StatusRunning || ev.RunID == "" || ev.RunID != e.runID
}

func (e *Engine) armTick() {
	if e.ticker != nil {
		e.ticker.Stop()
	}
	runID := e.runID
	e.ticker = e.clock.AfterFunc(e.interval, func() {
		e.Enqueue(Event{Type: EventTick, RunID: runID, At: e.clock.Now()})
	})
}

func (e *Engine) armExpiry(remaining time.Duration) {
	if e.expiry != nil {
		e.expiry.Stop()
	}
	runID := e.runID
	e.expiry = e.clock.AfterFunc(remaining, func() {
		e.Enqueue(Event{Type: EventExpire, RunID: runID, At: e.clock.Now()})
	})
}

func (e *Engine) cancelTimers() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
	if e.expiry != nil {
		e.expiry.Stop()
		e.expiry = nil
	}
}

// publish copies the state for Snapshot readers.
func (e *Engine) publish() {
	e.mu.Lock()
	e.snap = *e.state
	e.mu.Unlock()
}
