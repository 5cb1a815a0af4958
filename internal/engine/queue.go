package engine

import (
	"sync"
	"time"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventInput replaces the raw input.
	EventInput EventType = iota + 1
	// EventToggle pauses a running countdown, otherwise starts or resumes it.
	EventToggle
	// EventStart starts or resumes.
	EventStart
	// EventPause pauses.
	EventPause
	// EventReset returns a paused or expired countdown to its full duration.
	EventReset
	// EventTick refreshes the display.
	EventTick
	// EventExpire ends the run.
	EventExpire
)

// String returns the event type name used in logs and traces.
func (t EventType) String() string {
	switch t {
	case EventInput:
		return "input"
	case EventToggle:
		return "toggle"
	case EventStart:
		return "start"
	case EventPause:
		return "pause"
	case EventReset:
		return "reset"
	case EventTick:
		return "tick"
	case EventExpire:
		return "expire"
	default:
		return "unknown"
	}
}

// isUserAction reports whether the event comes from the user rather than
// from the clock.
func (t EventType) isUserAction() bool {
	return t != EventTick && t != EventExpire
}

// Event is a unit of work for the Run loop.
type Event struct {
	Type EventType

	// Input is the raw text for EventInput.
	Input string

	// RunID identifies the running period a tick or expiry was armed for.
	RunID string

	// At is when a clock callback fired. Zero for user actions.
	At time.Time

	// Seq is assigned on enqueue.
	Seq int64
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so clock callbacks never block on a slow loop.
// It uses a channel for signaling to enable context-aware waiting in the
// Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // Signals event availability (buffered, size 1)
}

// newEventQueue creates an empty event queue.
func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Thread-safe: may be called from any goroutine.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// Non-blocking: buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued.
// Wakes any blocked waiters by closing the signal channel.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
