package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/shrk/timerapp/internal/clock"
)

// IDGenerator names recorded events.
type IDGenerator interface {
	Generate() string
}

type uuidV7 struct{}

func (uuidV7) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Service runs a Source and records what it reports.
//
// Thread-safety: all methods are safe for concurrent use.
type Service struct {
	source    Source
	recorders []Recorder
	notifier  Notifier
	notice    Notice
	clock     clock.Clock
	ids       IDGenerator

	seq      atomic.Int64
	recorded atomic.Int64

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
	err     error
}

// Option configures a Service.
type Option func(*Service)

// WithRecorder adds a Recorder. Recorders run in the order added.
func WithRecorder(r Recorder) Option {
	return func(s *Service) {
		s.recorders = append(s.recorders, r)
	}
}

// WithNotifier sets where the notice is posted.
func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithNotice overrides the posted notice.
func WithNotice(n Notice) Option {
	return func(s *Service) {
		s.notice = n
	}
}

// WithClock sets the clock used to stamp signals without a time.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

// WithIDGenerator overrides event ID generation (for testing).
func WithIDGenerator(g IDGenerator) Option {
	return func(s *Service) {
		s.ids = g
	}
}

// NewService creates a stopped Service reading from src.
func NewService(src Source, opts ...Option) *Service {
	s := &Service{
		source:   src,
		notifier: nopNotifier{},
		notice:   DefaultNotice(),
		clock:    clock.System,
		ids:      uuidV7{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins monitoring in the background. Calling Start while the
// service is running does nothing.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		slog.Debug("screen monitor already running")
		return nil
	}

	if err := s.notifier.Post(s.notice); err != nil {
		return fmt.Errorf("post monitor notice: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.running = true
	s.cancel = cancel
	s.done = done
	s.err = nil

	slog.Info("screen monitor starting", "recorders", len(s.recorders))
	go s.loop(runCtx, done)
	return nil
}

func (s *Service) loop(ctx context.Context, done chan struct{}) {
	err := s.source.Run(ctx, func(sig Signal) {
		s.handle(ctx, sig)
	})

	if werr := s.notifier.Withdraw(s.notice); werr != nil {
		slog.Warn("withdraw monitor notice failed", "error", werr)
	}

	s.mu.Lock()
	s.running = false
	s.err = err
	s.cancel()
	s.mu.Unlock()

	if err != nil {
		slog.Error("screen monitor stopped", "error", err)
	} else {
		slog.Info("screen monitor stopped", "recorded", s.recorded.Load())
	}
	close(done)
}

func (s *Service) handle(ctx context.Context, sig Signal) {
	at, id := sig.At, ""
	if at.IsZero() {
		at, id = s.clock.Now(), s.ids.Generate()
	} else {
		id = SignalID(sig.Kind, at)
	}
	ev := Event{
		ID:   id,
		Kind: sig.Kind,
		At:   at.UTC(),
		Seq:  s.seq.Add(1),
	}

	slog.Info("screen event", "kind", ev.Kind.Label(), "at", ev.At, "id", ev.ID)

	for _, r := range s.recorders {
		if err := r.Record(ctx, ev); err != nil {
			slog.Error("record screen event failed", "id", ev.ID, "error", err)
		}
	}
	s.recorded.Add(1)
}

// Stop cancels monitoring and waits for the source to return.
// Safe to call on a stopped service.
func (s *Service) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return s.Wait()
}

// Wait blocks until the current run ends and returns the source's error.
// Returns immediately if the service was never started.
func (s *Service) Wait() error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	if done == nil {
		return nil
	}
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Running reports whether the service is monitoring.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Recorded returns how many events this service has handled.
func (s *Service) Recorded() int64 {
	return s.recorded.Load()
}
