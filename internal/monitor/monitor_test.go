package monitor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrk/timerapp/internal/store"
	"github.com/shrk/timerapp/internal/testutil"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	os.Exit(m.Run())
}

// blockingSource emits its signals then waits for cancellation.
type blockingSource struct {
	signals []Signal
	started chan struct{}
}

func newBlockingSource(signals ...Signal) *blockingSource {
	return &blockingSource{signals: signals, started: make(chan struct{}, 8)}
}

func (s *blockingSource) Run(ctx context.Context, emit func(Signal)) error {
	for _, sig := range s.signals {
		emit(sig)
	}
	s.started <- struct{}{}
	<-ctx.Done()
	return nil
}

type failingSource struct{ err error }

func (s failingSource) Run(context.Context, func(Signal)) error { return s.err }

type memoryRecorder struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *memoryRecorder) Record(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *memoryRecorder) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

type countingNotifier struct {
	mu        sync.Mutex
	posted    []Notice
	withdrawn int
	postErr   error
}

func (n *countingNotifier) Post(notice Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.postErr != nil {
		return n.postErr
	}
	n.posted = append(n.posted, notice)
	return nil
}

func (n *countingNotifier) Withdraw(Notice) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.withdrawn++
	return nil
}

func (n *countingNotifier) counts() (int, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.posted), n.withdrawn
}

func TestService_RecordsSignals(t *testing.T) {
	clk := testutil.NewFakeClock()
	explicit := testutil.Epoch.Add(-time.Hour)
	src := newBlockingSource(
		Signal{Kind: KindScreenOn},
		Signal{Kind: KindUserPresent, At: explicit},
	)
	rec := &memoryRecorder{}
	svc := NewService(src,
		WithRecorder(rec),
		WithClock(clk),
		WithIDGenerator(testutil.NewSequentialIDs("ev")),
	)

	require.NoError(t, svc.Start(context.Background()))
	<-src.started
	require.NoError(t, svc.Stop())

	got := rec.snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, Event{ID: "ev-1", Kind: KindScreenOn, At: testutil.Epoch, Seq: 1}, got[0])
	assert.Equal(t, Event{ID: SignalID(KindUserPresent, explicit), Kind: KindUserPresent, At: explicit, Seq: 2}, got[1])
	assert.EqualValues(t, 2, svc.Recorded())
}

func TestService_StartIdempotent(t *testing.T) {
	src := newBlockingSource()
	notifier := &countingNotifier{}
	svc := NewService(src, WithNotifier(notifier))

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Start(ctx))
	<-src.started

	assert.True(t, svc.Running())
	posted, _ := notifier.counts()
	assert.Equal(t, 1, posted, "notice posted once")

	require.NoError(t, svc.Stop())
	assert.False(t, svc.Running())
	_, withdrawn := notifier.counts()
	assert.Equal(t, 1, withdrawn)

	select {
	case <-src.started:
		t.Fatal("second Start should not run the source again")
	default:
	}
}

func TestService_RestartAfterStop(t *testing.T) {
	src := newBlockingSource()
	svc := NewService(src)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, svc.Start(ctx))
		<-src.started
		assert.True(t, svc.Running())
		require.NoError(t, svc.Stop())
		assert.False(t, svc.Running())
	}
}

func TestService_InstancesIndependent(t *testing.T) {
	a := NewService(newBlockingSource())
	b := NewService(newBlockingSource())

	require.NoError(t, a.Start(context.Background()))
	assert.True(t, a.Running())
	assert.False(t, b.Running())
	require.NoError(t, a.Stop())
}

func TestService_StopWithoutStart(t *testing.T) {
	svc := NewService(newBlockingSource())
	assert.NoError(t, svc.Stop())
	assert.NoError(t, svc.Wait())
}

func TestService_SourceError(t *testing.T) {
	boom := errors.New("source broke")
	svc := NewService(failingSource{err: boom})

	require.NoError(t, svc.Start(context.Background()))
	assert.ErrorIs(t, svc.Wait(), boom)
	assert.False(t, svc.Running())
}

func TestService_NoticePostFailure(t *testing.T) {
	svc := NewService(newBlockingSource(), WithNotifier(&countingNotifier{postErr: errors.New("denied")}))
	err := svc.Start(context.Background())
	require.Error(t, err)
	assert.False(t, svc.Running())
}

func TestService_RecorderErrorDoesNotStop(t *testing.T) {
	src := newBlockingSource(Signal{Kind: KindScreenOn}, Signal{Kind: KindScreenOn})
	bad := &memoryRecorder{err: errors.New("disk full")}
	good := &memoryRecorder{}
	svc := NewService(src, WithRecorder(bad), WithRecorder(good))

	require.NoError(t, svc.Start(context.Background()))
	<-src.started
	require.NoError(t, svc.Stop())

	assert.Len(t, bad.snapshot(), 2)
	assert.Len(t, good.snapshot(), 2)
}

func TestService_ParentContextCancel(t *testing.T) {
	src := newBlockingSource()
	svc := NewService(src)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, svc.Start(ctx))
	<-src.started
	cancel()
	require.NoError(t, svc.Wait())
	assert.False(t, svc.Running())
}

func TestService_LineSourceToStore(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	input := strings.Join([]string{
		"2026-01-01T08:00:00Z screen_on",
		"2026-01-01T08:00:05Z unlock",
		"# comment",
		"screen_off",
	}, "\n")
	svc := NewService(NewLineSource(strings.NewReader(input)),
		WithRecorder(NewStoreRecorder(s)),
		WithIDGenerator(testutil.NewSequentialIDs("ev")),
	)

	ctx := context.Background()
	require.NoError(t, svc.Start(ctx))
	require.NoError(t, svc.Wait())

	stored, err := s.ReadScreenEvents(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stored, 2)
	assert.Equal(t, KindScreenOn, FromScreenEvent(stored[0]).Kind)
	assert.Equal(t, KindUserPresent, FromScreenEvent(stored[1]).Kind)
	assert.Equal(t, time.Date(2026, 1, 1, 8, 0, 5, 0, time.UTC), stored[1].OccurredAt)
}

func TestService_ReplayedFeedRecordedOnce(t *testing.T) {
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	input := "2026-01-01T08:00:00Z screen_on\n2026-01-01T08:00:05Z unlock\n"
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		svc := NewService(NewLineSource(strings.NewReader(input)), WithRecorder(NewStoreRecorder(s)))
		require.NoError(t, svc.Start(ctx))
		require.NoError(t, svc.Wait())
	}

	n, err := s.CountScreenEvents(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestSignalID(t *testing.T) {
	at := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, SignalID(KindScreenOn, at), SignalID(KindScreenOn, at))
	assert.Equal(t, SignalID(KindScreenOn, at), SignalID(KindScreenOn, at.In(time.FixedZone("CET", 3600))))
	assert.NotEqual(t, SignalID(KindScreenOn, at), SignalID(KindUserPresent, at))
	assert.NotEqual(t, SignalID(KindScreenOn, at), SignalID(KindScreenOn, at.Add(time.Millisecond)))
}
