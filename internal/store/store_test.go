package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// pragmaValue reads a pragma as text.
func pragmaValue(t *testing.T, s *Store, name string) string {
	t.Helper()
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		t.Fatalf("PRAGMA %s failed: %v", name, err)
	}
	return value
}

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	for _, table := range []string{"preferences", "screen_events"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestOpen_InMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open(:memory:) failed: %v", err)
	}
	defer s.Close()

	if err := s.db.PingContext(context.Background()); err != nil {
		t.Errorf("PingContext() failed: %v", err)
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestPragma_JournalMode(t *testing.T) {
	s := createTestStore(t)
	if got := pragmaValue(t, s, "journal_mode"); got != "wal" {
		t.Errorf("journal_mode = %q, want %q", got, "wal")
	}
}

func TestPragma_Synchronous(t *testing.T) {
	s := createTestStore(t)
	// NORMAL = 1
	if got := pragmaValue(t, s, "synchronous"); got != "1" {
		t.Errorf("synchronous = %q, want %q", got, "1")
	}
}

func TestPragma_BusyTimeout(t *testing.T) {
	s := createTestStore(t)
	if got := pragmaValue(t, s, "busy_timeout"); got != "5000" {
		t.Errorf("busy_timeout = %q, want %q", got, "5000")
	}
}

func TestMigration_UserVersion(t *testing.T) {
	s := createTestStore(t)
	if got := pragmaValue(t, s, "user_version"); got != "1" {
		t.Errorf("user_version = %q, want %q", got, "1")
	}

	var name string
	err := s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_screen_events_occurred'",
	).Scan(&name)
	if err != nil {
		t.Errorf("occurred_at index missing: %v", err)
	}
}

func TestMigration_SkipsApplied(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("DROP INDEX idx_screen_events_occurred"); err != nil {
		t.Fatalf("drop index: %v", err)
	}
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	// user_version is already 1, so the index is not recreated.
	var n int
	if err := s.db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND name='idx_screen_events_occurred'",
	).Scan(&n); err != nil {
		t.Fatalf("count indexes: %v", err)
	}
	if n != 0 {
		t.Errorf("migration re-ran on a current database")
	}
}

// Preference tests

func TestFirstLaunch_FreshDatabase(t *testing.T) {
	s := createTestStore(t)
	first, err := s.IsFirstLaunch(context.Background())
	if err != nil {
		t.Fatalf("IsFirstLaunch() failed: %v", err)
	}
	if !first {
		t.Error("fresh database should be a first launch")
	}
}

func TestFirstLaunch_MarkCompletedPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s1.MarkFirstLaunchCompleted(ctx); err != nil {
		t.Fatalf("MarkFirstLaunchCompleted() failed: %v", err)
	}
	if err := s1.MarkFirstLaunchCompleted(ctx); err != nil {
		t.Fatalf("second MarkFirstLaunchCompleted() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	first, err := s2.IsFirstLaunch(ctx)
	if err != nil {
		t.Fatalf("IsFirstLaunch() failed: %v", err)
	}
	if first {
		t.Error("first launch flag should survive reopen")
	}
}

func TestGetBool_Default(t *testing.T) {
	s := createTestStore(t)
	v, err := s.GetBool(context.Background(), "missing", true)
	if err != nil {
		t.Fatalf("GetBool() failed: %v", err)
	}
	if !v {
		t.Error("expected default value")
	}
}

func TestGetBool_Corrupt(t *testing.T) {
	s := createTestStore(t)
	if _, err := s.db.Exec(`INSERT INTO preferences (key, value, updated_at) VALUES ('bad', 'maybe', 0)`); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if _, err := s.GetBool(context.Background(), "bad", false); err == nil {
		t.Error("expected parse error for non-boolean value")
	}
}

func TestSetBool_Overwrites(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)

	for _, want := range []bool{true, false, true} {
		if err := s.SetBool(ctx, "flag", want); err != nil {
			t.Fatalf("SetBool(%v) failed: %v", want, err)
		}
		got, err := s.GetBool(ctx, "flag", !want)
		if err != nil {
			t.Fatalf("GetBool() failed: %v", err)
		}
		if got != want {
			t.Errorf("GetBool() = %v, want %v", got, want)
		}
	}
}

// Screen event tests

func TestScreenEvents_WriteRead(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

	events := []ScreenEvent{
		{ID: "ev-2", Kind: KindUserPresent, OccurredAt: base.Add(2 * time.Second), Seq: 2},
		{ID: "ev-1", Kind: KindScreenOn, OccurredAt: base, Seq: 1},
		{ID: "ev-3", Kind: KindScreenOn, OccurredAt: base.Add(time.Hour), Seq: 3},
	}
	for _, ev := range events {
		if err := s.WriteScreenEvent(ctx, ev); err != nil {
			t.Fatalf("WriteScreenEvent(%s) failed: %v", ev.ID, err)
		}
	}

	got, err := s.ReadScreenEvents(ctx, 0)
	if err != nil {
		t.Fatalf("ReadScreenEvents() failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d events, want 3", len(got))
	}
	for i, want := range []string{"ev-1", "ev-2", "ev-3"} {
		if got[i].ID != want {
			t.Errorf("event[%d] = %s, want %s", i, got[i].ID, want)
		}
	}
	if !got[0].OccurredAt.Equal(base) {
		t.Errorf("OccurredAt = %v, want %v", got[0].OccurredAt, base)
	}

	latest, err := s.ReadScreenEvents(ctx, 2)
	if err != nil {
		t.Fatalf("ReadScreenEvents(2) failed: %v", err)
	}
	if len(latest) != 2 || latest[0].ID != "ev-2" || latest[1].ID != "ev-3" {
		t.Errorf("limit should keep the most recent events in order, got %+v", latest)
	}
}

func TestScreenEvents_Empty(t *testing.T) {
	s := createTestStore(t)
	got, err := s.ReadScreenEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ReadScreenEvents() failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestScreenEvents_DuplicateIgnored(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	ev := ScreenEvent{ID: "dup", Kind: KindScreenOn, OccurredAt: time.Now(), Seq: 1}

	for i := 0; i < 2; i++ {
		if err := s.WriteScreenEvent(ctx, ev); err != nil {
			t.Fatalf("write %d failed: %v", i, err)
		}
	}

	n, err := s.CountScreenEvents(ctx, "")
	if err != nil {
		t.Fatalf("CountScreenEvents() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestScreenEvents_UnknownKindRejected(t *testing.T) {
	s := createTestStore(t)
	err := s.WriteScreenEvent(context.Background(), ScreenEvent{ID: "x", Kind: "screen_off", OccurredAt: time.Now()})
	if err == nil {
		t.Error("expected CHECK constraint failure for unknown kind")
	}
}

func TestScreenEvents_CountByKind(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	now := time.Now()

	writes := []ScreenEvent{
		{ID: "a", Kind: KindScreenOn, OccurredAt: now, Seq: 1},
		{ID: "b", Kind: KindScreenOn, OccurredAt: now, Seq: 2},
		{ID: "c", Kind: KindUserPresent, OccurredAt: now, Seq: 3},
	}
	for _, ev := range writes {
		if err := s.WriteScreenEvent(ctx, ev); err != nil {
			t.Fatalf("write failed: %v", err)
		}
	}

	on, err := s.CountScreenEvents(ctx, KindScreenOn)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	present, err := s.CountScreenEvents(ctx, KindUserPresent)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if on != 2 || present != 1 {
		t.Errorf("counts = (%d, %d), want (2, 1)", on, present)
	}
}
