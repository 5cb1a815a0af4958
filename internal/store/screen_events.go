package store

import (
	"context"
	"fmt"
	"time"
)

// Screen event kinds stored in screen_events.kind.
const (
	KindScreenOn    = "screen_on"
	KindUserPresent = "user_present"
)

// ScreenEvent is a recorded screen-on or unlock.
type ScreenEvent struct {
	ID         string    `json:"id" cbor:"id"`
	Kind       string    `json:"kind" cbor:"kind"`
	OccurredAt time.Time `json:"occurred_at" cbor:"occurred_at"`
	Seq        int64     `json:"seq" cbor:"seq"`
}

// WriteScreenEvent inserts a screen event.
// Uses ON CONFLICT(id) DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Unknown kinds fail the CHECK constraint.
func (s *Store) WriteScreenEvent(ctx context.Context, ev ScreenEvent) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO screen_events (id, kind, occurred_at, seq)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, ev.ID, ev.Kind, ev.OccurredAt.UnixMilli(), ev.Seq)
	if err != nil {
		return fmt.Errorf("write screen event %s: %w", ev.ID, err)
	}
	return nil
}

// ReadScreenEvents returns recorded events oldest first.
// limit <= 0 returns everything; otherwise the most recent limit events.
//
// Returns an empty slice (not nil) when nothing was recorded.
func (s *Store) ReadScreenEvents(ctx context.Context, limit int) ([]ScreenEvent, error) {
	query := `
		SELECT id, kind, occurred_at, seq FROM (
			SELECT id, kind, occurred_at, seq
			FROM screen_events
			ORDER BY occurred_at DESC, seq DESC, id COLLATE BINARY DESC
			LIMIT ?
		)
		ORDER BY occurred_at ASC, seq ASC, id COLLATE BINARY ASC
	`
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query screen events: %w", err)
	}
	defer rows.Close()

	events := []ScreenEvent{}
	for rows.Next() {
		var ev ScreenEvent
		var ms int64
		if err := rows.Scan(&ev.ID, &ev.Kind, &ms, &ev.Seq); err != nil {
			return nil, fmt.Errorf("scan screen event: %w", err)
		}
		ev.OccurredAt = time.UnixMilli(ms).UTC()
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate screen events: %w", err)
	}

	return events, nil
}

// CountScreenEvents returns the number of recorded events of kind,
// or of all kinds when kind is empty.
func (s *Store) CountScreenEvents(ctx context.Context, kind string) (int, error) {
	var n int
	var err error
	if kind == "" {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM screen_events`).Scan(&n)
	} else {
		err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM screen_events WHERE kind = ?`, kind).Scan(&n)
	}
	if err != nil {
		return 0, fmt.Errorf("count screen events: %w", err)
	}
	return n, nil
}
