package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// KeyFirstLaunch holds "true" until onboarding has completed once.
const KeyFirstLaunch = "is_first_launch"

// KeyNotificationsGranted records the answer to the notification permission
// request made during onboarding.
const KeyNotificationsGranted = "notifications_granted"

// GetBool reads a boolean preference, returning def when it was never set.
func (s *Store) GetBool(ctx context.Context, key string, def bool) (bool, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return false, fmt.Errorf("read preference %s: %w", key, err)
	}

	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("read preference %s: %w", key, err)
	}
	return v, nil
}

// SetBool writes a boolean preference.
func (s *Store) SetBool(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, strconv.FormatBool(value), time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write preference %s: %w", key, err)
	}
	return nil
}

// IsFirstLaunch reports whether onboarding still has to run.
// A fresh database is a first launch.
func (s *Store) IsFirstLaunch(ctx context.Context) (bool, error) {
	return s.GetBool(ctx, KeyFirstLaunch, true)
}

// MarkFirstLaunchCompleted records that onboarding finished.
// Safe to call more than once.
func (s *Store) MarkFirstLaunchCompleted(ctx context.Context) error {
	return s.SetBool(ctx, KeyFirstLaunch, false)
}
