// Package store provides SQLite-backed local state for timerapp.
//
// Two things are persisted:
//   - Preferences: small key/value settings, most importantly the
//     "first launch completed" flag written once after onboarding
//   - Screen events: screen-on and unlock times recorded by the monitor
//
// Countdown state is never persisted; a timer lives only as long as the
// process that runs it.
//
// # Ordering
//
// Screen events are read ORDER BY occurred_at ASC, seq ASC, id ASC so that
// listings and exports are deterministic.
//
// # Idempotency
//
// Event writes use ON CONFLICT(id) DO NOTHING; preference writes upsert.
package store
