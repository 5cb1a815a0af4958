package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind identifies a screen signal.
type Kind string

const (
	KindScreenOn    Kind = "screen_on"
	KindUserPresent Kind = "user_present"
)

// ParseKind maps a signal name to a Kind.
//
// Accepted spellings:
//   - screen_on, screen-on, on, android.intent.action.SCREEN_ON
//   - user_present, user-present, unlock, android.intent.action.USER_PRESENT
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "screen_on", "screen-on", "on", "android.intent.action.screen_on":
		return KindScreenOn, nil
	case "user_present", "user-present", "unlock", "android.intent.action.user_present":
		return KindUserPresent, nil
	default:
		return "", fmt.Errorf("unknown screen signal %q", s)
	}
}

// Label is the short name used in logs.
func (k Kind) Label() string {
	switch k {
	case KindScreenOn:
		return "ON"
	case KindUserPresent:
		return "UNLOCK"
	default:
		return string(k)
	}
}

// Event is one recorded screen signal.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	ID   string    `json:"id" cbor:"1,keyasint"`
	Kind Kind      `json:"kind" cbor:"2,keyasint"`
	At   time.Time `json:"at" cbor:"3,keyasint"`
	Seq  int64     `json:"seq" cbor:"4,keyasint"`
}

// Signal is what a Source reports before the service assigns an ID.
// A zero At means "now".
type Signal struct {
	Kind Kind
	At   time.Time
}

// eventNamespace scopes IDs derived from source timestamps.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("timerapp:screen-event"))

// SignalID is the stable ID of a signal its source timestamped. Replaying a
// feed yields the same IDs, so the store keeps one row per event.
func SignalID(kind Kind, at time.Time) string {
	key := at.UTC().Format(time.RFC3339Nano) + "|" + string(kind)
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}
