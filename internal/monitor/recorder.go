package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/shrk/timerapp/internal/store"
)

// Recorder persists screen events.
type Recorder interface {
	Record(ctx context.Context, ev Event) error
}

// EventWriter is the part of the store a StoreRecorder needs.
type EventWriter interface {
	WriteScreenEvent(ctx context.Context, ev store.ScreenEvent) error
}

// StoreRecorder writes events to the SQLite store.
type StoreRecorder struct {
	w EventWriter
}

// NewStoreRecorder creates a StoreRecorder.
func NewStoreRecorder(w EventWriter) *StoreRecorder {
	return &StoreRecorder{w: w}
}

// Record writes ev. Duplicate IDs are ignored by the store.
func (r *StoreRecorder) Record(ctx context.Context, ev Event) error {
	return r.w.WriteScreenEvent(ctx, ToScreenEvent(ev))
}

// ToScreenEvent converts an Event into its stored form.
func ToScreenEvent(ev Event) store.ScreenEvent {
	return store.ScreenEvent{
		ID:         ev.ID,
		Kind:       string(ev.Kind),
		OccurredAt: ev.At,
		Seq:        ev.Seq,
	}
}

// FromScreenEvent converts a stored event back into an Event.
func FromScreenEvent(se store.ScreenEvent) Event {
	return Event{
		ID:   se.ID,
		Kind: Kind(se.Kind),
		At:   se.OccurredAt,
		Seq:  se.Seq,
	}
}

var (
	journalEncMode cbor.EncMode
	journalDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}
	journalEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create journal CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyQuiet,
		IndefLength: cbor.IndefLengthAllowed,
	}
	journalDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create journal CBOR decoder mode: %v", err))
	}
}

// Journal appends events to a file as a stream of CBOR items.
// It is safe for concurrent use from multiple goroutines.
type Journal struct {
	file    *os.File
	encoder *cbor.Encoder
	mu      sync.Mutex
	closed  bool
}

// OpenJournal opens path for appending, creating it with 0644 if needed.
func OpenJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return &Journal{
		file:    f,
		encoder: journalEncMode.NewEncoder(f),
	}, nil
}

// CreateJournal creates or truncates path and returns a Journal writing to it.
func CreateJournal(path string) (*Journal, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("create journal: %w", err)
	}
	return &Journal{
		file:    f,
		encoder: journalEncMode.NewEncoder(f),
	}, nil
}

// Record appends ev to the journal.
func (j *Journal) Record(_ context.Context, ev Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return errors.New("journal closed")
	}
	if err := j.encoder.Encode(ev); err != nil {
		return fmt.Errorf("encode journal event %s: %w", ev.ID, err)
	}
	return nil
}

// Close closes the journal file. Safe to call more than once.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}

// ReadJournal decodes every event in a journal stream.
func ReadJournal(r io.Reader) ([]Event, error) {
	dec := journalDecMode.NewDecoder(r)
	events := []Event{}
	for {
		var ev Event
		if err := dec.Decode(&ev); err != nil {
			if errors.Is(err, io.EOF) {
				return events, nil
			}
			return events, fmt.Errorf("decode journal event %d: %w", len(events), err)
		}
		events = append(events, ev)
	}
}

// ReadJournalFile decodes every event in the journal at path.
func ReadJournalFile(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	return ReadJournal(f)
}

// Compile-time interface satisfaction checks.
var (
	_ Recorder = (*StoreRecorder)(nil)
	_ Recorder = (*Journal)(nil)
)
