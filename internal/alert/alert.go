// Package alert plays the sound that signals an expired countdown.
package alert

import (
	"fmt"
	"io"
	"sync"
)

// Sound names accepted by New.
const (
	SoundTone = "tone"
	SoundBell = "bell"
	SoundNone = "none"
)

// Player starts and stops the alert sound.
//
// Play is called when a countdown expires and Stop on the next user
// interaction. Both must be safe to call repeatedly.
type Player interface {
	Play() error
	Stop()
}

// Options selects and tunes a Player.
type Options struct {
	// Sound is one of SoundTone, SoundBell, SoundNone.
	Sound string

	// FrequencyHz is the tone pitch (SoundTone only).
	FrequencyHz float64

	// Volume is the tone amplitude in [0,1] (SoundTone only).
	Volume float64
}

// New returns the Player named by opts.Sound. Bell output goes to w.
func New(opts Options, w io.Writer) (Player, error) {
	switch opts.Sound {
	case SoundTone:
		return NewToneAlarm(opts.FrequencyHz, opts.Volume, SpeakerOutput{}), nil
	case SoundBell:
		return NewBell(w), nil
	case SoundNone, "":
		return Nop{}, nil
	default:
		return nil, fmt.Errorf("unknown alert sound %q", opts.Sound)
	}
}

// Nop is a Player that does nothing.
type Nop struct{}

func (Nop) Play() error { return nil }
func (Nop) Stop()       {}

// Bell rings the terminal bell once per expiry.
type Bell struct {
	mu      sync.Mutex
	w       io.Writer
	ringing bool
}

// NewBell creates a Bell writing to w.
func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

// Play writes a BEL character unless the bell is already ringing.
func (b *Bell) Play() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.ringing {
		return nil
	}
	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return fmt.Errorf("ring bell: %w", err)
	}
	b.ringing = true
	return nil
}

// Stop re-arms the bell for the next expiry.
func (b *Bell) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ringing = false
}

// Compile-time interface satisfaction checks.
var (
	_ Player = Nop{}
	_ Player = (*Bell)(nil)
	_ Player = (*ToneAlarm)(nil)
)
