package alert

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

// Tone defaults.
const (
	DefaultSampleRate  = beep.SampleRate(44100)
	DefaultFrequencyHz = 880.0
	DefaultVolume      = 0.5

	// beepOn and beepOff shape the alarm: a short tone followed by silence.
	beepOn  = 250 * time.Millisecond
	beepOff = 250 * time.Millisecond
)

// Output is the audio sink a ToneAlarm plays into.
type Output interface {
	Init(sr beep.SampleRate, bufferSize int) error
	Play(s beep.Streamer)
	Clear()
}

// SpeakerOutput plays through the default audio device via beep/speaker.
type SpeakerOutput struct{}

func (SpeakerOutput) Init(sr beep.SampleRate, bufferSize int) error {
	return speaker.Init(sr, bufferSize)
}

func (SpeakerOutput) Play(s beep.Streamer) {
	speaker.Play(s)
}

func (SpeakerOutput) Clear() {
	speaker.Clear()
}

// ToneAlarm loops an alarm tone until stopped.
//
// The audio device is opened lazily on the first Play, so hosts without
// sound only fail when an alarm actually needs to ring.
type ToneAlarm struct {
	mu         sync.Mutex
	out        Output
	sampleRate beep.SampleRate
	freq       float64
	volume     float64

	initialized bool
	playing     bool
}

// NewToneAlarm creates an alarm. Zero frequency or volume use the defaults;
// volume is clamped to [0,1].
func NewToneAlarm(freq, volume float64, out Output) *ToneAlarm {
	if freq <= 0 {
		freq = DefaultFrequencyHz
	}
	if volume <= 0 {
		volume = DefaultVolume
	}
	if volume > 1 {
		volume = 1
	}
	return &ToneAlarm{
		out:        out,
		sampleRate: DefaultSampleRate,
		freq:       freq,
		volume:     volume,
	}
}

// Play starts the alarm. Calling Play while it rings is a no-op.
func (a *ToneAlarm) Play() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.playing {
		return nil
	}
	if !a.initialized {
		if err := a.out.Init(a.sampleRate, a.sampleRate.N(time.Second/10)); err != nil {
			return fmt.Errorf("init audio output: %w", err)
		}
		a.initialized = true
	}

	a.out.Play(newAlarmStreamer(a.sampleRate, a.freq, a.volume))
	a.playing = true
	return nil
}

// Stop silences the alarm.
func (a *ToneAlarm) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.playing {
		return
	}
	a.out.Clear()
	a.playing = false
}

// Playing reports whether the alarm is sounding.
func (a *ToneAlarm) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.playing
}

// alarmStreamer produces an endless on/off sine pattern.
type alarmStreamer struct {
	pos       int
	period    int // samples per on+off cycle
	on        int // samples of tone per cycle
	step      float64
	amplitude float64
}

func newAlarmStreamer(sr beep.SampleRate, freq, amplitude float64) *alarmStreamer {
	on := sr.N(beepOn)
	return &alarmStreamer{
		period:    on + sr.N(beepOff),
		on:        on,
		step:      2 * math.Pi * freq / float64(sr),
		amplitude: amplitude,
	}
}

// Stream fills samples and never drains.
func (s *alarmStreamer) Stream(samples [][2]float64) (int, bool) {
	for i := range samples {
		var v float64
		if phase := s.pos % s.period; phase < s.on {
			v = s.amplitude * math.Sin(float64(phase)*s.step)
		}
		samples[i][0] = v
		samples[i][1] = v
		s.pos++
	}
	return len(samples), true
}

// Err implements beep.Streamer.
func (s *alarmStreamer) Err() error {
	return nil
}
