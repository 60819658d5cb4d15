package indicator

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTimings is returned when a Timings value cannot drive the LED.
var ErrInvalidTimings = errors.New("invalid indicator timings")

// MaxSequenceCount bounds the blinks a single sequence may request. Requests
// above it are treated as out of range and ignored.
const MaxSequenceCount = 32

// Pattern names the driver that currently owns the LED.
type Pattern string

// Patterns.
const (
	PatternIdle        Pattern = "idle"        // nothing armed (not started or degraded)
	PatternAdvertising Pattern = "advertising" // disconnected, slow toggle
	PatternConnected   Pattern = "connected"   // connected, short periodic pulse
	PatternSequence    Pattern = "sequence"    // transient blink burst
	PatternSuspended   Pattern = "suspended"   // device asleep, line forced off
)

// Sequence is a transient, finite blink burst.
type Sequence struct {
	Remaining int
	On        time.Duration
	Off       time.Duration
}

// SequenceOutcome describes how a sequence ended.
type SequenceOutcome string

// Sequence outcomes.
const (
	SequenceCompleted  SequenceOutcome = "completed"
	SequenceSuperseded SequenceOutcome = "superseded"
	SequenceAborted    SequenceOutcome = "aborted"
)

// state is the indicator state record. Only the Scheduler touches it.
type state struct {
	connected bool
	suspended bool
	sequence  *Sequence
}

// Status is a read-only snapshot of the indicator.
type Status struct {
	Pattern   Pattern   `json:"pattern"`
	Connected bool      `json:"connected"`
	Suspended bool      `json:"suspended"`
	LineOn    bool      `json:"line_on"`
	Degraded  bool      `json:"degraded"`
	Sequence  *Sequence `json:"sequence,omitempty"`
}

// Timings holds every duration the patterns use.
type Timings struct {
	AdvertisingInterval time.Duration // toggle period while disconnected
	ConnectedPeriod     time.Duration // pulse period while connected
	ConnectedPulse      time.Duration // on-time of each connected pulse
	PollInterval        time.Duration // reconciliation poll period
	ProfileOn           time.Duration
	ProfileOff          time.Duration
	LayerOn             time.Duration
	LayerOff            time.Duration
}

// DefaultTimings returns the stock pattern timings.
func DefaultTimings() Timings {
	return Timings{
		AdvertisingInterval: 300 * time.Millisecond,
		ConnectedPeriod:     1000 * time.Millisecond,
		ConnectedPulse:      50 * time.Millisecond,
		PollInterval:        250 * time.Millisecond,
		ProfileOn:           120 * time.Millisecond,
		ProfileOff:          120 * time.Millisecond,
		LayerOn:             90 * time.Millisecond,
		LayerOff:            90 * time.Millisecond,
	}
}

// Validate checks that every duration is positive and that a connected
// pulse fits inside its period.
func (t Timings) Validate() error {
	fields := []struct {
		name string
		d    time.Duration
	}{
		{"advertising_interval", t.AdvertisingInterval},
		{"connected_period", t.ConnectedPeriod},
		{"connected_pulse", t.ConnectedPulse},
		{"poll_interval", t.PollInterval},
		{"profile_on", t.ProfileOn},
		{"profile_off", t.ProfileOff},
		{"layer_on", t.LayerOn},
		{"layer_off", t.LayerOff},
	}
	for _, f := range fields {
		if f.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidTimings, f.name, f.d)
		}
	}
	if t.ConnectedPulse >= t.ConnectedPeriod {
		return fmt.Errorf("%w: connected_pulse %v must be shorter than connected_period %v",
			ErrInvalidTimings, t.ConnectedPulse, t.ConnectedPeriod)
	}
	return nil
}

// ConnectionProbe reports ground-truth connection state. Connected must not
// block; implementations cache the value and refresh it elsewhere.
type ConnectionProbe interface {
	Connected() bool
}

// Recorder receives indicator telemetry. All methods are called on the
// scheduler thread and must not block.
type Recorder interface {
	LineChanged(on bool)
	PatternChanged(p Pattern)
	SequenceFinished(outcome SequenceOutcome)
	Reconciled(connected bool)
}

type nopRecorder struct{}

func (nopRecorder) LineChanged(bool)                 {}
func (nopRecorder) PatternChanged(Pattern)           {}
func (nopRecorder) SequenceFinished(SequenceOutcome) {}
func (nopRecorder) Reconciled(bool)                  {}
