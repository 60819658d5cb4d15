package indicator

import (
	"log/slog"

	"github.com/smazurov/statusled/internal/led"
	"github.com/smazurov/statusled/internal/timer"
)

// ErrDeviceNotReady is returned by Start when the LED cannot be driven.
var ErrDeviceNotReady = led.ErrDeviceNotReady

// Scheduler is the blink-pattern state machine. See the package
// documentation for its threading rules.
type Scheduler struct {
	line     led.Line
	timers   timer.Service
	probe    ConnectionProbe
	timings  Timings
	logger   *slog.Logger
	recorder Recorder
	onStatus func(Status)

	st       state
	started  bool
	degraded bool
	lineOn   bool
	advOn    bool

	// driver owns drive and lineOff; poll runs independently.
	driver  Pattern
	drive   timer.Handle
	lineOff timer.Handle
	poll    timer.Handle

	lastStatus Status
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithProbe enables the reconciliation poll against probe.
func WithProbe(probe ConnectionProbe) Option {
	return func(s *Scheduler) {
		s.probe = probe
	}
}

// WithTimings overrides DefaultTimings.
func WithTimings(t Timings) Option {
	return func(s *Scheduler) {
		s.timings = t
	}
}

// WithLogger sets the logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithRecorder attaches a telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(s *Scheduler) {
		s.recorder = r
	}
}

// WithStatusHandler registers fn to be called whenever the pattern, cached
// connection state, suspension or degradation changes.
func WithStatusHandler(fn func(Status)) Option {
	return func(s *Scheduler) {
		s.onStatus = fn
	}
}

// NewScheduler creates a scheduler driving line through timers. It does
// nothing until Start is called.
func NewScheduler(line led.Line, timers timer.Service, opts ...Option) *Scheduler {
	s := &Scheduler{
		line:     line,
		timers:   timers,
		timings:  DefaultTimings(),
		logger:   slog.Default(),
		recorder: nopRecorder{},
		driver:   PatternIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastStatus = s.Status()
	return s
}

// Start boots the indicator. If the line is not ready the scheduler degrades
// to a permanent no-op and ErrDeviceNotReady is returned. Otherwise the line
// is driven off, the persistent pattern is armed and, when a probe is
// configured, the reconciliation poll is armed immediately.
func (s *Scheduler) Start() error {
	if s.started {
		return nil
	}
	s.started = true

	if !s.line.Ready() {
		s.degraded = true
		s.logger.Warn("LED not ready, indicator disabled")
		s.notify()
		return ErrDeviceNotReady
	}

	s.line.Set(false)
	s.lineOn = false
	s.armPersistent()
	if s.probe != nil {
		s.poll = s.timers.Schedule(0, s.pollTick)
	}

	s.logger.Debug("Indicator started", "connected", s.st.connected, "reconcile", s.probe != nil)
	s.notify()
	return nil
}

// Stop cancels every timer and turns the line off. Later calls are ignored.
func (s *Scheduler) Stop() {
	if !s.active() {
		return
	}
	s.cancelDriver()
	s.cancelPoll()
	if s.st.sequence != nil {
		s.st.sequence = nil
		s.recorder.SequenceFinished(SequenceAborted)
	}
	s.setLine(false)
	s.started = false
	s.notify()
}

// SetTimings replaces the pattern timings. Running chains pick them up at
// their next arm; an active sequence keeps the durations it started with.
func (s *Scheduler) SetTimings(t Timings) {
	s.timings = t
}

// Timings returns the current pattern timings.
func (s *Scheduler) Timings() Timings {
	return s.timings
}

// Status returns a snapshot of the indicator.
func (s *Scheduler) Status() Status {
	st := Status{
		Pattern:   s.driver,
		Connected: s.st.connected,
		Suspended: s.st.suspended,
		LineOn:    s.lineOn,
		Degraded:  s.degraded,
	}
	if s.st.suspended {
		st.Pattern = PatternSuspended
	}
	if s.st.sequence != nil {
		seq := *s.st.sequence
		st.Sequence = &seq
	}
	return st
}

// active reports whether the scheduler accepts events.
func (s *Scheduler) active() bool {
	return s.started && !s.degraded
}

// setLine drives the output and records transitions.
func (s *Scheduler) setLine(on bool) {
	if s.degraded {
		return
	}
	s.line.Set(on)
	if s.lineOn != on {
		s.lineOn = on
		s.recorder.LineChanged(on)
	}
}

// pulseOff ends the on-phase of a connected pulse or sequence blink.
func (s *Scheduler) pulseOff() {
	s.lineOff = 0
	s.setLine(false)
}

// cancelDriver cancels the chain that owns the line, whichever it is.
func (s *Scheduler) cancelDriver() {
	s.timers.Cancel(s.drive)
	s.timers.Cancel(s.lineOff)
	s.drive = 0
	s.lineOff = 0
	s.driver = PatternIdle
}

func (s *Scheduler) cancelPoll() {
	s.timers.Cancel(s.poll)
	s.poll = 0
}

// notify reports a status change if any observable field moved. Sequence
// progress alone is not a change.
func (s *Scheduler) notify() {
	cur := s.Status()
	prev := s.lastStatus
	s.lastStatus = cur

	if cur.Pattern == prev.Pattern && cur.Connected == prev.Connected &&
		cur.Suspended == prev.Suspended && cur.Degraded == prev.Degraded {
		return
	}
	if cur.Pattern != prev.Pattern {
		s.recorder.PatternChanged(cur.Pattern)
		s.logger.Debug("Pattern changed", "from", prev.Pattern, "to", cur.Pattern)
	}
	if s.onStatus != nil {
		s.onStatus(cur)
	}
}
