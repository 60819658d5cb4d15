package indicator

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/statusled/internal/timer"
)

// tick is the step the fake clock advances by. Every timing the tests use is
// a multiple of it, so each callback runs at its exact due time.
const tick = 10 * time.Millisecond

// transition is a change of the line level at a virtual time.
type transition struct {
	At time.Duration
	On bool
}

// recordingLine records level changes against elapsed fake-clock time.
type recordingLine struct {
	now     func() time.Duration
	ready   bool
	on      bool
	sets    int
	history []transition
}

func newRecordingLine(now func() time.Duration) *recordingLine {
	return &recordingLine{now: now, ready: true}
}

func (l *recordingLine) Set(on bool) {
	l.sets++
	if on == l.on {
		return
	}
	l.on = on
	l.history = append(l.history, transition{At: l.now(), On: on})
}

func (l *recordingLine) Ready() bool { return l.ready }

// onsBetween counts off-to-on transitions in [from, to).
func (l *recordingLine) onsBetween(from, to time.Duration) int {
	n := 0
	for _, tr := range l.history {
		if tr.On && tr.At >= from && tr.At < to {
			n++
		}
	}
	return n
}

// since returns transitions at or after from.
func (l *recordingLine) since(from time.Duration) []transition {
	var out []transition
	for _, tr := range l.history {
		if tr.At >= from {
			out = append(out, tr)
		}
	}
	return out
}

// fakeProbe is a settable ConnectionProbe.
type fakeProbe struct {
	mu        sync.Mutex
	connected bool
	reads     int
}

func (p *fakeProbe) Connected() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.connected
}

func (p *fakeProbe) set(connected bool) {
	p.mu.Lock()
	p.connected = connected
	p.mu.Unlock()
}

// countingRecorder tallies Recorder calls.
type countingRecorder struct {
	lineOn     int
	patterns   []Pattern
	outcomes   []SequenceOutcome
	reconciled int
}

func (r *countingRecorder) LineChanged(on bool) {
	if on {
		r.lineOn++
	}
}
func (r *countingRecorder) PatternChanged(p Pattern)                 { r.patterns = append(r.patterns, p) }
func (r *countingRecorder) SequenceFinished(outcome SequenceOutcome) { r.outcomes = append(r.outcomes, outcome) }
func (r *countingRecorder) Reconciled(bool)                          { r.reconciled++ }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// countingTimers tallies scheduling on top of a Loop. Cancel only counts
// handles that were still pending.
type countingTimers struct {
	loop      *timer.Loop
	scheduled int
	cancelled int
}

func (c *countingTimers) Schedule(delay time.Duration, fn func()) timer.Handle {
	c.scheduled++
	return c.loop.Schedule(delay, fn)
}

func (c *countingTimers) Cancel(h timer.Handle) {
	before := c.loop.Pending()
	c.loop.Cancel(h)
	if c.loop.Pending() < before {
		c.cancelled++
	}
}

type fixture struct {
	t      *testing.T
	clock  *clockwork.FakeClock
	start  time.Time
	loop   *timer.Loop
	timers *countingTimers
	line   *recordingLine
	probe  *fakeProbe
	rec    *countingRecorder
	s      *Scheduler
}

// newFixture builds a scheduler started on a Loop driven by a fake clock.
// withProbe enables the reconciliation poll.
func newFixture(t *testing.T, withProbe bool) *fixture {
	t.Helper()
	f := newIdleFixture(t, withProbe)
	var err error
	f.do(func() { err = f.s.Start() })
	if err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return f
}

// newIdleFixture builds the scheduler without starting it.
func newIdleFixture(t *testing.T, withProbe bool) *fixture {
	t.Helper()
	clock := clockwork.NewFakeClock()
	f := &fixture{
		t:     t,
		clock: clock,
		start: clock.Now(),
		loop:  timer.NewLoop(clock),
		rec:   &countingRecorder{},
	}
	f.timers = &countingTimers{loop: f.loop}
	f.line = newRecordingLine(f.now)

	ctx, cancel := context.WithCancel(context.Background())
	go f.loop.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-f.loop.Done()
	})

	opts := []Option{WithLogger(discardLogger()), WithRecorder(f.rec)}
	if withProbe {
		f.probe = &fakeProbe{}
		opts = append(opts, WithProbe(f.probe))
	}
	f.s = NewScheduler(f.line, f.timers, opts...)
	return f
}

// do runs fn on the scheduler's loop and waits for the callbacks it makes due.
func (f *fixture) do(fn func()) {
	f.t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.loop.Do(ctx, fn); err != nil {
		f.t.Fatalf("loop.Do() error = %v", err)
	}
}

// flush runs callbacks that are due now without advancing time.
func (f *fixture) flush() {
	f.t.Helper()
	f.do(func() {})
}

// advance moves the fake clock forward by d one tick at a time, letting the
// loop run everything that falls due at each step.
func (f *fixture) advance(d time.Duration) {
	f.t.Helper()
	for d > 0 {
		step := min(tick, d)
		f.clock.Advance(step)
		f.flush()
		d -= step
	}
}

// now returns the fake time elapsed since the fixture was built.
func (f *fixture) now() time.Duration {
	return f.clock.Since(f.start)
}

// pending returns the number of callbacks armed on the loop.
func (f *fixture) pending() int {
	f.t.Helper()
	var n int
	f.do(func() { n = f.loop.Pending() })
	return n
}

// stats returns the scheduler's Schedule calls and effective Cancel calls.
func (f *fixture) stats() (scheduled, cancelled int) {
	return f.timers.scheduled, f.timers.cancelled
}

// armedHandles counts the scheduler's live handles.
func (f *fixture) armedHandles() int {
	n := 0
	for _, h := range []timer.Handle{f.s.drive, f.s.lineOff, f.s.poll} {
		if h != 0 {
			n++
		}
	}
	return n
}
