package timer

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
)

// ErrLoopStopped is returned when work is submitted to a loop that is no longer running.
var ErrLoopStopped = errors.New("timer loop stopped")

const defaultQueueSize = 64

// Loop serializes posted tasks and timer callbacks onto a single goroutine.
//
// Callbacks live in a table owned by the loop goroutine, and a single clock
// timer wakes the loop when the earliest one falls due. Expiry and
// cancellation are both decided on the loop goroutine, so a cancelled handle
// never fires. Callbacks due at the same instant run in scheduling order.
type Loop struct {
	clock    clockwork.Clock
	tasks    chan func()
	stopping chan struct{}
	done     chan struct{}

	// Owned by the loop goroutine.
	pending map[Handle]entry
	next    Handle
	wake    clockwork.Timer
}

type entry struct {
	due time.Time
	fn  func()
}

// NewLoop creates a loop driven by clock, or by the wall clock when clock is
// nil. Run must be called to start processing.
func NewLoop(clock clockwork.Clock) *Loop {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Loop{
		clock:    clock,
		tasks:    make(chan func(), defaultQueueSize),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		pending:  make(map[Handle]entry),
	}
}

// Run processes tasks and due callbacks until ctx is cancelled. Outstanding
// callbacks are dropped on return.
func (l *Loop) Run(ctx context.Context) {
	defer func() {
		close(l.stopping)
		if l.wake != nil {
			l.wake.Stop()
		}
		clear(l.pending)
		close(l.done)
	}()

	for {
		l.runDue()
		l.rearm()

		var wake <-chan time.Time
		if l.wake != nil {
			wake = l.wake.Chan()
		}

		select {
		case <-ctx.Done():
			return
		case task := <-l.tasks:
			// Time may have moved while the loop was idle.
			l.runDue()
			task()
		case <-wake:
		}
	}
}

// runDue runs every callback due by now, earliest first, including callbacks
// that become due while it runs.
func (l *Loop) runDue() {
	now := l.clock.Now()
	for {
		h, ok := l.earliest()
		if !ok || l.pending[h].due.After(now) {
			return
		}
		e := l.pending[h]
		delete(l.pending, h)
		e.fn()
	}
}

// earliest returns the pending handle that falls due first.
func (l *Loop) earliest() (Handle, bool) {
	var best Handle
	for h, e := range l.pending {
		if best == 0 {
			best = h
			continue
		}
		b := l.pending[best]
		if e.due.Before(b.due) || (e.due.Equal(b.due) && h < best) {
			best = h
		}
	}
	return best, best != 0
}

// rearm points the wake timer at the earliest pending callback.
func (l *Loop) rearm() {
	h, ok := l.earliest()
	if !ok {
		if l.wake != nil {
			l.wake.Stop()
		}
		return
	}

	d := l.pending[h].due.Sub(l.clock.Now())
	if l.wake == nil {
		l.wake = l.clock.NewTimer(d)
		return
	}
	l.wake.Reset(d)
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Post enqueues fn to run on the loop. It reports false if the loop has stopped.
func (l *Loop) Post(fn func()) bool {
	select {
	case <-l.stopping:
		return false
	default:
	}

	select {
	case l.tasks <- fn:
		return true
	case <-l.stopping:
		return false
	}
}

// Do runs fn on the loop and waits for it, and for any callbacks it makes due
// immediately, to finish.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		fn()
		l.runDue()
		close(finished)
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Schedule implements Service. It must be called from the loop goroutine.
func (l *Loop) Schedule(delay time.Duration, fn func()) Handle {
	if delay < 0 {
		delay = 0
	}
	l.next++
	l.pending[l.next] = entry{due: l.clock.Now().Add(delay), fn: fn}
	return l.next
}

// Cancel implements Service. It must be called from the loop goroutine.
func (l *Loop) Cancel(h Handle) {
	delete(l.pending, h)
}

// Pending returns the number of armed callbacks. It must be called from the
// loop goroutine.
func (l *Loop) Pending() int {
	return len(l.pending)
}
