// Package timer provides the single-threaded scheduling primitives the
// indicator runs on.
//
// Every callback scheduled through a Service runs on one logical thread, one
// at a time, and a cancelled callback never runs. Loop is the implementation:
// it runs callbacks on a dedicated goroutine against a clockwork.Clock, so
// tests drive it with a fake clock.
package timer

import "time"

// Handle identifies a scheduled callback. The zero Handle refers to nothing
// and may be passed to Cancel safely.
type Handle uint64

// Service schedules and cancels delayed callbacks.
//
// Schedule and Cancel must only be called from the service's own thread
// (that is, from within a callback or a task posted to it).
type Service interface {
	// Schedule arranges for fn to run once after delay. A delay <= 0 runs fn
	// on the next turn of the loop, never inline.
	Schedule(delay time.Duration, fn func()) Handle

	// Cancel prevents a pending callback from running. Cancelling a handle
	// that already fired or was already cancelled is a no-op.
	Cancel(h Handle)
}
