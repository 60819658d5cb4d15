package systemd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type recordedNotify struct {
	mu     sync.Mutex
	states []string
	err    error
}

func (r *recordedNotify) notify(_ bool, state string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
	return r.err == nil, r.err
}

func (r *recordedNotify) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.states...)
}

func newTestNotifier(rec *recordedNotify, interval time.Duration) *Notifier {
	return &Notifier{
		notify:   rec.notify,
		watchdog: func(bool) (time.Duration, error) { return interval, nil },
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestNotifier_States(t *testing.T) {
	rec := &recordedNotify{}
	n := newTestNotifier(rec, 0)

	n.Ready()
	n.Status("advertising")
	n.Stopping()

	want := []string{"READY=1", "STATUS=advertising", "STOPPING=1"}
	if diff := cmp.Diff(want, rec.snapshot()); diff != "" {
		t.Errorf("states (-want +got):\n%s", diff)
	}
}

func TestNotifier_ErrorsAreSwallowed(_ *testing.T) {
	n := newTestNotifier(&recordedNotify{err: errors.New("socket gone")}, 0)
	n.Ready()
}

func TestNotifier_WatchdogDisabled(t *testing.T) {
	rec := &recordedNotify{}
	n := newTestNotifier(rec, 0)

	done := make(chan struct{})
	go func() {
		n.RunWatchdog(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("RunWatchdog should return when the watchdog is disabled")
	}
}

func TestNotifier_WatchdogPings(t *testing.T) {
	rec := &recordedNotify{}
	n := newTestNotifier(rec, 20*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	n.RunWatchdog(ctx)

	pings := 0
	for _, s := range rec.snapshot() {
		if s == "WATCHDOG=1" {
			pings++
		}
	}
	if pings < 3 {
		t.Errorf("watchdog pings = %d, want at least 3", pings)
	}
}
