package cmd

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/indicator"
	"github.com/smazurov/statusled/internal/nats"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		kind, value string
		want        events.DeviceEvent
	}{
		{"connection", "true", events.ConnectionStateChangedEvent{Connected: true, Source: "cli"}},
		{"conn", "0", events.ConnectionStateChangedEvent{Connected: false, Source: "cli"}},
		{"profile", "2", events.ActiveProfileChangedEvent{ProfileIndex: 2}},
		{"Layer", "0", events.ActiveLayerChangedEvent{LayerIndex: 0}},
		{"activity", "SLEEP", events.ActivityStateChangedEvent{State: events.ActivitySleep}},
	}
	for _, tt := range tests {
		got, err := parseEvent(tt.kind, tt.value)
		if err != nil {
			t.Errorf("parseEvent(%q, %q) error = %v", tt.kind, tt.value, err)
			continue
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("parseEvent(%q, %q) (-want +got):\n%s", tt.kind, tt.value, diff)
		}
	}
}

func TestParseEvent_Errors(t *testing.T) {
	tests := []struct{ kind, value string }{
		{"connection", "maybe"},
		{"profile", "-1"},
		{"layer", "x"},
		{"activity", "hibernate"},
		{"battery", "50"},
	}
	for _, tt := range tests {
		if _, err := parseEvent(tt.kind, tt.value); err == nil {
			t.Errorf("parseEvent(%q, %q) succeeded, want error", tt.kind, tt.value)
		}
	}
}

func TestFormatStatus(t *testing.T) {
	got := formatStatus(nats.StatusMessage{
		Pattern:   "sequence",
		Connected: true,
		Remaining: 3,
		Timestamp: "2025-01-27T10:30:00Z",
	})
	want := "2025-01-27T10:30:00Z  sequence    connected=true suspended=false remaining=3"
	if got != want {
		t.Errorf("formatStatus() = %q, want %q", got, want)
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func TestRunSimulation(t *testing.T) {
	timings := indicator.DefaultTimings()
	timings.AdvertisingInterval = time.Hour

	input := strings.Join([]string{
		"status",
		"bogus 1",
		"profile",
		"layer x",
		"quit",
		"status",
	}, "\n")

	var out syncBuffer
	if err := runSimulation(context.Background(), strings.NewReader(input), &out, timings, 0); err != nil {
		t.Fatalf("runSimulation() error = %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"○ off",
		"pattern=advertising connected=false suspended=false",
		`unknown event "bogus"`,
		"usage: <event> <value>",
		`index must be a non-negative integer, got "x"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Count(got, "pattern=") != 1 {
		t.Errorf("commands after quit were processed:\n%s", got)
	}
}

func TestRunSimulation_ScriptedEventsBlink(t *testing.T) {
	timings := indicator.DefaultTimings()
	timings.AdvertisingInterval = time.Hour
	timings.ProfileOn = 5 * time.Millisecond
	timings.ProfileOff = 5 * time.Millisecond

	var out syncBuffer
	err := runSimulation(context.Background(), strings.NewReader("profile 2\n"), &out, timings, 300*time.Millisecond)
	if err != nil {
		t.Fatalf("runSimulation() error = %v", err)
	}

	got := out.String()
	if n := strings.Count(got, "● on"); n != 3 {
		t.Errorf("blinks = %d, want 3:\n%s", n, got)
	}
}

func TestRunSimulation_HoldEndsWithContext(t *testing.T) {
	timings := indicator.DefaultTimings()
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var out syncBuffer
		done <- runSimulation(ctx, strings.NewReader(""), &out, timings, 0)
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("runSimulation() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("runSimulation() kept running after the context was cancelled")
	}
}
