package led

import (
	"log/slog"
	"os"
	"testing"
)

func TestNew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// Should always return a non-nil line
	line, err := New(Config{Driver: DriverAuto}, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if line == nil {
		t.Fatal("New() returned nil")
	}

	// Set should not panic
	line.Set(true)
	line.Set(false)
}

func TestNew_UnknownDriver(t *testing.T) {
	if _, err := New(Config{Driver: "pwm"}, nil); err == nil {
		t.Error("New() with unknown driver should return error")
	}
}

func TestNew_None(t *testing.T) {
	line, err := New(Config{Driver: DriverNone}, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if line.Ready() {
		t.Error("none driver should never be ready")
	}
}

func TestBoardLED(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"FriendlyElec NanoPC-T6", "usr_led"},
		{"Orange Pi 5 Plus", "green_led"},
		{"Raspberry Pi Zero 2 W Rev 1.0", "ACT"},
		{"unknown", ""},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			if got := boardLED(tt.model); got != tt.want {
				t.Errorf("boardLED(%q) = %q, want %q", tt.model, got, tt.want)
			}
		})
	}
}

func TestDetectBoard(t *testing.T) {
	model := detectBoard()

	// Should return a non-empty string (or "unknown")
	if model == "" {
		t.Error("detectBoard() returned empty string")
	}
}
