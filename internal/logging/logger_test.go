package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func resetState() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	globalConfig = Config{}
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetState()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"indicator": "debug",
			"nats":      "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"indicator", true, true, true},
		{"nats", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("Debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("Info enabled = %v, want %v", got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("Warn enabled = %v, want %v", got, tt.wantWarn)
			}
		})
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState()

	before := GetLogger("led")
	if before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	Initialize(Config{Level: "info", Modules: map[string]string{"led": "debug"}})

	after := GetLogger("led")
	if !after.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger should have debug enabled after Initialize")
	}
	if !before.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Earlier logger should follow the LevelVar update")
	}
}

func TestApplyLevels(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info"})
	logger := GetLogger("indicator")

	ApplyLevels(Config{Level: "warn", Modules: map[string]string{"indicator": "debug"}})
	if !logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("indicator should be at debug after reload")
	}
	if GetLogger("api").Handler().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("api should inherit warn after reload")
	}

	ApplyLevels(Config{Level: "info"})
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("removing the override should restore the global level")
	}
}

func TestSetModuleLevel(t *testing.T) {
	resetState()
	Initialize(Config{Level: "info"})

	if err := SetModuleLevel("bluez", "DEBUG"); err != nil {
		t.Fatalf("SetModuleLevel() error = %v", err)
	}
	if got := Levels()["bluez"]; got != "debug" {
		t.Errorf("Levels()[bluez] = %q, want debug", got)
	}
	if err := SetModuleLevel("bluez", "verbose"); err == nil {
		t.Error("SetModuleLevel with an invalid level should fail")
	}
}

func TestMultiHandlerDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(NewMultiHandler(debugHandler, infoHandler)).With("module", "test")
	logger.Debug("debug only message")

	if count := strings.Count(buf.String(), "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, buf.String())
	}
}

type failingHandler struct{ slog.Handler }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("boom") }

func TestMultiHandlerContinuesAfterFailure(t *testing.T) {
	var buf bytes.Buffer
	text := slog.NewTextHandler(&buf, nil)

	multi := NewMultiHandler(failingHandler{text}, text)
	err := multi.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "hello", 0))

	if err == nil {
		t.Error("expected joined error")
	}
	if !strings.Contains(buf.String(), "hello") {
		t.Error("second handler did not receive the record")
	}
}

func TestBufferHandler(t *testing.T) {
	buffer := NewRingBuffer(2)
	level := &slog.LevelVar{}
	logger := slog.New(NewBufferHandler(buffer, level)).With("module", "indicator")

	logger.Debug("hidden")
	logger.Info("first", "count", 3)
	logger.WithGroup("seq").Warn("second", "on", 120*time.Millisecond)
	logger.Error("third", "error", errors.New("boom"))

	entries := buffer.Tail(0)
	if len(entries) != 2 {
		t.Fatalf("len(entries) = %d, want 2", len(entries))
	}
	if entries[0].Message != "second" || entries[0].Attributes["seq.on"] != "120ms" {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Module != "indicator" || entries[1].Attributes["error"] != "boom" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if got := FormatLogLine(entries[1]); !strings.Contains(got, "[ERROR] [indicator] third error=boom") {
		t.Errorf("FormatLogLine() = %q", got)
	}
}

func TestRingBufferTail(t *testing.T) {
	rb := NewRingBuffer(3)
	for _, msg := range []string{"a", "b", "c", "d"} {
		rb.Write(LogEntry{Message: msg})
	}

	var got []string
	for _, e := range rb.Tail(2) {
		got = append(got, e.Message)
	}
	if strings.Join(got, "") != "cd" {
		t.Errorf("Tail(2) = %v, want [c d]", got)
	}
	if rb.Count() != 3 {
		t.Errorf("Count() = %d, want 3", rb.Count())
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
		isNil bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"invalid", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := parseLevel(tt.input)
			switch {
			case tt.isNil && got != nil:
				t.Errorf("parseLevel(%q) = %v, want nil", tt.input, *got)
			case !tt.isNil && got == nil:
				t.Errorf("parseLevel(%q) = nil, want %v", tt.input, tt.want)
			case !tt.isNil && *got != tt.want:
				t.Errorf("parseLevel(%q) = %v, want %v", tt.input, *got, tt.want)
			}
		})
	}
}

func TestScopeResolve(t *testing.T) {
	s := scope{}.
		withAttrs([]slog.Attr{slog.String("module", "bluez"), slog.String("adapter", "hci0")}).
		withGroup("dev").
		withAttrs([]slog.Attr{slog.String("module", "not-lifted")})

	r := slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0)
	r.AddAttrs(slog.Group("props", slog.Bool("connected", true)), slog.Any("empty", nil))

	module, fields := s.resolve(r)
	if module != "bluez" {
		t.Errorf("module = %q, want bluez", module)
	}

	var keys []string
	for _, f := range fields {
		keys = append(keys, strings.Join(f.path, "."))
	}
	want := []string{"adapter", "dev.module", "dev.props.connected", "dev.empty"}
	if strings.Join(keys, ",") != strings.Join(want, ",") {
		t.Errorf("keys = %v, want %v", keys, want)
	}
}

func TestScopeDefaultModule(t *testing.T) {
	module, fields := scope{}.resolve(slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
	if module != defaultModule || len(fields) != 0 {
		t.Errorf("resolve() = %q, %v", module, fields)
	}
}

func TestJournalKey(t *testing.T) {
	tests := map[string][]string{
		"PATTERN":         {"pattern"},
		"SEQ_ON":          {"seq", "on"},
		"HTTP_USER_AGENT": {"http", "user-agent"},
	}
	for want, path := range tests {
		if got := journalKey(path); got != want {
			t.Errorf("journalKey(%v) = %q, want %q", path, got, want)
		}
	}
}
