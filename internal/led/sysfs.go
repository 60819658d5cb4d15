package led

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

const sysfsLEDPath = "/sys/class/leds"

// sysfs implements Line using the Linux LED class interface.
type sysfs struct {
	path   string // /sys/class/leds/<name>
	invert bool
	logger *slog.Logger
}

// newSysfs creates a line for the named LED under root. The kernel trigger is
// set to "none" so brightness writes are not overridden.
func newSysfs(root, name string, invert bool, logger *slog.Logger) *sysfs {
	s := &sysfs{
		path:   filepath.Join(root, name),
		invert: invert,
		logger: logger,
	}

	if s.Ready() {
		if err := os.WriteFile(filepath.Join(s.path, "trigger"), []byte("none"), 0o644); err != nil {
			logger.Warn("Failed to clear LED trigger", "path", s.path, "error", err)
		}
	}
	return s
}

// Ready reports whether the brightness attribute exists.
func (s *sysfs) Ready() bool {
	_, err := os.Stat(filepath.Join(s.path, "brightness"))
	return err == nil
}

// Set writes the brightness attribute.
func (s *sysfs) Set(on bool) {
	if s.invert {
		on = !on
	}

	value := "0"
	if on {
		value = "1"
	}

	if err := os.WriteFile(filepath.Join(s.path, "brightness"), []byte(value), 0o644); err != nil {
		s.logger.Debug("Failed to set LED brightness", "path", s.path, "error", err)
	}
}

// String identifies the line in logs.
func (s *sysfs) String() string {
	return fmt.Sprintf("sysfs:%s", s.path)
}
