package led

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Driver names accepted by New.
const (
	DriverAuto  = "auto"
	DriverSysfs = "sysfs"
	DriverGPIO  = "gpio"
	DriverNone  = "none"
)

// Config selects and configures the output line.
type Config struct {
	Driver string // auto, sysfs, gpio, none
	Name   string // sysfs LED name; empty selects the board default
	Pin    uint8  // BCM pin number for the gpio driver
	Invert bool   // active-low wiring
}

// New creates the output line described by cfg. Unknown drivers are an
// error; hardware that is merely absent yields a line that is not ready.
func New(cfg Config, logger *slog.Logger) (Line, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch cfg.Driver {
	case DriverSysfs:
		name := cfg.Name
		if name == "" {
			name = boardLED(detectBoard())
		}
		if name == "" {
			return nil, fmt.Errorf("sysfs driver needs an LED name on this board")
		}
		logger.Info("Using sysfs LED line", "name", name, "invert", cfg.Invert)
		return newSysfs(sysfsLEDPath, name, cfg.Invert, logger), nil

	case DriverGPIO:
		logger.Info("Using GPIO LED line", "pin", cfg.Pin, "invert", cfg.Invert)
		return newGPIO(cfg.Pin, cfg.Invert, logger), nil

	case DriverNone:
		return newNoop(logger), nil

	case DriverAuto, "":
		return detect(cfg, logger), nil

	default:
		return nil, fmt.Errorf("unknown LED driver %q", cfg.Driver)
	}
}

// detect picks a sysfs line based on board detection.
// Falls back to no-op line if no LED is known for the board.
func detect(cfg Config, logger *slog.Logger) Line {
	boardModel := detectBoard()
	logger.Info("Detecting board for LED control", "board_model", boardModel)

	name := cfg.Name
	if name == "" {
		name = boardLED(boardModel)
	}
	if name == "" {
		logger.Info("No LED support detected, using no-op line", "board_model", boardModel)
		return newNoop(logger)
	}

	logger.Info("Detected board LED, using sysfs line", "board_model", boardModel, "name", name)
	return newSysfs(sysfsLEDPath, name, cfg.Invert, logger)
}

// boardLED returns the sysfs name of the user-facing LED for a board model.
func boardLED(boardModel string) string {
	switch {
	case strings.Contains(boardModel, "NanoPC-T6"):
		return "usr_led"
	case strings.Contains(boardModel, "Orange Pi"):
		return "green_led"
	case strings.Contains(boardModel, "Raspberry Pi"):
		return "ACT"
	default:
		return ""
	}
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	model := strings.TrimRight(string(data), "\x00")
	return model
}
