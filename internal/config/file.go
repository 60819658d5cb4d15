package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/smazurov/statusled/internal/indicator"
	"github.com/smazurov/statusled/internal/logging"
)

// File is the part of the configuration file that can change at runtime.
type File struct {
	Logging   logging.Config  `toml:"logging"`
	Indicator IndicatorConfig `toml:"indicator"`
}

// IndicatorConfig is the [indicator] table. All values are milliseconds.
type IndicatorConfig struct {
	AdvertisingIntervalMS int `toml:"advertising_interval_ms"`
	ConnectedPeriodMS     int `toml:"connected_period_ms"`
	ConnectedPulseMS      int `toml:"connected_pulse_ms"`
	PollIntervalMS        int `toml:"poll_interval_ms"`
	ProfileOnMS           int `toml:"profile_on_ms"`
	ProfileOffMS          int `toml:"profile_off_ms"`
	LayerOnMS             int `toml:"layer_on_ms"`
	LayerOffMS            int `toml:"layer_off_ms"`
}

// DefaultFile returns the configuration used when no file exists.
func DefaultFile() File {
	t := indicator.DefaultTimings()
	return File{
		Logging: logging.Config{
			Level:   "info",
			Format:  "text",
			Modules: make(map[string]string),
		},
		Indicator: IndicatorConfig{
			AdvertisingIntervalMS: int(t.AdvertisingInterval.Milliseconds()),
			ConnectedPeriodMS:     int(t.ConnectedPeriod.Milliseconds()),
			ConnectedPulseMS:      int(t.ConnectedPulse.Milliseconds()),
			PollIntervalMS:        int(t.PollInterval.Milliseconds()),
			ProfileOnMS:           int(t.ProfileOn.Milliseconds()),
			ProfileOffMS:          int(t.ProfileOff.Milliseconds()),
			LayerOnMS:             int(t.LayerOn.Milliseconds()),
			LayerOffMS:            int(t.LayerOff.Milliseconds()),
		},
	}
}

// Timings converts the table into validated indicator timings.
func (c IndicatorConfig) Timings() (indicator.Timings, error) {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }
	t := indicator.Timings{
		AdvertisingInterval: ms(c.AdvertisingIntervalMS),
		ConnectedPeriod:     ms(c.ConnectedPeriodMS),
		ConnectedPulse:      ms(c.ConnectedPulseMS),
		PollInterval:        ms(c.PollIntervalMS),
		ProfileOn:           ms(c.ProfileOnMS),
		ProfileOff:          ms(c.ProfileOffMS),
		LayerOn:             ms(c.LayerOnMS),
		LayerOff:            ms(c.LayerOffMS),
	}
	if err := t.Validate(); err != nil {
		return indicator.Timings{}, err
	}
	return t, nil
}

// LoadFile reads path on top of DefaultFile. A missing file yields the
// defaults; unreadable or malformed files are errors.
func LoadFile(path string) (File, error) {
	cfg := DefaultFile()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultFile(), fmt.Errorf("failed to parse TOML config %s: %w", path, err)
	}
	if cfg.Logging.Modules == nil {
		cfg.Logging.Modules = make(map[string]string)
	}
	return cfg, nil
}

// LoadLoggingConfig loads the [logging] table. It returns the defaults if
// the file doesn't exist or can't be parsed, so logging always comes up.
func LoadLoggingConfig(path string) logging.Config {
	cfg, err := LoadFile(path)
	if err != nil {
		return DefaultFile().Logging
	}
	return cfg.Logging
}

// LoadIndicatorTimings loads and validates the [indicator] table.
func LoadIndicatorTimings(path string) (indicator.Timings, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return indicator.Timings{}, err
	}
	return cfg.Indicator.Timings()
}
