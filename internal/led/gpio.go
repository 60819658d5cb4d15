package led

import (
	"fmt"
	"log/slog"

	"github.com/stianeikeland/go-rpio/v4"
)

// gpio implements Line on a Raspberry Pi GPIO pin through /dev/gpiomem.
type gpio struct {
	pin    rpio.Pin
	invert bool
	ready  bool
	logger *slog.Logger
}

// newGPIO opens the GPIO memory range and configures pin as an output in the
// inactive state. On failure the returned line is not ready.
func newGPIO(pin uint8, invert bool, logger *slog.Logger) *gpio {
	g := &gpio{
		pin:    rpio.Pin(pin),
		invert: invert,
		logger: logger,
	}

	if err := rpio.Open(); err != nil {
		logger.Warn("Failed to open GPIO", "pin", pin, "error", err)
		return g
	}

	g.pin.Output()
	g.ready = true
	g.Set(false)
	return g
}

// Ready reports whether GPIO memory was mapped.
func (g *gpio) Ready() bool {
	return g.ready
}

// Set drives the pin, honouring active-low wiring.
func (g *gpio) Set(on bool) {
	if !g.ready {
		return
	}
	if g.invert {
		on = !on
	}
	if on {
		g.pin.High()
	} else {
		g.pin.Low()
	}
}

// Close turns the LED off and unmaps GPIO memory.
func (g *gpio) Close() error {
	if !g.ready {
		return nil
	}
	g.Set(false)
	g.ready = false
	return rpio.Close()
}

// String identifies the line in logs.
func (g *gpio) String() string {
	return fmt.Sprintf("gpio:%d", g.pin)
}
