package led

import "errors"

// ErrDeviceNotReady is returned when the LED hardware is unavailable.
var ErrDeviceNotReady = errors.New("led device not ready")

// Line is a single on/off output driving one LED.
type Line interface {
	// Set drives the LED on or off. It is a no-op when the device is not
	// ready and never blocks on the caller.
	Set(on bool)

	// Ready reports whether the underlying device can be driven.
	Ready() bool
}

// Closer is implemented by lines that hold hardware resources.
type Closer interface {
	Close() error
}

// Close releases line resources if the line holds any.
func Close(l Line) error {
	if c, ok := l.(Closer); ok {
		return c.Close()
	}
	return nil
}
