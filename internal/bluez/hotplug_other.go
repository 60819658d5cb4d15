//go:build !linux || !cgo

package bluez

import "context"

// watchHotplug is a no-op where udev is unavailable.
func (m *Monitor) watchHotplug(context.Context) error {
	return nil
}
