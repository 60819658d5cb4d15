//go:build linux && cgo

package bluez

import (
	"context"
	"fmt"

	"github.com/jochenvg/go-udev"
)

// watchHotplug follows udev events for Bluetooth hosts until ctx is done.
func (m *Monitor) watchHotplug(ctx context.Context) error {
	u := udev.Udev{}
	mon := u.NewMonitorFromNetlink("udev")
	if mon == nil {
		return fmt.Errorf("failed to create udev monitor")
	}
	if err := mon.FilterAddMatchSubsystemDevtype("bluetooth", "host"); err != nil {
		return fmt.Errorf("failed to add udev filter: %w", err)
	}

	deviceCh, errCh, err := mon.DeviceChan(ctx)
	if err != nil {
		return fmt.Errorf("failed to get udev device channel: %w", err)
	}

	go func() {
		for err := range errCh {
			m.logger.Warn("Udev monitor error", "error", err)
		}
	}()

	go func() {
		for dev := range deviceCh {
			m.logger.Debug("Udev event", "action", dev.Action(), "device", dev.Sysname())
			m.handleHotplug(dev.Action(), dev.Sysname())
		}
	}()
	return nil
}
