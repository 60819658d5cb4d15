package systemd

import (
	"context"
	"fmt"

	"github.com/coreos/go-systemd/v22/dbus"
)

// Manager queries systemd units over the system D-Bus.
type Manager struct {
	conn *dbus.Conn
}

// NewManager connects to the system bus.
func NewManager(ctx context.Context) (*Manager, error) {
	conn, err := dbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return nil, err
	}
	return &Manager{conn: conn}, nil
}

// ServiceState returns the ActiveState of a unit, e.g. "active" or "failed".
func (m *Manager) ServiceState(ctx context.Context, unit string) (string, error) {
	prop, err := m.conn.GetUnitPropertyContext(ctx, unit, "ActiveState")
	if err != nil {
		return "", err
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return prop.Value.String(), nil
	}
	return state, nil
}

// RestartUnit restarts a unit in replace mode and waits for the job result.
func (m *Manager) RestartUnit(ctx context.Context, unit string) error {
	result := make(chan string, 1)
	if _, err := m.conn.RestartUnitContext(ctx, unit, "replace", result); err != nil {
		return err
	}
	select {
	case r := <-result:
		if r != "done" {
			return fmt.Errorf("restart %s: job %s", unit, r)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cleanly closes the D-Bus connection.
func (m *Manager) Close() {
	if m.conn != nil {
		m.conn.Close()
	}
}
