// Package bluez watches BlueZ over the system D-Bus and reports whether any
// host is connected through a given adapter.
//
// The monitor serves two roles: it publishes connection changes on the event
// bus, and its cached value is the ground truth the indicator reconciles
// against.
package bluez

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/smazurov/statusled/internal/events"
)

const (
	bluezBus          = "org.bluez"
	bluezDevice1      = "org.bluez.Device1"
	dbusProperties    = "org.freedesktop.DBus.Properties"
	dbusObjectManager = "org.freedesktop.DBus.ObjectManager"

	defaultResync    = 30 * time.Second
	hotplugQueueSize = 8
)

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

// Publisher receives connection events.
type Publisher interface {
	Publish(ev events.Event)
}

// Options configures a Monitor.
type Options struct {
	Adapter string        // e.g. "hci0"
	Address string        // optional peer address; empty matches any device
	Resync  time.Duration // full object scan interval, defaults to 30s
	Bus     Publisher     // optional
	Logger  *slog.Logger
}

// Monitor tracks Device1.Connected for devices under one adapter.
type Monitor struct {
	opts   Options
	prefix string
	device dbus.ObjectPath
	logger *slog.Logger

	mu        sync.Mutex
	devices   map[dbus.ObjectPath]bool
	connected atomic.Bool

	cancel    context.CancelFunc
	done      chan struct{}
	hotplugCh chan string
}

// NewMonitor creates a monitor. Nothing is read until Start.
func NewMonitor(opts Options) (*Monitor, error) {
	if opts.Adapter == "" {
		opts.Adapter = "hci0"
	}
	if strings.ContainsAny(opts.Adapter, "/ ") {
		return nil, fmt.Errorf("invalid adapter name %q", opts.Adapter)
	}
	if opts.Resync <= 0 {
		opts.Resync = defaultResync
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Monitor{
		opts:     opts,
		prefix:   "/org/bluez/" + opts.Adapter + "/",
		logger:   logger.With("adapter", opts.Adapter),
		devices:   make(map[dbus.ObjectPath]bool),
		hotplugCh: make(chan string, hotplugQueueSize),
	}
	if opts.Address != "" {
		m.device = devicePath(opts.Adapter, opts.Address)
	}
	return m, nil
}

// Connected returns the cached connection state. It never blocks.
func (m *Monitor) Connected() bool {
	return m.connected.Load()
}

// Start connects to the system bus, reads the current device table and
// follows BlueZ signals in the background until Stop or ctx is done.
// Connected is meaningful only after Start succeeds.
func (m *Monitor) Start(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus(dbus.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}

	if err := conn.AddMatchSignal(
		dbus.WithMatchSender(bluezBus),
		dbus.WithMatchInterface(dbusProperties),
		dbus.WithMatchMember("PropertiesChanged"),
		dbus.WithMatchPathNamespace(dbus.ObjectPath(strings.TrimSuffix(m.prefix, "/"))),
	); err != nil {
		conn.Close()
		return fmt.Errorf("failed to add PropertiesChanged match: %w", err)
	}
	if err := conn.AddMatchSignal(
		dbus.WithMatchSender(bluezBus),
		dbus.WithMatchInterface(dbusObjectManager),
		dbus.WithMatchMember("InterfacesRemoved"),
	); err != nil {
		conn.Close()
		return fmt.Errorf("failed to add InterfacesRemoved match: %w", err)
	}

	sigCh := make(chan *dbus.Signal, 64)
	conn.Signal(sigCh)

	if err := m.resync(conn); err != nil {
		conn.RemoveSignal(sigCh)
		conn.Close()
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(runCtx, conn, sigCh)

	if err := m.watchHotplug(runCtx); err != nil {
		m.logger.Warn("Adapter hot-plug detection unavailable", "error", err)
	}

	m.logger.Info("BlueZ monitor started", "connected", m.Connected())
	return nil
}

// Stop ends signal processing and closes the bus connection.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
	m.cancel = nil
}

func (m *Monitor) run(ctx context.Context, conn *dbus.Conn, sigCh chan *dbus.Signal) {
	defer close(m.done)
	defer conn.Close()
	defer conn.RemoveSignal(sigCh)

	ticker := time.NewTicker(m.opts.Resync)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.resync(conn); err != nil {
				m.logger.Warn("BlueZ resync failed", "error", err)
			}
		case action := <-m.hotplugCh:
			switch action {
			case "remove":
				m.adapterRemoved()
			case "add":
				if err := m.resync(conn); err != nil {
					m.logger.Warn("BlueZ resync failed", "error", err)
				}
			}
		case sig, ok := <-sigCh:
			if !ok {
				m.logger.Warn("System bus connection closed")
				return
			}
			m.handleSignal(sig)
		}
	}
}

// resync replaces the device table with a fresh GetManagedObjects scan.
func (m *Monitor) resync(conn *dbus.Conn) error {
	var objects managedObjects
	call := conn.Object(bluezBus, "/").Call(dbusObjectManager+".GetManagedObjects", 0)
	if call.Err != nil {
		return fmt.Errorf("failed to list BlueZ objects: %w", call.Err)
	}
	if err := call.Store(&objects); err != nil {
		return fmt.Errorf("failed to decode BlueZ objects: %w", err)
	}
	m.applyObjects(objects)
	return nil
}

func (m *Monitor) applyObjects(objects managedObjects) {
	m.mu.Lock()
	clear(m.devices)
	for path, ifaces := range objects {
		props, ok := ifaces[bluezDevice1]
		if !ok || !m.tracks(path) {
			continue
		}
		connected, _ := props["Connected"].Value().(bool)
		m.devices[path] = connected
	}
	m.mu.Unlock()
	m.update()
}

// handleSignal applies a PropertiesChanged or InterfacesRemoved signal.
func (m *Monitor) handleSignal(sig *dbus.Signal) {
	switch sig.Name {
	case dbusProperties + ".PropertiesChanged":
		if !m.tracks(sig.Path) || len(sig.Body) < 2 {
			return
		}
		if iface, _ := sig.Body[0].(string); iface != bluezDevice1 {
			return
		}
		changed, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return
		}
		v, ok := changed["Connected"]
		if !ok {
			return
		}
		connected, ok := v.Value().(bool)
		if !ok {
			return
		}
		m.mu.Lock()
		m.devices[sig.Path] = connected
		m.mu.Unlock()

	case dbusObjectManager + ".InterfacesRemoved":
		if len(sig.Body) < 2 {
			return
		}
		path, _ := sig.Body[0].(dbus.ObjectPath)
		ifaces, _ := sig.Body[1].([]string)
		if !m.tracks(path) || !contains(ifaces, bluezDevice1) {
			return
		}
		m.mu.Lock()
		delete(m.devices, path)
		m.mu.Unlock()

	default:
		return
	}
	m.update()
}

// handleHotplug queues an add or remove of our adapter for the run loop. It
// is called from the udev goroutine.
func (m *Monitor) handleHotplug(action, sysname string) {
	if sysname != m.opts.Adapter || (action != "add" && action != "remove") {
		return
	}
	m.logger.Info("Bluetooth adapter hot-plugged", "action", action)
	select {
	case m.hotplugCh <- action:
	default:
		m.logger.Warn("Dropping adapter event, queue full", "action", action)
	}
}

// adapterRemoved forgets every device; a removed adapter takes its
// connections with it.
func (m *Monitor) adapterRemoved() {
	m.mu.Lock()
	clear(m.devices)
	m.mu.Unlock()
	m.update()
}

// update recomputes the aggregate and publishes it when it changed. Only
// Start and the run goroutine call it, so publishes are never reordered.
func (m *Monitor) update() {
	m.mu.Lock()
	connected := false
	for _, c := range m.devices {
		if c {
			connected = true
			break
		}
	}
	m.mu.Unlock()

	if m.connected.Swap(connected) == connected {
		return
	}
	m.logger.Info("Host connection changed", "connected", connected)
	if m.opts.Bus != nil {
		m.opts.Bus.Publish(events.ConnectionStateChangedEvent{
			Connected: connected,
			Source:    "bluez",
			Timestamp: time.Now().Format(time.RFC3339),
		})
	}
}

// tracks reports whether path is a device this monitor cares about.
func (m *Monitor) tracks(path dbus.ObjectPath) bool {
	if m.device != "" {
		return path == m.device
	}
	rest, ok := strings.CutPrefix(string(path), m.prefix)
	return ok && rest != "" && !strings.Contains(rest, "/")
}

// devicePath converts a MAC address to a BlueZ object path.
// Example: "AA:BB:CC:DD:EE:FF" on hci0 → "/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF".
func devicePath(adapter, address string) dbus.ObjectPath {
	devAddr := strings.ToUpper(strings.ReplaceAll(address, ":", "_"))
	return dbus.ObjectPath(fmt.Sprintf("/org/bluez/%s/dev_%s", adapter, devAddr))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
