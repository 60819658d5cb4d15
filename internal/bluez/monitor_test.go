package bluez

import (
	"testing"

	"github.com/godbus/dbus/v5"
	"github.com/google/go-cmp/cmp"
	"github.com/smazurov/statusled/internal/events"
)

type recordingBus struct {
	events []events.Event
}

func (r *recordingBus) Publish(ev events.Event) {
	r.events = append(r.events, ev)
}

func (r *recordingBus) connected() []bool {
	var out []bool
	for _, ev := range r.events {
		if c, ok := ev.(events.ConnectionStateChangedEvent); ok {
			out = append(out, c.Connected)
		}
	}
	return out
}

func newTestMonitor(t *testing.T, opts Options) (*Monitor, *recordingBus) {
	t.Helper()
	bus := &recordingBus{}
	opts.Bus = bus
	m, err := NewMonitor(opts)
	if err != nil {
		t.Fatalf("NewMonitor() error = %v", err)
	}
	return m, bus
}

func deviceObject(connected bool) map[string]map[string]dbus.Variant {
	return map[string]map[string]dbus.Variant{
		bluezDevice1: {"Connected": dbus.MakeVariant(connected)},
	}
}

func propertiesChanged(path dbus.ObjectPath, iface string, changed map[string]dbus.Variant) *dbus.Signal {
	return &dbus.Signal{
		Path: path,
		Name: dbusProperties + ".PropertiesChanged",
		Body: []any{iface, changed, []string{}},
	}
}

func TestDevicePath(t *testing.T) {
	got := devicePath("hci0", "aa:bb:cc:dd:ee:ff")
	if want := dbus.ObjectPath("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF"); got != want {
		t.Errorf("devicePath() = %q, want %q", got, want)
	}
}

func TestNewMonitor_RejectsBadAdapter(t *testing.T) {
	if _, err := NewMonitor(Options{Adapter: "hci0/dev"}); err == nil {
		t.Error("NewMonitor() with a path adapter succeeded, want error")
	}
}

func TestMonitor_Tracks(t *testing.T) {
	m, _ := newTestMonitor(t, Options{Adapter: "hci0"})

	tests := []struct {
		path dbus.ObjectPath
		want bool
	}{
		{"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF", true},
		{"/org/bluez/hci0", false},
		{"/org/bluez/hci0/", false},
		{"/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF", false},
		{"/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF/service0001", false},
	}
	for _, tt := range tests {
		if got := m.tracks(tt.path); got != tt.want {
			t.Errorf("tracks(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}

	pinned, _ := newTestMonitor(t, Options{Adapter: "hci0", Address: "AA:BB:CC:DD:EE:FF"})
	if !pinned.tracks("/org/bluez/hci0/dev_AA_BB_CC_DD_EE_FF") {
		t.Error("pinned monitor does not track its device")
	}
	if pinned.tracks("/org/bluez/hci0/dev_11_22_33_44_55_66") {
		t.Error("pinned monitor tracks another device")
	}
}

func TestMonitor_ApplyObjects(t *testing.T) {
	m, bus := newTestMonitor(t, Options{Adapter: "hci0"})

	m.applyObjects(managedObjects{
		"/org/bluez/hci0":                        {"org.bluez.Adapter1": {}},
		"/org/bluez/hci0/dev_11_22_33_44_55_66": deviceObject(false),
		"/org/bluez/hci1/dev_AA_BB_CC_DD_EE_FF": deviceObject(true),
	})
	if m.Connected() {
		t.Error("Connected() = true, only a device on another adapter is connected")
	}

	m.applyObjects(managedObjects{
		"/org/bluez/hci0/dev_11_22_33_44_55_66": deviceObject(true),
	})
	if !m.Connected() {
		t.Error("Connected() = false after scan with a connected device")
	}

	// A second identical scan publishes nothing new.
	m.applyObjects(managedObjects{
		"/org/bluez/hci0/dev_11_22_33_44_55_66": deviceObject(true),
	})

	if diff := cmp.Diff([]bool{true}, bus.connected()); diff != "" {
		t.Errorf("published (-want +got):\n%s", diff)
	}
}

func TestMonitor_PropertiesChanged(t *testing.T) {
	m, bus := newTestMonitor(t, Options{Adapter: "hci0"})
	devA := dbus.ObjectPath("/org/bluez/hci0/dev_AA_AA_AA_AA_AA_AA")
	devB := dbus.ObjectPath("/org/bluez/hci0/dev_BB_BB_BB_BB_BB_BB")

	connect := func(p dbus.ObjectPath, c bool) {
		m.handleSignal(propertiesChanged(p, bluezDevice1, map[string]dbus.Variant{
			"Connected": dbus.MakeVariant(c),
		}))
	}

	connect(devA, true)
	connect(devB, true)
	connect(devA, false) // B still connected
	connect(devB, false)

	if diff := cmp.Diff([]bool{true, false}, bus.connected()); diff != "" {
		t.Errorf("published (-want +got):\n%s", diff)
	}
	for _, ev := range bus.events {
		if c := ev.(events.ConnectionStateChangedEvent); c.Source != "bluez" {
			t.Errorf("Source = %q, want bluez", c.Source)
		}
	}
}

func TestMonitor_IgnoresUnrelatedSignals(t *testing.T) {
	m, bus := newTestMonitor(t, Options{Adapter: "hci0"})
	dev := dbus.ObjectPath("/org/bluez/hci0/dev_AA_AA_AA_AA_AA_AA")

	signals := []*dbus.Signal{
		propertiesChanged(dev, "org.bluez.MediaControl1", map[string]dbus.Variant{
			"Connected": dbus.MakeVariant(true),
		}),
		propertiesChanged(dev, bluezDevice1, map[string]dbus.Variant{
			"RSSI": dbus.MakeVariant(int16(-40)),
		}),
		propertiesChanged(dev, bluezDevice1, map[string]dbus.Variant{
			"Connected": dbus.MakeVariant("yes"),
		}),
		propertiesChanged("/org/bluez/hci1/dev_AA_AA_AA_AA_AA_AA", bluezDevice1, map[string]dbus.Variant{
			"Connected": dbus.MakeVariant(true),
		}),
		{Path: dev, Name: dbusProperties + ".PropertiesChanged", Body: []any{bluezDevice1}},
		{Path: dev, Name: "org.bluez.Device1.Disconnected"},
	}
	for _, sig := range signals {
		m.handleSignal(sig)
	}

	if m.Connected() {
		t.Error("Connected() = true after unrelated signals")
	}
	if len(bus.events) != 0 {
		t.Errorf("published %d events, want 0", len(bus.events))
	}
}

func TestMonitor_InterfacesRemoved(t *testing.T) {
	m, bus := newTestMonitor(t, Options{Adapter: "hci0"})
	dev := dbus.ObjectPath("/org/bluez/hci0/dev_AA_AA_AA_AA_AA_AA")

	m.handleSignal(propertiesChanged(dev, bluezDevice1, map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(true),
	}))
	m.handleSignal(&dbus.Signal{
		Path: "/",
		Name: dbusObjectManager + ".InterfacesRemoved",
		Body: []any{dev, []string{"org.bluez.Battery1"}},
	})
	if !m.Connected() {
		t.Fatal("removing an unrelated interface dropped the device")
	}

	m.handleSignal(&dbus.Signal{
		Path: "/",
		Name: dbusObjectManager + ".InterfacesRemoved",
		Body: []any{dev, []string{bluezDevice1, "org.freedesktop.DBus.Properties"}},
	})
	if m.Connected() {
		t.Error("Connected() = true after the device was removed")
	}
	if diff := cmp.Diff([]bool{true, false}, bus.connected()); diff != "" {
		t.Errorf("published (-want +got):\n%s", diff)
	}
}

func TestMonitor_AdapterHotplug(t *testing.T) {
	m, bus := newTestMonitor(t, Options{Adapter: "hci0"})
	dev := dbus.ObjectPath("/org/bluez/hci0/dev_AA_AA_AA_AA_AA_AA")

	m.handleSignal(propertiesChanged(dev, bluezDevice1, map[string]dbus.Variant{
		"Connected": dbus.MakeVariant(true),
	}))

	m.handleHotplug("remove", "hci1")
	m.handleHotplug("change", "hci0")
	select {
	case action := <-m.hotplugCh:
		t.Fatalf("queued %q for an event that does not concern the adapter", action)
	default:
	}

	m.handleHotplug("remove", "hci0")
	if !m.Connected() {
		t.Fatal("remove was applied outside the run loop")
	}
	action := <-m.hotplugCh
	if action != "remove" {
		t.Fatalf("queued %q, want remove", action)
	}
	m.adapterRemoved()
	if m.Connected() {
		t.Error("Connected() = true after the adapter was removed")
	}

	m.handleHotplug("add", "hci0")
	select {
	case action := <-m.hotplugCh:
		if action != "add" {
			t.Errorf("queued %q, want add", action)
		}
	default:
		t.Error("adapter add did not request a resync")
	}

	if diff := cmp.Diff([]bool{true, false}, bus.connected()); diff != "" {
		t.Errorf("published (-want +got):\n%s", diff)
	}
}
