package events

// Event type constants for kelindar/event.
const (
	TypeConnectionStateChanged uint32 = iota + 1
	TypeActiveProfileChanged
	TypeActiveLayerChanged
	TypeActivityStateChanged
	TypeIndicatorStatus

	typeDeviceEnvelope uint32 = 100
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DeviceEvent is a state-change notification about the input device. The set
// of implementations is closed: only the four notification types in this
// package satisfy it.
type DeviceEvent interface {
	Event
	deviceEvent()
}

// ActivityState is the power state reported by the device.
type ActivityState string

// Activity states.
const (
	ActivityActive ActivityState = "active"
	ActivityIdle   ActivityState = "idle"
	ActivitySleep  ActivityState = "sleep"
)

// Valid reports whether s is a known activity state.
func (s ActivityState) Valid() bool {
	switch s {
	case ActivityActive, ActivityIdle, ActivitySleep:
		return true
	default:
		return false
	}
}

// ConnectionStateChangedEvent reports whether the active radio profile is connected.
type ConnectionStateChangedEvent struct {
	Connected bool   `json:"connected" example:"true" doc:"Whether the active profile has a connected host"`
	Source    string `json:"source,omitempty" example:"bluez" doc:"Origin of the notification"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ConnectionStateChangedEvent.
func (e ConnectionStateChangedEvent) Type() uint32 { return TypeConnectionStateChanged }

func (ConnectionStateChangedEvent) deviceEvent() {}

// ActiveProfileChangedEvent reports a switch of the active radio profile.
type ActiveProfileChangedEvent struct {
	ProfileIndex uint   `json:"profile_index" example:"2" doc:"Zero-based index of the active profile"`
	Timestamp    string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ActiveProfileChangedEvent.
func (e ActiveProfileChangedEvent) Type() uint32 { return TypeActiveProfileChanged }

func (ActiveProfileChangedEvent) deviceEvent() {}

// ActiveLayerChangedEvent reports a change of the highest active keymap layer.
type ActiveLayerChangedEvent struct {
	LayerIndex uint   `json:"layer_index" example:"1" doc:"Zero-based index of the highest active layer"`
	Timestamp  string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ActiveLayerChangedEvent.
func (e ActiveLayerChangedEvent) Type() uint32 { return TypeActiveLayerChanged }

func (ActiveLayerChangedEvent) deviceEvent() {}

// ActivityStateChangedEvent reports a device power state transition.
type ActivityStateChangedEvent struct {
	State     ActivityState `json:"state" enum:"active,idle,sleep" example:"sleep" doc:"New activity state"`
	Timestamp string        `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ActivityStateChangedEvent.
func (e ActivityStateChangedEvent) Type() uint32 { return TypeActivityStateChanged }

func (ActivityStateChangedEvent) deviceEvent() {}

// IndicatorStatusEvent is published by the indicator whenever the pattern
// owning the LED changes.
type IndicatorStatusEvent struct {
	Pattern   string `json:"pattern" example:"connected" doc:"Pattern owning the LED: idle, advertising, connected, sequence, suspended"`
	Connected bool   `json:"connected" doc:"Cached connection state"`
	Suspended bool   `json:"suspended" doc:"Whether the device is asleep"`
	Remaining int    `json:"remaining,omitempty" doc:"Blinks left in the active sequence"`
	Degraded  bool   `json:"degraded,omitempty" doc:"LED unavailable; indicator is a no-op"`
	Timestamp string `json:"timestamp" example:"2025-01-27T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for IndicatorStatusEvent.
func (e IndicatorStatusEvent) Type() uint32 { return TypeIndicatorStatus }
