package nats

import (
	"encoding/json"
	"fmt"

	"github.com/smazurov/statusled/internal/events"
)

// Subjects.
const (
	SubjectEventsPrefix = "statusled.events"
	SubjectStatus       = "statusled.status"

	SubjectConnection = SubjectEventsPrefix + ".connection"
	SubjectProfile    = SubjectEventsPrefix + ".profile"
	SubjectLayer      = SubjectEventsPrefix + ".layer"
	SubjectActivity   = SubjectEventsPrefix + ".activity"
)

// ConnectionMessage reports the host connection state.
type ConnectionMessage struct {
	Connected bool   `json:"connected"`
	Source    string `json:"source,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// ProfileMessage reports the active profile index.
type ProfileMessage struct {
	ProfileIndex uint   `json:"profile_index"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// LayerMessage reports the highest active layer index.
type LayerMessage struct {
	LayerIndex uint   `json:"layer_index"`
	Timestamp  string `json:"timestamp,omitempty"`
}

// ActivityMessage reports the device activity state.
type ActivityMessage struct {
	State     string `json:"state"` // active, idle, sleep
	Timestamp string `json:"timestamp,omitempty"`
}

// StatusMessage mirrors events.IndicatorStatusEvent on NATS.
type StatusMessage struct {
	Pattern   string `json:"pattern"`
	Connected bool   `json:"connected"`
	Suspended bool   `json:"suspended"`
	Remaining int    `json:"remaining,omitempty"`
	Degraded  bool   `json:"degraded"`
	Timestamp string `json:"timestamp"`
}

// Subject returns the subject a device event travels on.
func Subject(ev events.DeviceEvent) string {
	switch ev.(type) {
	case events.ConnectionStateChangedEvent:
		return SubjectConnection
	case events.ActiveProfileChangedEvent:
		return SubjectProfile
	case events.ActiveLayerChangedEvent:
		return SubjectLayer
	case events.ActivityStateChangedEvent:
		return SubjectActivity
	}
	return ""
}

// EncodeEvent serializes a device event into its subject and payload.
func EncodeEvent(ev events.DeviceEvent) (string, []byte, error) {
	var msg any
	switch e := ev.(type) {
	case events.ConnectionStateChangedEvent:
		msg = ConnectionMessage{Connected: e.Connected, Source: e.Source, Timestamp: e.Timestamp}
	case events.ActiveProfileChangedEvent:
		msg = ProfileMessage{ProfileIndex: e.ProfileIndex, Timestamp: e.Timestamp}
	case events.ActiveLayerChangedEvent:
		msg = LayerMessage{LayerIndex: e.LayerIndex, Timestamp: e.Timestamp}
	case events.ActivityStateChangedEvent:
		msg = ActivityMessage{State: string(e.State), Timestamp: e.Timestamp}
	default:
		return "", nil, fmt.Errorf("unsupported event %T", ev)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return "", nil, err
	}
	return Subject(ev), data, nil
}

// DecodeEvent parses a payload received on subject into a device event.
func DecodeEvent(subject string, data []byte) (events.DeviceEvent, error) {
	switch subject {
	case SubjectConnection:
		var m ConnectionMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return events.ConnectionStateChangedEvent{Connected: m.Connected, Source: m.Source, Timestamp: m.Timestamp}, nil
	case SubjectProfile:
		var m ProfileMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return events.ActiveProfileChangedEvent{ProfileIndex: m.ProfileIndex, Timestamp: m.Timestamp}, nil
	case SubjectLayer:
		var m LayerMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		return events.ActiveLayerChangedEvent{LayerIndex: m.LayerIndex, Timestamp: m.Timestamp}, nil
	case SubjectActivity:
		var m ActivityMessage
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, err
		}
		state := events.ActivityState(m.State)
		if !state.Valid() {
			return nil, fmt.Errorf("unknown activity state %q", m.State)
		}
		return events.ActivityStateChangedEvent{State: state, Timestamp: m.Timestamp}, nil
	}
	return nil, fmt.Errorf("unknown subject %q", subject)
}

// Marshal serializes the message to JSON.
func (m StatusMessage) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// UnmarshalStatus deserializes a StatusMessage from JSON.
func UnmarshalStatus(data []byte) (StatusMessage, error) {
	var m StatusMessage
	err := json.Unmarshal(data, &m)
	return m, err
}
