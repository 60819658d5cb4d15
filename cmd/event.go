package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/smazurov/statusled/internal/events"
)

// eventKinds lists the arguments accepted by parseEvent, for help text.
const eventKinds = "connection <true|false>, profile <index>, layer <index>, activity <active|idle|sleep>"

// parseEvent builds a device event from a kind and a single value, e.g.
// ("profile", "2") or ("connection", "true").
func parseEvent(kind, value string) (events.DeviceEvent, error) {
	switch strings.ToLower(kind) {
	case "connection", "conn":
		connected, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("connection expects true or false, got %q", value)
		}
		return events.ConnectionStateChangedEvent{Connected: connected, Source: "cli"}, nil

	case "profile":
		index, err := parseIndex(value)
		if err != nil {
			return nil, err
		}
		return events.ActiveProfileChangedEvent{ProfileIndex: index}, nil

	case "layer":
		index, err := parseIndex(value)
		if err != nil {
			return nil, err
		}
		return events.ActiveLayerChangedEvent{LayerIndex: index}, nil

	case "activity":
		state := events.ActivityState(strings.ToLower(value))
		if !state.Valid() {
			return nil, fmt.Errorf("activity expects active, idle or sleep, got %q", value)
		}
		return events.ActivityStateChangedEvent{State: state}, nil

	default:
		return nil, fmt.Errorf("unknown event %q (want %s)", kind, eventKinds)
	}
}

func parseIndex(value string) (uint, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("index must be a non-negative integer, got %q", value)
	}
	return uint(n), nil
}
