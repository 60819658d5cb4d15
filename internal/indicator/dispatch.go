package indicator

import (
	"fmt"

	"github.com/smazurov/statusled/internal/events"
)

// Handle routes one device notification to its handler. It never consumes
// the event; other bus subscribers receive it independently.
func (s *Scheduler) Handle(ev events.DeviceEvent) {
	switch e := ev.(type) {
	case events.ConnectionStateChangedEvent:
		s.SetConnected(e.Connected)
	case events.ActiveProfileChangedEvent:
		s.StartSequence(blinkCount(e.ProfileIndex), s.timings.ProfileOn, s.timings.ProfileOff)
	case events.ActiveLayerChangedEvent:
		s.StartSequence(blinkCount(e.LayerIndex), s.timings.LayerOn, s.timings.LayerOff)
	case events.ActivityStateChangedEvent:
		switch e.State {
		case events.ActivitySleep:
			s.Suspend()
		case events.ActivityActive:
			s.Resume()
		case events.ActivityIdle:
		default:
			s.logger.Warn("Unknown activity state", "state", e.State)
		}
	default:
		s.logger.Warn("Unhandled device event", "type", fmt.Sprintf("%T", ev))
	}
}

// blinkCount converts a zero-based index into the number of blinks that
// encodes it. Indices beyond MaxSequenceCount map to an out-of-range count.
func blinkCount(index uint) int {
	if index >= MaxSequenceCount {
		return MaxSequenceCount + 1
	}
	return int(index) + 1
}
