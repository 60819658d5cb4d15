package events

import (
	"github.com/kelindar/event"
)

// Bus is the daemon's in-process broadcast channel. Every subscriber of a
// type receives every event of that type; handlers run asynchronously.
type Bus struct {
	dispatcher *event.Dispatcher
}

// New creates an empty bus.
func New() *Bus {
	return &Bus{
		dispatcher: event.NewDispatcher(),
	}
}

// Publish delivers ev to the subscribers of its concrete type. Device
// events are also delivered to SubscribeDevice subscribers.
func (b *Bus) Publish(ev Event) {
	switch e := ev.(type) {
	case ConnectionStateChangedEvent:
		event.Publish(b.dispatcher, e)
		event.Publish(b.dispatcher, deviceEnvelope{e})
	case ActiveProfileChangedEvent:
		event.Publish(b.dispatcher, e)
		event.Publish(b.dispatcher, deviceEnvelope{e})
	case ActiveLayerChangedEvent:
		event.Publish(b.dispatcher, e)
		event.Publish(b.dispatcher, deviceEnvelope{e})
	case ActivityStateChangedEvent:
		event.Publish(b.dispatcher, e)
		event.Publish(b.dispatcher, deviceEnvelope{e})
	case IndicatorStatusEvent:
		event.Publish(b.dispatcher, e)
	}
}

// Subscribe registers handler, whose parameter type selects the events it
// receives, e.g. func(ActiveLayerChangedEvent). It returns an unsubscribe
// function; unsupported handler types are ignored.
func (b *Bus) Subscribe(handler any) func() {
	switch h := handler.(type) {
	case func(ConnectionStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ActiveProfileChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ActiveLayerChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(ActivityStateChangedEvent):
		return event.Subscribe(b.dispatcher, h)
	case func(IndicatorStatusEvent):
		return event.Subscribe(b.dispatcher, h)
	default:
		return func() {}
	}
}

// deviceEnvelope carries any DeviceEvent under one type id, so a single
// subscriber observes device events in publish order regardless of their type.
type deviceEnvelope struct {
	ev DeviceEvent
}

func (deviceEnvelope) Type() uint32 { return typeDeviceEnvelope }

// SubscribeDevice subscribes fn to all four device notifications, delivered
// in the order they were published.
func (b *Bus) SubscribeDevice(fn func(DeviceEvent)) func() {
	return event.Subscribe(b.dispatcher, func(e deviceEnvelope) {
		fn(e.ev)
	})
}

// SubscribeToChannel forwards every event of type T to ch, for consumers
// that select over several sources such as the SSE stream. Events are
// dropped while ch is full so a slow reader never stalls the bus.
func SubscribeToChannel[T Event](bus *Bus, ch chan<- any) func() {
	return event.Subscribe(bus.dispatcher, func(e T) {
		select {
		case ch <- e:
		default:
		}
	})
}
