// Package nats provides embedded NATS messaging between the statusled daemon
// and the processes that report device state to it (firmware shims, the
// `statusled send` command, test harnesses).
//
// # Architecture
//
//   - Server: Embedded NATS server running in the daemon (statusled serve)
//   - Publisher: NATS client used by reporters to send device events
//   - Bridge: Subscribes to event subjects and publishes to the event bus,
//     and mirrors indicator status changes back onto NATS
//
// # Subject Hierarchy
//
//	statusled.events.connection   # Connection state (reporter → daemon)
//	statusled.events.profile      # Active profile index (reporter → daemon)
//	statusled.events.layer        # Highest active layer index (reporter → daemon)
//	statusled.events.activity     # Activity state (reporter → daemon)
//	statusled.status              # Indicator status (daemon → subscribers)
//
// The package uses fire-and-forget messaging (core NATS, no JetStream).
// Publishers gracefully degrade when NATS is unavailable.
//
// # Useful Debug Commands
//
// Monitor everything:
//
//	nats sub "statusled.>"
//
// Switch to profile 3 (four blinks):
//
//	nats pub statusled.events.profile '{"profile_index":3}'
//
// Put the indicator to sleep and wake it again:
//
//	nats pub statusled.events.activity '{"state":"sleep"}'
//	nats pub statusled.events.activity '{"state":"active"}'
//
// # Message Formats
//
// ConnectionMessage (statusled.events.connection):
//
//	{
//	  "connected": true,
//	  "source": "firmware",
//	  "timestamp": "2024-01-01T12:00:00Z"
//	}
//
// StatusMessage (statusled.status):
//
//	{
//	  "pattern": "sequence",
//	  "connected": true,
//	  "suspended": false,
//	  "remaining": 2,
//	  "degraded": false,
//	  "timestamp": "2024-01-01T12:00:00Z"
//	}
package nats
