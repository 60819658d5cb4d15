// Package indicator drives a single status LED for a wireless input device.
//
// One output line conveys several mutually exclusive pieces of state:
//
//	advertising  toggle every 300ms while no host is connected
//	connected    50ms pulse once per second while a host is connected
//	sequence     N short blinks for profile N-1 or layer N-1, then back
//	suspended    off while the device sleeps
//
// # Ownership
//
// The Scheduler owns all indicator state. Exactly one chain of timer
// callbacks drives the line at a time: the persistent pattern (advertising
// or connected, derived from the cached connection state) or an active
// sequence. Starting a sequence cancels the persistent chain; finishing it
// re-arms the persistent chain for the connection state at that moment.
// Suspending cancels every timer and forces the line off.
//
// # Threading
//
// Scheduler is not safe for concurrent use. Every method, and every timer
// callback it arms, must run on the single thread of its timer.Service. The
// Manager provides that thread with a timer.Loop and feeds it device events
// from the event bus:
//
//	mgr := indicator.NewManager(indicator.ManagerOptions{
//		Line:     line,
//		EventBus: bus,
//	})
//	if err := mgr.Start(); err != nil {
//		// led.ErrDeviceNotReady: the indicator stays a no-op.
//	}
//	defer mgr.Stop()
//
// # Reconciliation
//
// When a ConnectionProbe is configured the scheduler polls it every 250ms and
// corrects the cached connection state if a notification was missed. A poll
// that finds nothing to correct neither cancels nor arms any pattern timer.
package indicator
