package indicator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/led"
	"github.com/smazurov/statusled/internal/timer"
)

// ManagerOptions configures a Manager.
type ManagerOptions struct {
	Line     led.Line
	EventBus *events.Bus
	Probe    ConnectionProbe // optional, enables reconciliation
	Timings  *Timings        // optional, defaults to DefaultTimings
	Recorder Recorder        // optional
	Logger   *slog.Logger
	Clock    clockwork.Clock // optional, defaults to the wall clock
}

// Manager runs a Scheduler on its own loop and feeds it device events from
// the event bus. Status changes are published back to the bus as
// events.IndicatorStatusEvent.
type Manager struct {
	scheduler *Scheduler
	loop      *timer.Loop
	eventBus  *events.Bus
	logger    *slog.Logger

	mu          sync.Mutex
	unsubscribe func()
	cancel      context.CancelFunc
	stopped     bool
}

// NewManager creates a manager. Nothing runs until Start.
func NewManager(opts ManagerOptions) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		loop:     timer.NewLoop(opts.Clock),
		eventBus: opts.EventBus,
		logger:   logger,
	}

	schedOpts := []Option{
		WithLogger(logger),
		WithStatusHandler(m.publishStatus),
	}
	if opts.Probe != nil {
		schedOpts = append(schedOpts, WithProbe(opts.Probe))
	}
	if opts.Timings != nil {
		schedOpts = append(schedOpts, WithTimings(*opts.Timings))
	}
	if opts.Recorder != nil {
		schedOpts = append(schedOpts, WithRecorder(opts.Recorder))
	}
	m.scheduler = NewScheduler(opts.Line, m.loop, schedOpts...)
	return m
}

// Start runs the loop, boots the scheduler and subscribes to device events.
// If the LED is not ready the error is returned and no events are consumed;
// the rest of the process is unaffected. A stopped Manager cannot be restarted.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return timer.ErrLoopStopped
	}
	if m.cancel != nil {
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	go m.loop.Run(ctx)

	var startErr error
	if err := m.loop.Do(ctx, func() { startErr = m.scheduler.Start() }); err != nil {
		return err
	}
	if startErr != nil {
		if errors.Is(startErr, ErrDeviceNotReady) {
			m.logger.Warn("Status LED unavailable, indicator disabled", "error", startErr)
		}
		return startErr
	}

	if m.eventBus != nil {
		m.unsubscribe = m.eventBus.SubscribeDevice(m.post)
	}
	m.logger.Info("Indicator manager started")
	return nil
}

// Stop unsubscribes, turns the line off and stops the loop.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel == nil {
		return
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := m.loop.Do(ctx, m.scheduler.Stop); err != nil {
		m.logger.Warn("Failed to stop indicator cleanly", "error", err)
	}

	m.cancel()
	<-m.loop.Done()
	m.cancel = nil
	m.stopped = true
	m.logger.Info("Indicator manager stopped")
}

// post hands a device event to the loop. Events arriving after Stop are dropped.
func (m *Manager) post(e events.DeviceEvent) {
	if !m.loop.Post(func() { m.scheduler.Handle(e) }) {
		m.logger.Debug("Dropping device event, indicator stopped", "event", e)
	}
}

// Status returns a snapshot taken on the scheduler thread.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	var st Status
	err := m.loop.Do(ctx, func() { st = m.scheduler.Status() })
	return st, err
}

// UpdateTimings validates t and applies it on the scheduler thread.
func (m *Manager) UpdateTimings(t Timings) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if !m.loop.Post(func() { m.scheduler.SetTimings(t) }) {
		return timer.ErrLoopStopped
	}
	m.logger.Info("Indicator timings updated")
	return nil
}

// publishStatus runs on the scheduler thread; the bus never blocks it.
func (m *Manager) publishStatus(st Status) {
	if m.eventBus == nil {
		return
	}
	m.eventBus.Publish(st.Event())
}

// Event converts the snapshot to its bus representation.
func (st Status) Event() events.IndicatorStatusEvent {
	ev := events.IndicatorStatusEvent{
		Pattern:   string(st.Pattern),
		Connected: st.Connected,
		Suspended: st.Suspended,
		Degraded:  st.Degraded,
		Timestamp: time.Now().Format(time.RFC3339),
	}
	if st.Sequence != nil {
		ev.Remaining = st.Sequence.Remaining
	}
	return ev
}
