package nats

import (
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/statusled/internal/events"
)

// Bridge subscribes to device event subjects and forwards them to the event
// bus. Indicator status changes on the bus are published to SubjectStatus.
type Bridge struct {
	url         string
	eventBus    *events.Bus
	conn        *nats.Conn
	subs        []*nats.Subscription
	unsubStatus func()
	logger      *slog.Logger
	mu          sync.Mutex
}

// NewBridge creates a new NATS-to-EventBus bridge.
func NewBridge(url string, eventBus *events.Bus, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}

	return &Bridge{
		url:      url,
		eventBus: eventBus,
		logger:   logger.With("component", "nats-bridge"),
	}
}

// Start connects to NATS and subscribes to the event subjects.
func (b *Bridge) Start() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	conn, err := nats.Connect(b.url,
		nats.Name("statusled-bridge"),
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				b.logger.Warn("NATS bridge disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			b.logger.Info("NATS bridge reconnected")
		}),
	)
	if err != nil {
		return err
	}

	b.conn = conn
	b.logger.Info("NATS bridge connected", "url", b.url)

	// Single wildcard subscription keeps publish order across event kinds.
	sub, err := conn.Subscribe(SubjectEventsPrefix+".*", b.handleEvent)
	if err != nil {
		b.cleanup()
		return err
	}
	b.subs = append(b.subs, sub)
	if err := conn.Flush(); err != nil {
		b.cleanup()
		return err
	}

	b.unsubStatus = b.eventBus.Subscribe(b.handleStatus)

	b.logger.Info("NATS bridge subscribed to event subjects")
	return nil
}

// handleEvent decodes an incoming device event and publishes it on the bus.
func (b *Bridge) handleEvent(msg *nats.Msg) {
	ev, err := DecodeEvent(msg.Subject, msg.Data)
	if err != nil {
		b.logger.Warn("Dropping malformed event", "error", err, "subject", msg.Subject)
		return
	}

	b.eventBus.Publish(ev)
	b.logger.Debug("Published device event", "subject", msg.Subject)
}

// handleStatus mirrors an indicator status change onto NATS.
func (b *Bridge) handleStatus(e events.IndicatorStatusEvent) {
	b.mu.Lock()
	conn := b.conn
	b.mu.Unlock()
	if conn == nil {
		return
	}

	data, err := StatusMessage{
		Pattern:   e.Pattern,
		Connected: e.Connected,
		Suspended: e.Suspended,
		Remaining: e.Remaining,
		Degraded:  e.Degraded,
		Timestamp: e.Timestamp,
	}.Marshal()
	if err != nil {
		b.logger.Warn("Failed to marshal status", "error", err)
		return
	}
	if err := conn.Publish(SubjectStatus, data); err != nil {
		b.logger.Warn("Failed to publish status", "error", err)
	}
}

// cleanup unsubscribes and closes connection.
func (b *Bridge) cleanup() {
	for _, sub := range b.subs {
		_ = sub.Unsubscribe()
	}
	b.subs = nil

	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
	}
}

// Stop closes the bridge connection.
func (b *Bridge) Stop() {
	// The status handler takes mu, so unsubscribe from the bus without it.
	b.mu.Lock()
	unsub := b.unsubStatus
	b.unsubStatus = nil
	b.mu.Unlock()
	if unsub != nil {
		unsub()
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.cleanup()
	b.logger.Info("NATS bridge stopped")
}

// IsConnected returns true if the bridge is connected to NATS.
func (b *Bridge) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conn != nil && b.conn.IsConnected()
}
