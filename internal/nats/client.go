package nats

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/smazurov/statusled/internal/events"
)

// ErrNotConnected is returned when publishing without a NATS connection.
var ErrNotConnected = errors.New("not connected to NATS")

// Publisher sends device events to a statusled daemon over NATS. It
// gracefully degrades when NATS is unavailable.
type Publisher struct {
	url       string
	name      string
	conn      *nats.Conn
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
}

// NewPublisher creates a publisher. name identifies the reporter in server
// connection listings.
func NewPublisher(url, name string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &Publisher{
		url:    url,
		name:   name,
		logger: logger.With("component", "nats-publisher", "reporter", name),
	}
}

// Connect establishes a connection to the NATS server.
func (p *Publisher) Connect() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	opts := []nats.Option{
		nats.Name("statusled-" + p.name),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			p.mu.Lock()
			p.connected = false
			p.mu.Unlock()
			if err != nil {
				p.logger.Warn("NATS disconnected", "error", err)
			} else {
				p.logger.Debug("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			p.mu.Lock()
			p.connected = true
			p.mu.Unlock()
			p.logger.Info("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(p.url, opts...)
	if err != nil {
		p.logger.Warn("Failed to connect to NATS, running in offline mode", "error", err)
		return err
	}

	p.conn = conn
	p.connected = true
	p.logger.Debug("Connected to NATS", "url", p.url)
	return nil
}

// Publish sends a device event. A missing timestamp is filled in.
func (p *Publisher) Publish(ev events.DeviceEvent) error {
	p.mu.RLock()
	conn := p.conn
	connected := p.connected
	p.mu.RUnlock()

	if conn == nil || !connected {
		return ErrNotConnected
	}

	subject, data, err := EncodeEvent(stamp(ev))
	if err != nil {
		return err
	}
	return conn.Publish(subject, data)
}

// Flush waits until the server has processed every published message.
func (p *Publisher) Flush(ctx context.Context) error {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}
	return conn.FlushWithContext(ctx)
}

// SubscribeStatus calls fn for every status message the daemon publishes.
// The returned function unsubscribes.
func (p *Publisher) SubscribeStatus(fn func(StatusMessage)) (func(), error) {
	p.mu.RLock()
	conn := p.conn
	p.mu.RUnlock()
	if conn == nil {
		return nil, ErrNotConnected
	}

	sub, err := conn.Subscribe(SubjectStatus, func(msg *nats.Msg) {
		m, err := UnmarshalStatus(msg.Data)
		if err != nil {
			p.logger.Warn("Failed to unmarshal status", "error", err)
			return
		}
		fn(m)
	})
	if err != nil {
		return nil, err
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

// IsConnected returns true if connected to NATS.
func (p *Publisher) IsConnected() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.connected && p.conn != nil
}

// Close closes the NATS connection.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
	p.connected = false
	p.logger.Debug("NATS publisher closed")
}

func stamp(ev events.DeviceEvent) events.DeviceEvent {
	now := time.Now().Format(time.RFC3339)
	switch e := ev.(type) {
	case events.ConnectionStateChangedEvent:
		if e.Timestamp == "" {
			e.Timestamp = now
		}
		return e
	case events.ActiveProfileChangedEvent:
		if e.Timestamp == "" {
			e.Timestamp = now
		}
		return e
	case events.ActiveLayerChangedEvent:
		if e.Timestamp == "" {
			e.Timestamp = now
		}
		return e
	case events.ActivityStateChangedEvent:
		if e.Timestamp == "" {
			e.Timestamp = now
		}
		return e
	}
	return ev
}
