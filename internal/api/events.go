package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/sse"
	"github.com/smazurov/statusled/internal/events"
)

// registerSSERoutes registers the native Huma SSE endpoint.
func (s *Server) registerSSERoutes() {
	sse.Register(s.api, huma.Operation{
		OperationID: "events-stream",
		Method:      http.MethodGet,
		Path:        "/api/events",
		Summary:     "Server-Sent Events Stream",
		Description: "Real-time indicator status and device events. The current status is sent first.",
		Tags:        []string{"events"},
		Security:    withAuth(),
		Errors:      []int{401},
	}, map[string]any{
		"indicator-status": events.IndicatorStatusEvent{},
		"connection":       events.ConnectionStateChangedEvent{},
		"profile":          events.ActiveProfileChangedEvent{},
		"layer":            events.ActiveLayerChangedEvent{},
		"activity":         events.ActivityStateChangedEvent{},
	}, func(ctx context.Context, _ *struct{}, send sse.Sender) {
		if s.eventBus == nil {
			return
		}

		eventCh := make(chan any, 32)
		unsubscribers := []func(){
			events.SubscribeToChannel[events.IndicatorStatusEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ConnectionStateChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ActiveProfileChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ActiveLayerChangedEvent](s.eventBus, eventCh),
			events.SubscribeToChannel[events.ActivityStateChangedEvent](s.eventBus, eventCh),
		}
		defer func() {
			for _, unsub := range unsubscribers {
				unsub()
			}
		}()

		if s.options.Indicator != nil {
			if st, err := s.options.Indicator.Status(ctx); err == nil {
				if err := send.Data(st.Event()); err != nil {
					return
				}
			}
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventCh:
				if err := send.Data(event); err != nil {
					return
				}
			}
		}
	})
}
