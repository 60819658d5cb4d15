package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/statusled/internal/api/models"
	"github.com/smazurov/statusled/internal/events"
	"github.com/smazurov/statusled/internal/indicator"
)

// registerIndicatorRoutes registers status and event injection endpoints.
func (s *Server) registerIndicatorRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "get-indicator",
		Method:      http.MethodGet,
		Path:        "/api/indicator",
		Summary:     "Indicator Status",
		Description: "Get the pattern currently owning the status LED",
		Tags:        []string{"indicator"},
		Security:    withAuth(),
		Errors:      []int{401, 503},
	}, func(ctx context.Context, _ *struct{}) (*models.IndicatorStatusResponse, error) {
		if s.options.Indicator == nil {
			return nil, huma.Error503ServiceUnavailable("Indicator not running")
		}
		st, err := s.options.Indicator.Status(ctx)
		if err != nil {
			return nil, huma.Error503ServiceUnavailable("Indicator not running", err)
		}
		return &models.IndicatorStatusResponse{Body: toAPIStatus(st)}, nil
	})

	registerInject(s, "connection", "Inject Connection Change",
		"Publish a connection state change as if reported by the radio",
		func(in *models.ConnectionRequest) events.DeviceEvent {
			return events.ConnectionStateChangedEvent{Connected: in.Body.Connected, Source: "api"}
		})

	registerInject(s, "profile", "Inject Profile Change",
		"Publish an active profile change; the LED blinks index+1 times",
		func(in *models.ProfileRequest) events.DeviceEvent {
			return events.ActiveProfileChangedEvent{ProfileIndex: in.Body.ProfileIndex}
		})

	registerInject(s, "layer", "Inject Layer Change",
		"Publish a highest-layer change; the LED blinks index+1 times",
		func(in *models.LayerRequest) events.DeviceEvent {
			return events.ActiveLayerChangedEvent{LayerIndex: in.Body.LayerIndex}
		})

	registerInject(s, "activity", "Inject Activity Change",
		"Publish an activity state change; sleep silences the LED until active",
		func(in *models.ActivityRequest) events.DeviceEvent {
			return events.ActivityStateChangedEvent{State: events.ActivityState(in.Body.State)}
		})
}

// registerInject registers POST /api/indicator/{kind}, which publishes the
// event built by toEvent onto the bus.
func registerInject[I any](s *Server, kind, summary, description string, toEvent func(*I) events.DeviceEvent) {
	huma.Register(s.api, huma.Operation{
		OperationID:   "inject-" + kind,
		Method:        http.MethodPost,
		Path:          "/api/indicator/" + kind,
		Summary:       summary,
		Description:   description,
		Tags:          []string{"indicator"},
		Security:      withAuth(),
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{400, 401, 422, 503},
	}, func(_ context.Context, input *I) (*models.InjectResponse, error) {
		if s.eventBus == nil {
			return nil, huma.Error503ServiceUnavailable("Event bus not available")
		}
		s.eventBus.Publish(stamp(toEvent(input)))
		s.logger.Debug("Injected device event", "kind", kind)

		resp := &models.InjectResponse{}
		resp.Body.Event = kind
		return resp, nil
	})
}

// stamp fills in the event timestamp.
func stamp(ev events.DeviceEvent) events.DeviceEvent {
	now := time.Now().Format(time.RFC3339)
	switch e := ev.(type) {
	case events.ConnectionStateChangedEvent:
		e.Timestamp = now
		return e
	case events.ActiveProfileChangedEvent:
		e.Timestamp = now
		return e
	case events.ActiveLayerChangedEvent:
		e.Timestamp = now
		return e
	case events.ActivityStateChangedEvent:
		e.Timestamp = now
		return e
	}
	return ev
}

func toAPIStatus(st indicator.Status) models.IndicatorStatus {
	out := models.IndicatorStatus{
		Pattern:   string(st.Pattern),
		Connected: st.Connected,
		Suspended: st.Suspended,
		LineOn:    st.LineOn,
		Degraded:  st.Degraded,
	}
	if st.Sequence != nil {
		out.Sequence = &models.IndicatorSequence{
			Remaining: st.Sequence.Remaining,
			OnMs:      st.Sequence.On.Milliseconds(),
			OffMs:     st.Sequence.Off.Milliseconds(),
		}
	}
	return out
}
