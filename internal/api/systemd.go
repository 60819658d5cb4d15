package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/smazurov/statusled/internal/api/models"
)

// registerSystemdRoutes exposes the Bluetooth daemon's unit state.
func (s *Server) registerSystemdRoutes() {
	mgr, unit := s.options.SystemdManager, s.options.BluetoothUnit
	if mgr == nil || unit == "" {
		return
	}

	huma.Register(s.api, huma.Operation{
		OperationID: "get-bluetooth-status",
		Method:      http.MethodGet,
		Path:        "/api/systemd/bluetooth/status",
		Summary:     "Bluetooth status",
		Description: "Report the Bluetooth daemon's unit state and whether BlueZ reconciliation is active",
		Tags:        []string{"systemd"},
		Security:    withAuth(),
		Errors:      []int{401, 502},
	}, func(ctx context.Context, _ *struct{}) (*models.BluetoothStatusResponse, error) {
		state, err := mgr.ServiceState(ctx, unit)
		if err != nil {
			return nil, huma.Error502BadGateway("systemd query failed", err)
		}
		return &models.BluetoothStatusResponse{Body: models.BluetoothStatus{
			Unit:        unit,
			State:       state,
			Active:      state == "active",
			Reconciling: s.options.Reconciling,
		}}, nil
	})
}
