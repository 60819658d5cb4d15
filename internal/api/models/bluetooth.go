package models

// BluetoothStatus reports the health of the Bluetooth stack that backs
// connection reconciliation.
type BluetoothStatus struct {
	Unit        string `json:"unit" example:"bluetooth.service" doc:"systemd unit of the Bluetooth daemon"`
	State       string `json:"state" example:"active" doc:"Unit ActiveState (active, inactive, failed, ...)"`
	Active      bool   `json:"active" doc:"Whether the unit is active"`
	Reconciling bool   `json:"reconciling" doc:"Whether the indicator polls BlueZ for the connection state"`
}

// BluetoothStatusResponse wraps BluetoothStatus for API responses.
type BluetoothStatusResponse struct {
	Body BluetoothStatus
}
