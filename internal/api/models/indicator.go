package models

// IndicatorSequence describes an active blink burst.
type IndicatorSequence struct {
	Remaining int   `json:"remaining" example:"3" doc:"Blinks left"`
	OnMs      int64 `json:"on_ms" example:"120" doc:"On-time of each blink in milliseconds"`
	OffMs     int64 `json:"off_ms" example:"120" doc:"Off-time after each blink in milliseconds"`
}

// IndicatorStatus is a snapshot of the status LED.
type IndicatorStatus struct {
	Pattern   string             `json:"pattern" enum:"idle,advertising,connected,sequence,suspended" example:"connected" doc:"Pattern owning the LED"`
	Connected bool               `json:"connected" example:"true" doc:"Cached connection state"`
	Suspended bool               `json:"suspended" example:"false" doc:"Whether the device is asleep"`
	LineOn    bool               `json:"line_on" example:"false" doc:"Current output level"`
	Degraded  bool               `json:"degraded" example:"false" doc:"LED unavailable; indicator is a no-op"`
	Sequence  *IndicatorSequence `json:"sequence,omitempty" doc:"Active sequence, if any"`
}

type IndicatorStatusResponse struct {
	Body IndicatorStatus
}

// Event injection requests. Each one is published on the event bus exactly
// as if it came from the device.

type ConnectionRequest struct {
	Body struct {
		Connected bool `json:"connected" example:"true" doc:"Whether the active profile has a connected host"`
	}
}

type ProfileRequest struct {
	Body struct {
		ProfileIndex uint `json:"profile_index" example:"2" doc:"Zero-based profile index; values above 31 are ignored by the indicator"`
	}
}

type LayerRequest struct {
	Body struct {
		LayerIndex uint `json:"layer_index" example:"1" doc:"Zero-based highest active layer; values above 31 are ignored by the indicator"`
	}
}

type ActivityRequest struct {
	Body struct {
		State string `json:"state" enum:"active,idle,sleep" example:"sleep" doc:"New activity state"`
	}
}

type InjectResponse struct {
	Body struct {
		Event string `json:"event" example:"profile" doc:"Kind of event published"`
	}
}
