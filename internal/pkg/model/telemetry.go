package model

// TelemetryValue is the latest value seen for one variable or state slot.
// IsNew marks a value that arrived within the highlight window.
type TelemetryValue struct {
	Value     any    `json:"value"`
	Timestamp string `json:"timestamp"`
	IsNew     bool   `json:"isNew"`
}

// EntityTelemetryData is the live record for one monitored entity. Values is
// keyed by the stringified variable id (sensors) or state id (devices);
// LastUpdate is empty until the first push lands.
type EntityTelemetryData struct {
	Connected  bool                      `json:"connected"`
	LastUpdate string                    `json:"lastUpdate"`
	Values     map[string]TelemetryValue `json:"values"`
}
