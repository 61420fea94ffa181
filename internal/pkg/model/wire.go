package model

import "encoding/json"

// Events exchanged with the telemetry push server. Join/leave carry a bare
// room-name string; the two inbound events carry the payloads below.
const (
	EventJoin              = "join"
	EventLeave             = "leave"
	EventNewDatastream     = "new-datastream"
	EventDeviceStateChange = "device-state-change"
)

// Envelope frames every message on the push channel.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WireTime tolerates producers sending timestamps as either JSON strings or
// numbers (epoch millis) and normalises both to a string.
type WireTime string

func (w *WireTime) UnmarshalJSON(data []byte) error {
	if len(data) == 0 || string(data) == "null" {
		*w = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*w = WireTime(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*w = WireTime(n.String())
	return nil
}

func (w WireTime) String() string {
	return string(w)
}

// DatastreamBody holds the fields shared by both shapes of the
// new-datastream push. The wire spelling of "recievedAt" is historical.
type DatastreamBody struct {
	TelemetryDataID int      `json:"telemetryDataId"`
	Value           any      `json:"value"`
	ReceivedAt      WireTime `json:"recievedAt"`
}

// DatastreamPayload accepts the two shapes sensor producers have used over
// time: nested ({dataStream: {...}, timestamp}) and flat. Presence of
// DataStream discriminates.
type DatastreamPayload struct {
	DataStream *DatastreamBody `json:"dataStream"`
	DatastreamBody
	Timestamp WireTime `json:"timestamp"`
}

// Resolve extracts the variable id, value and reported time from whichever
// shape is present. ok is false when the id is missing or the value was never
// set, such a message must be discarded. An explicit JSON null value is
// indistinguishable from an absent field after unmarshalling and is treated
// as absent.
func (p DatastreamPayload) Resolve() (telemetryDataID int, value any, timestamp string, ok bool) {
	body := p.DatastreamBody
	if p.DataStream != nil {
		body = *p.DataStream
	}
	timestamp = p.Timestamp.String()
	if timestamp == "" {
		timestamp = body.ReceivedAt.String()
	}
	if body.TelemetryDataID == 0 || body.Value == nil {
		return 0, nil, "", false
	}
	return body.TelemetryDataID, body.Value, timestamp, true
}

// DeviceStateMetadata identifies the device state slot a state-change push
// refers to.
type DeviceStateMetadata struct {
	DeviceUUID string `json:"deviceUuid"`
	StateName  string `json:"stateName"`
	NewValue   any    `json:"newValue"`
}

// DeviceStatePayload is the device-state-change push.
type DeviceStatePayload struct {
	Metadata  DeviceStateMetadata `json:"metadata"`
	Timestamp WireTime            `json:"timestamp"`
}
