package telemetry

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
	"github.com/anicoll/telemetry-integration/pkg/sockets"
)

// fakeConn is a mock implementation of sockets.Connection recording
// everything sent through it.
type fakeConn struct {
	mu        sync.Mutex
	sent      [][]byte
	dialErr   error
	dialCalls int
}

func (f *fakeConn) Dial(ctx context.Context, url string, header http.Header) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dialCalls++
	return f.dialErr
}

func (f *fakeConn) Send(msg sockets.Msg) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg.Body)
	return nil
}

func (f *fakeConn) Close() error { return nil }

func (f *fakeConn) sentEnvelopes(t *testing.T) []model.Envelope {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	envelopes := make([]model.Envelope, 0, len(f.sent))
	for _, body := range f.sent {
		env := model.Envelope{}
		if err := json.Unmarshal(body, &env); err != nil {
			t.Fatalf("unparseable frame %q: %v", body, err)
		}
		envelopes = append(envelopes, env)
	}
	return envelopes
}

// sentRooms returns the room names sent for one event type, in order.
func (f *fakeConn) sentRooms(t *testing.T, event string) []string {
	t.Helper()
	rooms := []string{}
	for _, env := range f.sentEnvelopes(t) {
		if env.Event != event {
			continue
		}
		var room string
		if err := json.Unmarshal(env.Data, &room); err != nil {
			t.Fatalf("room payload is not a bare string: %v", err)
		}
		rooms = append(rooms, room)
	}
	return rooms
}

func (f *fakeConn) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.dialCalls
}

func sensorEntity() model.MonitoredEntity {
	return model.MonitoredEntity{
		ID:               "sensor-7",
		Type:             model.EntityTypeSensor,
		EntityID:         7,
		Name:             "Greenhouse North",
		AreaName:         "Greenhouse",
		OrganizationName: "Acme Farms",
		TelemetryVariables: []model.TelemetryVariable{
			{ID: 42, VariableName: "temperature"},
			{ID: 43, VariableName: "humidity"},
		},
	}
}

func deviceEntity() model.MonitoredEntity {
	return model.MonitoredEntity{
		ID:               "device-3",
		Type:             model.EntityTypeDevice,
		EntityID:         3,
		UUID:             "abc-123",
		Name:             "Irrigation Pump",
		AreaName:         "Greenhouse",
		OrganizationName: "Acme Farms",
		States: []model.DeviceState{
			{ID: 1, StateName: "power", DefaultValue: "off", Instances: []model.StateInstance{{Value: "on"}}},
			{ID: 2, StateName: "mode", DefaultValue: "auto"},
		},
	}
}
