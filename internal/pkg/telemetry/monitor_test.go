package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
	"github.com/anicoll/telemetry-integration/pkg/sockets"
)

func newTestMonitor(t *testing.T, conn *fakeConn, opts ...Option) *Monitor {
	t.Helper()
	opts = append([]Option{
		WithLogger(zaptest.NewLogger(t)),
		WithClock(clockwork.NewFakeClock()),
		WithTransport(func() sockets.Connection { return conn }),
	}, opts...)
	m := New(testTelemetryConfig(), make(chan error, 10), opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

// startConnected dials through the fake and fires the connected callback the
// real socket would deliver.
func startConnected(t *testing.T, m *Monitor, conn *fakeConn) {
	t.Helper()
	require.NoError(t, m.Start(context.Background()))
	m.session.handleConnected(conn)
	require.True(t, m.IsConnected())
}

func TestMonitor_EntityAddedBeforeStart(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)

	m.AddEntity(sensorEntity())

	data := m.TelemetryData()["sensor-7"]
	assert.False(t, data.Connected)
	assert.Equal(t, noDataValue, data.Values["42"].Value)
	assert.Empty(t, conn.sentEnvelopes(t), "no join before the session is up")

	// the connect pass joins everything added so far
	startConnected(t, m, conn)
	assert.ElementsMatch(t, []string{"telemetry-42", "telemetry-43"}, conn.sentRooms(t, model.EventJoin))
	assert.True(t, m.TelemetryData()["sensor-7"].Connected)
}

func TestMonitor_AddEntityWhileConnected(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)
	startConnected(t, m, conn)

	m.AddEntity(deviceEntity())

	assert.Equal(t, []string{"device-uuid-abc-123"}, conn.sentRooms(t, model.EventJoin))
	data := m.TelemetryData()["device-3"]
	assert.True(t, data.Connected)
	assert.Equal(t, "on", data.Values["1"].Value)
	assert.Equal(t, "auto", data.Values["2"].Value)
}

func TestMonitor_DuplicateAddIsANoop(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)
	startConnected(t, m, conn)

	m.AddEntity(sensorEntity())
	joins := len(conn.sentRooms(t, model.EventJoin))

	changed := sensorEntity()
	changed.Name = "renamed"
	m.AddEntity(changed)

	assert.Len(t, conn.sentRooms(t, model.EventJoin), joins, "no extra joins")
	entity, _ := m.registry.Get("sensor-7")
	assert.Equal(t, "Greenhouse North", entity.Name)
}

func TestMonitor_RemoveEntity(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)
	startConnected(t, m, conn)

	m.AddEntity(sensorEntity())
	m.AddEntity(deviceEntity())

	m.RemoveEntity("sensor-7")

	assert.ElementsMatch(t, []string{"telemetry-42", "telemetry-43"}, conn.sentRooms(t, model.EventLeave))
	assert.NotContains(t, m.TelemetryData(), "sensor-7")
	assert.ElementsMatch(t, []string{"device-uuid-abc-123"}, m.JoinedRooms())

	// unknown id sends nothing
	m.RemoveEntity("sensor-7")
	assert.Len(t, conn.sentRooms(t, model.EventLeave), 2)
}

func TestMonitor_RemoveKeepsSharedRooms(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)
	startConnected(t, m, conn)

	other := sensorEntity()
	other.ID = "sensor-8"
	other.TelemetryVariables = []model.TelemetryVariable{{ID: 42, VariableName: "temperature"}}

	m.AddEntity(sensorEntity())
	m.AddEntity(other)
	m.RemoveEntity("sensor-7")

	assert.ElementsMatch(t, []string{"telemetry-43"}, conn.sentRooms(t, model.EventLeave))
	assert.ElementsMatch(t, []string{"telemetry-42"}, m.JoinedRooms())
}

func TestMonitor_DisconnectFlipsAllEntities(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)
	startConnected(t, m, conn)

	m.AddEntity(sensorEntity())
	m.AddEntity(deviceEntity())

	m.session.handleError(assert.AnError)

	for id, data := range m.TelemetryData() {
		assert.False(t, data.Connected, "entity %s", id)
	}
	assert.Empty(t, m.JoinedRooms(), "membership forgotten with the socket")

	// reconnect re-sends every join
	joinsBefore := len(conn.sentRooms(t, model.EventJoin))
	m.session.handleConnected(conn)
	require.Eventually(t, func() bool {
		return len(conn.sentRooms(t, model.EventJoin)) == joinsBefore+3
	}, time.Second, 5*time.Millisecond)
	for id, data := range m.TelemetryData() {
		assert.True(t, data.Connected, "entity %s", id)
	}
}

func TestMonitor_PushUpdatesFlowIntoTheSnapshot(t *testing.T) {
	conn := &fakeConn{}
	m := newTestMonitor(t, conn)
	startConnected(t, m, conn)
	m.AddEntity(sensorEntity())

	m.session.handleMessage([]byte(`{"event":"new-datastream","data":{"telemetryDataId":42,"value":"25.4","timestamp":"T2"}}`), conn)

	data := m.TelemetryData()["sensor-7"]
	assert.Equal(t, model.TelemetryValue{Value: "25.4", Timestamp: "T2", IsNew: true}, data.Values["42"])
	assert.Equal(t, "T2", data.LastUpdate)
}

func TestMonitor_OnValueHook(t *testing.T) {
	type seen struct {
		entityID string
		key      string
		value    any
	}
	var got []seen

	conn := &fakeConn{}
	m := newTestMonitor(t, conn, OnValue(func(entity model.MonitoredEntity, variableKey string, value any, timestamp string) {
		got = append(got, seen{entityID: entity.ID, key: variableKey, value: value})
	}))
	startConnected(t, m, conn)
	m.AddEntity(sensorEntity())

	m.session.handleMessage([]byte(`{"event":"new-datastream","data":{"telemetryDataId":43,"value":"55","timestamp":"T1"}}`), conn)

	require.Len(t, got, 1)
	assert.Equal(t, seen{entityID: "sensor-7", key: "43", value: "55"}, got[0])
}
