package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

func TestRegistry_AddIsIdempotent(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Add(sensorEntity()))
	assert.Equal(t, 1, r.Len())

	// same id again, even with different content, must not mutate anything
	changed := sensorEntity()
	changed.Name = "renamed"
	assert.False(t, r.Add(changed))
	assert.Equal(t, 1, r.Len())

	got, ok := r.Get("sensor-7")
	assert.True(t, ok)
	assert.Equal(t, "Greenhouse North", got.Name)
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Add(sensorEntity())

	_, removed := r.Remove("never-added")
	assert.False(t, removed)
	assert.Equal(t, 1, r.Len())

	entity, removed := r.Remove("sensor-7")
	assert.True(t, removed)
	assert.Equal(t, "sensor-7", entity.ID)
	assert.Equal(t, 0, r.Len())

	_, removed = r.Remove("sensor-7")
	assert.False(t, removed)
}

func TestRegistry_SensorByVariable(t *testing.T) {
	r := NewRegistry()
	r.Add(sensorEntity())
	r.Add(deviceEntity())

	tests := map[string]struct {
		variableID int
		wantID     string
		wantFound  bool
	}{
		"first variable":    {variableID: 42, wantID: "sensor-7", wantFound: true},
		"second variable":   {variableID: 43, wantID: "sensor-7", wantFound: true},
		"unknown variable":  {variableID: 99, wantFound: false},
		"device state slot": {variableID: 1, wantFound: false},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			entity, found := r.SensorByVariable(tt.variableID)
			assert.Equal(t, tt.wantFound, found)
			if tt.wantFound {
				assert.Equal(t, tt.wantID, entity.ID)
			}
		})
	}
}

func TestRegistry_DeviceByUUID(t *testing.T) {
	r := NewRegistry()
	r.Add(deviceEntity())

	entity, found := r.DeviceByUUID("abc-123")
	assert.True(t, found)
	assert.Equal(t, "device-3", entity.ID)

	_, found = r.DeviceByUUID("not-monitored")
	assert.False(t, found)
}

func TestEntityRooms(t *testing.T) {
	assert.ElementsMatch(t, []string{"telemetry-42", "telemetry-43"}, sensorEntity().Rooms())
	assert.Equal(t, []string{"device-uuid-abc-123"}, deviceEntity().Rooms())

	noUUID := deviceEntity()
	noUUID.UUID = ""
	assert.Empty(t, noUUID.Rooms())

	assert.Equal(t, "telemetry-42", model.TelemetryRoom(42))
	assert.Equal(t, "device-uuid-abc-123", model.DeviceRoom("abc-123"))
}
