package publisher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

type fakeSink struct {
	writes     [][]map[string]any
	registered []string
	writeErr   error
}

func (f *fakeSink) Write(_ context.Context, data []map[string]any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.writes = append(f.writes, data)
	return nil
}

func (f *fakeSink) RegisterEntity(entity *model.MonitoredEntity) error {
	f.registered = append(f.registered, entity.ID)
	return nil
}

func testEntity() model.MonitoredEntity {
	return model.MonitoredEntity{
		ID:               "sensor-7",
		Type:             model.EntityTypeSensor,
		OrganizationName: "Acme Farms",
		TelemetryVariables: []model.TelemetryVariable{
			{ID: 42, VariableName: "Air Temperature"},
		},
		States: []model.DeviceState{
			{ID: 9, StateName: "Power Mode"},
		},
	}
}

func TestEntityIdentifier(t *testing.T) {
	assert.Equal(t, "acme_farms_sensor_7", EntityIdentifier(testEntity()))
}

func TestVariableSlug(t *testing.T) {
	tests := map[string]struct {
		key  string
		want string
	}{
		"telemetry variable":   {key: "42", want: "air_temperature"},
		"device state":         {key: "9", want: "power_mode"},
		"unknown numeric key":  {key: "999", want: "999"},
		"non numeric fallback": {key: "Raw Key", want: "raw_key"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, VariableSlug(testEntity(), tt.key))
		})
	}
}

func TestRegisterPublisherRejectsDuplicates(t *testing.T) {
	require.NoError(t, RegisterPublisher("dup-check", &fakeSink{}))
	assert.ErrorIs(t, RegisterPublisher("dup-check", &fakeSink{}), errAlreadyRegistered)
}

func TestPublishValueSuppressesConsecutiveDuplicates(t *testing.T) {
	sink := &fakeSink{}
	require.NoError(t, RegisterPublisher("fanout", sink))

	entity := testEntity()
	ctx := context.Background()

	require.NoError(t, PublishValue(ctx, entity, "42", "25.4", "T1"))
	require.NoError(t, PublishValue(ctx, entity, "42", "25.4", "T2"))
	require.NoError(t, PublishValue(ctx, entity, "42", "26.0", "T3"))

	require.Len(t, sink.writes, 2, "repeat of the same value is suppressed")
	first := sink.writes[0][0]
	assert.Equal(t, "25.4", first["value"])
	assert.Equal(t, "air_temperature", first["slug"])
	assert.Equal(t, "acme_farms_sensor_7", first["identifier"])
	assert.Equal(t, "T1", first["timestamp"])
	assert.Equal(t, "26.0", sink.writes[1][0]["value"])
}

func TestRegisterEntityFansOut(t *testing.T) {
	sink := &fakeSink{}
	require.NoError(t, RegisterPublisher("register-fanout", sink))

	entity := testEntity()
	require.NoError(t, RegisterEntity(&entity))
	assert.Contains(t, sink.registered, "sensor-7")
}
