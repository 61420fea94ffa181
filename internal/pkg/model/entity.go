package model

import "fmt"

type EntityType string

func (et EntityType) String() string {
	return string(et)
}

const (
	EntityTypeSensor EntityType = "sensor"
	EntityTypeDevice EntityType = "device"
)

// TelemetryVariable is one subscribable measurement channel of a sensor.
type TelemetryVariable struct {
	ID           int    `json:"id" yaml:"id"`
	VariableName string `json:"variableName" yaml:"variableName"`
}

// StateInstance is a recorded value for a device state slot.
type StateInstance struct {
	Value string `json:"value" yaml:"value"`
}

// DeviceState is one controllable/observable state slot of a device.
type DeviceState struct {
	ID           int             `json:"id" yaml:"id"`
	StateName    string          `json:"stateName" yaml:"stateName"`
	DefaultValue string          `json:"defaultValue" yaml:"defaultValue"`
	Instances    []StateInstance `json:"instances" yaml:"instances"`
}

// SeedValue is the placeholder shown for a state slot before the first push
// arrives: the first recorded instance if one exists, else the default.
func (ds DeviceState) SeedValue() string {
	if len(ds.Instances) > 0 {
		return ds.Instances[0].Value
	}
	return ds.DefaultValue
}

// MonitoredEntity identifies one sensor or device being watched for live
// values. Exactly one of TelemetryVariables (sensor) or States (device) is
// meaningful, selected by Type. UUID is required for device entities, it is
// what the device room name is built from.
type MonitoredEntity struct {
	ID                 string              `json:"id" yaml:"id"`
	Type               EntityType          `json:"type" yaml:"type"`
	EntityID           int                 `json:"entityId" yaml:"entityId"`
	UUID               string              `json:"uuid,omitempty" yaml:"uuid,omitempty"`
	Name               string              `json:"name" yaml:"name"`
	AreaName           string              `json:"areaName" yaml:"areaName"`
	OrganizationName   string              `json:"organizationName" yaml:"organizationName"`
	TelemetryVariables []TelemetryVariable `json:"telemetryVariables,omitempty" yaml:"telemetryVariables,omitempty"`
	States             []DeviceState       `json:"states,omitempty" yaml:"states,omitempty"`
}

// Rooms returns the server-side subscription channels this entity needs: one
// per telemetry variable for sensors, a single uuid room for devices. A device
// without a uuid has no subscribable room.
func (e MonitoredEntity) Rooms() []string {
	switch e.Type {
	case EntityTypeSensor:
		rooms := make([]string, 0, len(e.TelemetryVariables))
		for _, variable := range e.TelemetryVariables {
			rooms = append(rooms, TelemetryRoom(variable.ID))
		}
		return rooms
	case EntityTypeDevice:
		if e.UUID == "" {
			return nil
		}
		return []string{DeviceRoom(e.UUID)}
	}
	return nil
}

func TelemetryRoom(variableID int) string {
	return fmt.Sprintf("telemetry-%d", variableID)
}

func DeviceRoom(uuid string) string {
	return fmt.Sprintf("device-uuid-%s", uuid)
}
