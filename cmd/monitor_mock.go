package cmd

import (
	"context"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// MockMonitorService is a mock implementation of the MonitorService interface.
type MockMonitorService struct {
	StartFunc         func(ctx context.Context) error
	CloseFunc         func() error
	AddEntityFunc     func(entity model.MonitoredEntity)
	RemoveEntityFunc  func(entityID string)
	TelemetryDataFunc func() map[string]model.EntityTelemetryData
	IsConnectedFunc   func() bool
	JoinedRoomsFunc   func() []string
}

func (m *MockMonitorService) Start(ctx context.Context) error {
	if m.StartFunc != nil {
		return m.StartFunc(ctx)
	}
	return nil
}

func (m *MockMonitorService) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func (m *MockMonitorService) AddEntity(entity model.MonitoredEntity) {
	if m.AddEntityFunc != nil {
		m.AddEntityFunc(entity)
	}
}

func (m *MockMonitorService) RemoveEntity(entityID string) {
	if m.RemoveEntityFunc != nil {
		m.RemoveEntityFunc(entityID)
	}
}

func (m *MockMonitorService) TelemetryData() map[string]model.EntityTelemetryData {
	if m.TelemetryDataFunc != nil {
		return m.TelemetryDataFunc()
	}
	return nil
}

func (m *MockMonitorService) IsConnected() bool {
	if m.IsConnectedFunc != nil {
		return m.IsConnectedFunc()
	}
	return false
}

func (m *MockMonitorService) JoinedRooms() []string {
	if m.JoinedRoomsFunc != nil {
		return m.JoinedRoomsFunc()
	}
	return nil
}
