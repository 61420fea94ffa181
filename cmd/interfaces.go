package cmd

import (
	"context"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// MonitorService defines the interface that cmd.run expects from the
// telemetry monitor.
type MonitorService interface {
	Start(ctx context.Context) error
	Close() error
	AddEntity(entity model.MonitoredEntity)
	RemoveEntity(entityID string)
	TelemetryData() map[string]model.EntityTelemetryData
	IsConnected() bool
	JoinedRooms() []string
}
