package telemetry

import (
	"context"

	"github.com/anicoll/telemetry-integration/internal/pkg/config"
	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// SingleMonitor watches exactly one entity over its own session. It is the
// single-entity convenience variant of Monitor for callers that only ever
// care about one sensor or device.
type SingleMonitor struct {
	monitor  *Monitor
	entityID string
}

func NewSingle(cfg *config.TelemetryConfig, errChan chan<- error, entity model.MonitoredEntity, opts ...Option) *SingleMonitor {
	monitor := New(cfg, errChan, opts...)
	monitor.AddEntity(entity)
	return &SingleMonitor{
		monitor:  monitor,
		entityID: entity.ID,
	}
}

func (s *SingleMonitor) Start(ctx context.Context) error {
	return s.monitor.Start(ctx)
}

func (s *SingleMonitor) Close() error {
	return s.monitor.Close()
}

// Data returns the live record for the watched entity.
func (s *SingleMonitor) Data() (model.EntityTelemetryData, bool) {
	return s.monitor.store.Get(s.entityID)
}

func (s *SingleMonitor) IsConnected() bool {
	return s.monitor.IsConnected()
}
