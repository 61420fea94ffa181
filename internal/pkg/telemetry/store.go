package telemetry

import (
	"strconv"
	"sync"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// noDataValue seeds sensor variables until the first push arrives.
const noDataValue = "--"

// Store keeps the live telemetry record for every monitored entity. It is
// the only mutable shared state of the subsystem; all writers go through its
// methods and readers only ever see copies.
type Store struct {
	mu       sync.RWMutex
	entities map[string]*model.EntityTelemetryData
}

func NewStore() *Store {
	return &Store{
		entities: make(map[string]*model.EntityTelemetryData),
	}
}

// Seed creates the record for a newly added entity with a placeholder entry
// per known variable or state slot.
func (s *Store) Seed(entity model.MonitoredEntity) {
	values := make(map[string]model.TelemetryValue)
	switch entity.Type {
	case model.EntityTypeSensor:
		for _, variable := range entity.TelemetryVariables {
			values[strconv.Itoa(variable.ID)] = model.TelemetryValue{Value: noDataValue}
		}
	case model.EntityTypeDevice:
		for _, state := range entity.States {
			values[strconv.Itoa(state.ID)] = model.TelemetryValue{Value: state.SeedValue()}
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities[entity.ID] = &model.EntityTelemetryData{
		Values: values,
	}
}

// ApplyConnectionChange flips the connected flag on every tracked entity in
// one update.
func (s *Store) ApplyConnectionChange(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, data := range s.entities {
		data.Connected = connected
	}
}

// ApplyValue upserts the latest value for one variable key and stamps the
// entity's last update. Returns false when the entity is no longer tracked.
func (s *Store) ApplyValue(entityID, variableKey string, value any, timestamp string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, exists := s.entities[entityID]
	if !exists {
		return false
	}
	data.Values[variableKey] = model.TelemetryValue{
		Value:     value,
		Timestamp: timestamp,
		IsNew:     true,
	}
	data.LastUpdate = timestamp
	return true
}

// ClearIsNew drops the highlight flag for one entry. The entity or key may
// have been removed since the decay was scheduled, that is a no-op.
func (s *Store) ClearIsNew(entityID, variableKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, exists := s.entities[entityID]
	if !exists {
		return
	}
	value, exists := data.Values[variableKey]
	if !exists {
		return
	}
	value.IsNew = false
	data.Values[variableKey] = value
}

// Delete removes the entity's entire record.
func (s *Store) Delete(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, entityID)
}

// Get returns a copy of one entity's record.
func (s *Store) Get(entityID string) (model.EntityTelemetryData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, exists := s.entities[entityID]
	if !exists {
		return model.EntityTelemetryData{}, false
	}
	return copyData(data), true
}

// Snapshot returns a copy of the whole store keyed by entity id.
func (s *Store) Snapshot() map[string]model.EntityTelemetryData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot := make(map[string]model.EntityTelemetryData, len(s.entities))
	for id, data := range s.entities {
		snapshot[id] = copyData(data)
	}
	return snapshot
}

func copyData(data *model.EntityTelemetryData) model.EntityTelemetryData {
	values := make(map[string]model.TelemetryValue, len(data.Values))
	for key, value := range data.Values {
		values[key] = value
	}
	return model.EntityTelemetryData{
		Connected:  data.Connected,
		LastUpdate: data.LastUpdate,
		Values:     values,
	}
}
