package telemetry

import (
	"sync"

	"github.com/samber/lo"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// Registry holds the set of entities currently being watched. It never
// creates or destroys entities on its own initiative; callers add and remove
// them and both operations are idempotent.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]model.MonitoredEntity
}

func NewRegistry() *Registry {
	return &Registry{
		entities: make(map[string]model.MonitoredEntity),
	}
}

// Add inserts the entity unless one with the same id already exists. Returns
// false, without mutating anything, on a duplicate id.
func (r *Registry) Add(entity model.MonitoredEntity) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entities[entity.ID]; exists {
		return false
	}
	r.entities[entity.ID] = entity
	return true
}

// Remove deletes the entity with this id. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) (model.MonitoredEntity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entity, exists := r.entities[id]
	if !exists {
		return model.MonitoredEntity{}, false
	}
	delete(r.entities, id)
	return entity, true
}

func (r *Registry) Get(id string) (model.MonitoredEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entity, exists := r.entities[id]
	return entity, exists
}

// List returns the registered entities in no particular order.
func (r *Registry) List() []model.MonitoredEntity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return lo.Values(r.entities)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// SensorByVariable finds the sensor entity owning the given telemetry
// variable id.
func (r *Registry) SensorByVariable(variableID int) (model.MonitoredEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entity := range r.entities {
		if entity.Type != model.EntityTypeSensor {
			continue
		}
		if lo.ContainsBy(entity.TelemetryVariables, func(v model.TelemetryVariable) bool {
			return v.ID == variableID
		}) {
			return entity, true
		}
	}
	return model.MonitoredEntity{}, false
}

// DeviceByUUID finds the device entity with the given uuid.
func (r *Registry) DeviceByUUID(uuid string) (model.MonitoredEntity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entity := range r.entities {
		if entity.Type == model.EntityTypeDevice && entity.UUID == uuid {
			return entity, true
		}
	}
	return model.MonitoredEntity{}, false
}
