package telemetry

import (
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// highlightWindow is how long a freshly pushed value keeps its isNew flag.
const highlightWindow = 2 * time.Second

// Dispatcher resolves inbound push payloads to a monitored entity and
// variable, writes them into the store and schedules the highlight decay.
// Anything it cannot route is logged and dropped; nothing on this path may
// surface an error to the caller.
type Dispatcher struct {
	registry *Registry
	store    *Store
	clock    clockwork.Clock
	logger   *zap.Logger

	// onValue fires after a value has been accepted into the store.
	onValue func(entity model.MonitoredEntity, variableKey string, value any, timestamp string)

	mu      sync.Mutex
	timers  map[string]clockwork.Timer
	gens    map[string]uint64
	stopped bool
}

func NewDispatcher(registry *Registry, store *Store, clock clockwork.Clock, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		store:    store,
		clock:    clock,
		logger:   logger,
		timers:   make(map[string]clockwork.Timer),
		gens:     make(map[string]uint64),
	}
}

// Dispatch routes one inbound envelope. Unknown events are dropped, the
// server fans plenty of irrelevant room traffic at every client.
func (d *Dispatcher) Dispatch(env model.Envelope) {
	switch env.Event {
	case model.EventNewDatastream:
		d.handleDatastream(env.Data)
	case model.EventDeviceStateChange:
		d.handleDeviceState(env.Data)
	default:
		pushDiscardedTotal.WithLabelValues("unknown_event").Inc()
		d.logger.Debug("ignoring push event", zap.String("event", env.Event))
	}
}

func (d *Dispatcher) handleDatastream(data []byte) {
	payload := model.DatastreamPayload{}
	if err := json.Unmarshal(data, &payload); err != nil {
		pushDiscardedTotal.WithLabelValues("malformed_payload").Inc()
		d.logger.Debug("discarding malformed datastream push", zap.Error(err))
		return
	}

	telemetryDataID, value, timestamp, ok := payload.Resolve()
	if !ok {
		pushDiscardedTotal.WithLabelValues("incomplete_payload").Inc()
		d.logger.Debug("discarding datastream push without id or value")
		return
	}

	entity, found := d.registry.SensorByVariable(telemetryDataID)
	if !found {
		// The id belongs to a sensor that is not currently monitored.
		pushDiscardedTotal.WithLabelValues("unmonitored_variable").Inc()
		d.logger.Debug("discarding datastream for unmonitored variable", zap.Int("telemetry_data_id", telemetryDataID))
		return
	}

	d.apply(entity, strconv.Itoa(telemetryDataID), value, timestamp)
}

func (d *Dispatcher) handleDeviceState(data []byte) {
	payload := model.DeviceStatePayload{}
	if err := json.Unmarshal(data, &payload); err != nil {
		pushDiscardedTotal.WithLabelValues("malformed_payload").Inc()
		d.logger.Debug("discarding malformed device-state push", zap.Error(err))
		return
	}

	entity, found := d.registry.DeviceByUUID(payload.Metadata.DeviceUUID)
	if !found {
		pushDiscardedTotal.WithLabelValues("unmonitored_device").Inc()
		d.logger.Debug("discarding state change for unmonitored device", zap.String("device_uuid", payload.Metadata.DeviceUUID))
		return
	}

	state, found := lo.Find(entity.States, func(s model.DeviceState) bool {
		return s.StateName == payload.Metadata.StateName
	})
	if !found {
		pushDiscardedTotal.WithLabelValues("unknown_state").Inc()
		d.logger.Debug("discarding state change for unknown state slot",
			zap.String("device_uuid", payload.Metadata.DeviceUUID),
			zap.String("state_name", payload.Metadata.StateName))
		return
	}

	d.apply(entity, strconv.Itoa(state.ID), payload.Metadata.NewValue, payload.Timestamp.String())
}

func (d *Dispatcher) apply(entity model.MonitoredEntity, variableKey string, value any, timestamp string) {
	if !d.store.ApplyValue(entity.ID, variableKey, value, timestamp) {
		// Entity was removed between resolution and apply.
		return
	}
	d.scheduleDecay(entity.ID, variableKey)
	if d.onValue != nil {
		d.onValue(entity, variableKey, value, timestamp)
	}
}

// scheduleDecay arms the 2 second isNew decay for one entry. Re-arming a key
// cancels the pending timer and bumps the key's generation; Stop can lose the
// race against a timer whose callback has already started, so the generation
// check in decayElapsed is what guarantees a late timer never clears the flag
// of a newer value.
func (d *Dispatcher) scheduleDecay(entityID, variableKey string) {
	key := entityID + "/" + variableKey

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if timer, exists := d.timers[key]; exists {
		timer.Stop()
	}
	d.gens[key]++
	gen := d.gens[key]
	d.timers[key] = d.clock.AfterFunc(highlightWindow, func() {
		d.decayElapsed(key, gen, entityID, variableKey)
	})
}

// decayElapsed clears the highlight for one entry unless the key has been
// re-armed or cancelled since this timer was scheduled.
func (d *Dispatcher) decayElapsed(key string, gen uint64, entityID, variableKey string) {
	d.mu.Lock()
	if d.stopped || d.gens[key] != gen {
		d.mu.Unlock()
		return
	}
	delete(d.timers, key)
	d.mu.Unlock()
	d.store.ClearIsNew(entityID, variableKey)
}

// CancelDecay drops any pending decay timer for the entity, used when the
// entity is removed. Bumping the generation invalidates callbacks already in
// flight.
func (d *Dispatcher) CancelDecay(entityID string) {
	prefix := entityID + "/"
	d.mu.Lock()
	defer d.mu.Unlock()
	for key := range d.gens {
		if strings.HasPrefix(key, prefix) {
			d.gens[key]++
			if timer, exists := d.timers[key]; exists {
				timer.Stop()
				delete(d.timers, key)
			}
		}
	}
}

// Stop cancels all outstanding decay timers.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for key, timer := range d.timers {
		timer.Stop()
		delete(d.timers, key)
	}
}
