package publisher

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gosimple/slug"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

var errAlreadyRegistered = errors.New("publisher already registered")

var (
	mu                  sync.Mutex
	registerdPublishers = make(map[string]*guarded)
	lastValues          sync.Map
)

type publisher interface {
	// Write publishes accepted telemetry values to the sink.
	Write(ctx context.Context, data []map[string]any) error
	RegisterEntity(entity *model.MonitoredEntity) error
}

// guarded wraps a sink in a circuit breaker so a flaky sink cannot
// back-pressure the push path.
type guarded struct {
	impl    publisher
	breaker *gobreaker.CircuitBreaker
}

func RegisterPublisher(name string, p publisher) error {
	mu.Lock()
	defer mu.Unlock()
	if _, ok := registerdPublishers[name]; ok {
		return errAlreadyRegistered
	}
	registerdPublishers[name] = &guarded{
		impl: p,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		}),
	}
	return nil
}

// PublishValue fans one accepted telemetry value out to every registered
// sink. Consecutive duplicates per (entity, variable) are suppressed.
func PublishValue(ctx context.Context, entity model.MonitoredEntity, variableKey string, value any, timestamp string) error {
	identifier := EntityIdentifier(entity)
	variableSlug := VariableSlug(entity, variableKey)
	rendered := fmt.Sprintf("%v", value)

	if !shouldUpdate(identifier, variableSlug, rendered) {
		return nil
	}

	payload := map[string]any{
		"value":      rendered,
		"slug":       variableSlug,
		"timestamp":  timestamp,
		"identifier": identifier,
	}

	mu.Lock()
	defer mu.Unlock()
	for name, g := range registerdPublishers {
		if _, err := g.breaker.Execute(func() (any, error) {
			return nil, g.impl.Write(ctx, []map[string]any{payload})
		}); err != nil {
			zap.L().Error("failed to publish value", zap.Error(err), zap.String("publisher", name))
			continue
		}
		zap.L().Debug("published value", zap.String("publisher", name), zap.String("slug", variableSlug))
	}
	return nil
}

// RegisterEntity announces a newly monitored entity to every sink.
func RegisterEntity(entity *model.MonitoredEntity) error {
	mu.Lock()
	defer mu.Unlock()
	for name, g := range registerdPublishers {
		if _, err := g.breaker.Execute(func() (any, error) {
			return nil, g.impl.RegisterEntity(entity)
		}); err != nil {
			zap.L().Error("failed to register entity", zap.Error(err), zap.String("publisher", name), zap.String("entity_id", entity.ID))
			continue
		}
		zap.L().Debug("registered entity", zap.String("entity_id", entity.ID), zap.String("publisher", name))
	}
	return nil
}

// EntityIdentifier is the stable sink-facing identifier for an entity.
func EntityIdentifier(entity model.MonitoredEntity) string {
	return strings.Replace(slug.Make(fmt.Sprintf("%s %s", entity.OrganizationName, entity.ID)), "-", "_", -1)
}

// VariableSlug names the variable or state slot the value belongs to.
func VariableSlug(entity model.MonitoredEntity, variableKey string) string {
	name := variableKey
	if id, err := strconv.Atoi(variableKey); err == nil {
		for _, variable := range entity.TelemetryVariables {
			if variable.ID == id {
				name = variable.VariableName
			}
		}
		for _, state := range entity.States {
			if state.ID == id {
				name = state.StateName
			}
		}
	}
	return strings.Replace(slug.Make(name), "-", "_", -1)
}

func shouldUpdate(identifier, variableSlug, newValue string) bool {
	key := fmt.Sprintf("%s_%s", identifier, variableSlug)
	oldValue, exists := lastValues.Load(key)
	if exists && strings.EqualFold(newValue, oldValue.(string)) {
		return false
	}
	lastValues.Store(key, newValue)
	return true
}
