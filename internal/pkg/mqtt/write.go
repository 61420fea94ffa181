package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
	"github.com/anicoll/telemetry-integration/internal/pkg/publisher"
)

const topicRoot = "telemetry"

var (
	registeredMu       sync.Mutex
	registeredEntities = make(map[string]struct{})
)

func (s *service) Write(ctx context.Context, data []map[string]any) error {
	for _, d := range data {
		if err := s.publishValue(d); err != nil {
			return err
		}
	}
	return nil
}

// RegisterEntity publishes a retained registration message once per entity
// so consumers can discover its state topics.
func (s *service) RegisterEntity(entity *model.MonitoredEntity) error {
	registeredMu.Lock()
	_, exists := registeredEntities[entity.ID]
	registeredMu.Unlock()
	if exists {
		return nil
	}

	identifier := publisher.EntityIdentifier(*entity)
	topic := fmt.Sprintf("%s/%s/config", topicRoot, identifier)

	payload, err := json.Marshal(registerMsg(entity, identifier))
	if err != nil {
		return err
	}
	token := s.client.Publish(topic, 1, true, payload)
	if err := token.Error(); err != nil {
		return err
	}
	if res := token.WaitTimeout(time.Second * 5); res {
		registeredMu.Lock()
		registeredEntities[entity.ID] = struct{}{}
		registeredMu.Unlock()
	}
	return nil
}

func (s *service) publishValue(data map[string]any) error {
	topic := fmt.Sprintf("%s/%s/%s/state", topicRoot, data["identifier"], data["slug"])

	payload, err := json.Marshal(map[string]any{
		"value":     data["value"],
		"timestamp": data["timestamp"],
	})
	if err != nil {
		return err
	}

	token := s.client.Publish(topic, 0, false, payload)
	if token.WaitTimeout(time.Second * 10) {
		return nil
	}
	return token.Error()
}

func registerMsg(entity *model.MonitoredEntity, identifier string) model.RegisterMessage {
	return model.RegisterMessage{
		Tilda:      fmt.Sprintf("%s/%s", topicRoot, identifier),
		Name:       entity.Name,
		ID:         strings.ToLower(identifier),
		StateTopic: "~/+/state",
		Entity: model.RegisterEntity{
			Name:         entity.Name,
			Identifiers:  []string{identifier},
			Area:         entity.AreaName,
			Organization: entity.OrganizationName,
		},
	}
}
