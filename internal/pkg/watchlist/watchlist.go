package watchlist

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// Load reads the entities to monitor at startup from a yaml file.
func Load(filepathName string) ([]model.MonitoredEntity, error) {
	fileContent, err := os.ReadFile(filepath.Clean(filepathName))
	if err != nil {
		return nil, err
	}

	var entities []model.MonitoredEntity
	if err := yaml.Unmarshal(fileContent, &entities); err != nil {
		return nil, err
	}

	for i, entity := range entities {
		if entity.ID == "" {
			entities[i].ID = fmt.Sprintf("%s-%d", entity.Type, entity.EntityID)
		}
	}
	return entities, nil
}
