package database

import (
	"context"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

func (db *Database) Write(ctx context.Context, data []map[string]any) error {
	tx, err := db.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, record := range data {
		if _, err := tx.Exec(ctx, `
			INSERT INTO TelemetryValue (time_stamp, value, identifier, slug)
			VALUES (now(), $1, $2, $3)
		`, record["value"], record["identifier"], record["slug"]); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (db *Database) RegisterEntity(entity *model.MonitoredEntity) error {
	_, err := db.conn.Exec(context.Background(), `
		INSERT INTO MonitoredEntity (id, entity_type, name, area_name, organization_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING;`, entity.ID, entity.Type.String(), entity.Name, entity.AreaName, entity.OrganizationName)
	if err != nil {
		return err
	}

	return nil
}
