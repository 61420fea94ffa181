package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/anicoll/telemetry-integration/internal/pkg/model"
)

// GetValues returns the recorded history for one variable of one entity,
// newest first. Defaults to the last two days when no range is given.
func (db *Database) GetValues(ctx context.Context, identifier, slug string, from, to *time.Time) (model.ValueRecords, error) {
	if from == nil || to == nil {
		f := time.Now().AddDate(0, 0, -2)
		t := time.Now()
		from, to = &f, &t
	}
	const query = `
	SELECT id, time_stamp, value, identifier, slug
	FROM TelemetryValue
	WHERE identifier = $1 AND slug = $2 AND time_stamp BETWEEN $3 AND $4
	ORDER BY time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query, identifier, slug, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanValues(rows)
}

// GetLatestValues returns the most recent record per variable slug.
func (db *Database) GetLatestValues(ctx context.Context) (model.ValueRecords, error) {
	const query = `
	SELECT DISTINCT ON (slug) id, time_stamp, value, identifier, slug
	FROM TelemetryValue
	ORDER BY slug, time_stamp DESC;
	`

	rows, err := db.conn.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanValues(rows)
}

func scanValues(rows pgx.Rows) (model.ValueRecords, error) {
	var records model.ValueRecords
	for rows.Next() {
		var record model.ValueRecord
		if err := rows.Scan(&record.ID, &record.TimeStamp, &record.Value, &record.Identifier, &record.Slug); err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		if err == pgx.ErrNoRows {
			return records, nil
		}
		return nil, err
	}

	return records, nil
}
