package database

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Database records every accepted telemetry value so the history survives
// page reloads and reconnects.
type Database struct {
	conn *pgx.Conn
}

func NewDatabase(ctx context.Context, conn *pgx.Conn) *Database {
	initialise(ctx, conn)
	return &Database{
		conn: conn,
	}
}

func initialise(ctx context.Context, conn *pgx.Conn) {
	const createTablesSQL = `
CREATE TABLE IF NOT EXISTS TelemetryValue (
    id SERIAL PRIMARY KEY,
    time_stamp TIMESTAMP WITH TIME ZONE NOT NULL,
    value TEXT NOT NULL,
    identifier TEXT NOT NULL,
    slug TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_telemetryvalue_identifier ON TelemetryValue (identifier);
CREATE INDEX IF NOT EXISTS idx_telemetryvalue_timestamp ON TelemetryValue (time_stamp);
CREATE TABLE IF NOT EXISTS MonitoredEntity (
    id TEXT PRIMARY KEY,
    entity_type TEXT NOT NULL,
    name TEXT NOT NULL,
    area_name TEXT NOT NULL,
    organization_name TEXT NOT NULL
);
`
	if _, err := conn.Exec(ctx, createTablesSQL); err != nil {
		panic(err)
	}
}

func (db *Database) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close(context.Background())
}
