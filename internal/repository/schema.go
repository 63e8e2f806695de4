package repository

import (
	"context"
	"database/sql"
	"fmt"
)

// EnsureSchema creates the tables this server needs. Idempotent; applied at
// startup before any repository is used.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS devices (
		device_id  TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		owner_id   TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS telemetry (
		id         TEXT PRIMARY KEY,
		device_id  TEXT NOT NULL,
		payload    TEXT,
		created_at TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_telemetry_device_created
		ON telemetry (device_id, created_at DESC);
	CREATE TABLE IF NOT EXISTS users (
		id                  TEXT PRIMARY KEY,
		name                TEXT NOT NULL,
		avatar              TEXT,
		total_score         INTEGER NOT NULL DEFAULT 0,
		total_days          INTEGER NOT NULL DEFAULT 0,
		streak              INTEGER NOT NULL DEFAULT 0,
		show_on_leaderboard INTEGER NOT NULL DEFAULT 1,
		created_at          TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
