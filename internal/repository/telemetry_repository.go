package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/posturetrack/posture-server/internal/repository/models"
)

type TelemetryRepository struct {
	db *sql.DB
}

func NewTelemetryRepository(db *sql.DB) *TelemetryRepository {
	return &TelemetryRepository{db: db}
}

// ListByDevice returns up to limit rows for a device, newest-first. The
// ordering is part of the pipeline contract: the aggregator expects delivery
// order to be most-recent-first.
func (r *TelemetryRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.TelemetryRow, error) {
	const query = `
		SELECT id, device_id, payload, created_at
		FROM telemetry
		WHERE device_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID, limit)
	if err != nil {
		return nil, fmt.Errorf("query ListByDevice: %w", err)
	}
	defer rows.Close()

	var results []models.TelemetryRow
	for rows.Next() {
		var t models.TelemetryRow
		var payload sql.NullString
		var createdAt sql.NullString
		if err := rows.Scan(&t.ID, &t.DeviceID, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan ListByDevice row: %w", err)
		}
		if payload.Valid {
			t.PayloadJSON = []byte(payload.String)
		}
		if createdAt.Valid {
			t.CreatedAt = createdAt.String
		}
		results = append(results, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListByDevice: %w", err)
	}
	return results, nil
}

func (r *TelemetryRepository) Insert(ctx context.Context, row models.TelemetryRow) error {
	const query = `
		INSERT INTO telemetry (id, device_id, payload, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, row.ID, row.DeviceID, string(row.PayloadJSON), row.CreatedAt); err != nil {
		return fmt.Errorf("exec Insert telemetry: %w", err)
	}
	return nil
}
