package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/posturetrack/posture-server/internal/repository/models"
)

type DeviceRepository struct {
	db *sql.DB
}

func NewDeviceRepository(db *sql.DB) *DeviceRepository {
	return &DeviceRepository{db: db}
}

func (r *DeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Device, error) {
	const query = `
		SELECT device_id, name, owner_id, created_at
		FROM devices
		WHERE owner_id = ?
		ORDER BY created_at ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query ListByOwner: %w", err)
	}
	defer rows.Close()

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		if err := rows.Scan(&d.DeviceID, &d.Name, &d.OwnerID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ListByOwner row: %w", err)
		}
		devices = append(devices, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListByOwner: %w", err)
	}
	return devices, nil
}

func (r *DeviceRepository) Create(ctx context.Context, device models.Device) error {
	const query = `
		INSERT INTO devices (device_id, name, owner_id, created_at)
		VALUES (?, ?, ?, ?)
	`

	if _, err := r.db.ExecContext(ctx, query, device.DeviceID, device.Name, device.OwnerID, device.CreatedAt); err != nil {
		return fmt.Errorf("exec Create device: %w", err)
	}
	return nil
}

// Delete removes an owner's device and its telemetry. Returns false when no
// device matched, so the caller can distinguish not-found from success.
func (r *DeviceRepository) Delete(ctx context.Context, deviceID, ownerID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM devices WHERE device_id = ? AND owner_id = ?`, deviceID, ownerID)
	if err != nil {
		return false, fmt.Errorf("exec Delete device: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected Delete device: %w", err)
	}
	if affected == 0 {
		return false, nil
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM telemetry WHERE device_id = ?`, deviceID); err != nil {
		return false, fmt.Errorf("exec Delete device telemetry: %w", err)
	}
	return true, nil
}

func (r *DeviceRepository) Owned(ctx context.Context, deviceID, ownerID string) (bool, error) {
	const query = `SELECT COUNT(1) FROM devices WHERE device_id = ? AND owner_id = ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, deviceID, ownerID).Scan(&count); err != nil {
		return false, fmt.Errorf("query Owned: %w", err)
	}
	return count > 0, nil
}

func (r *DeviceRepository) Exists(ctx context.Context, deviceID string) (bool, error) {
	const query = `SELECT COUNT(1) FROM devices WHERE device_id = ?`

	var count int64
	if err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&count); err != nil {
		return false, fmt.Errorf("query Exists: %w", err)
	}
	return count > 0, nil
}
