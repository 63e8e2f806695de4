package service

import (
	"context"

	"github.com/posturetrack/posture-server/internal/repository/models"
)

// DeviceRepository defines the database operations for the device registry.
type DeviceRepository interface {
	ListByOwner(ctx context.Context, ownerID string) ([]models.Device, error)
	Create(ctx context.Context, device models.Device) error
	Delete(ctx context.Context, deviceID, ownerID string) (bool, error)
	Owned(ctx context.Context, deviceID, ownerID string) (bool, error)
	Exists(ctx context.Context, deviceID string) (bool, error)
}

// TelemetryRepository defines the database operations for telemetry rows.
type TelemetryRepository interface {
	ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.TelemetryRow, error)
	Insert(ctx context.Context, row models.TelemetryRow) error
}

// RosterRepository provides the leaderboard roster.
type RosterRepository interface {
	ListUsers(ctx context.Context) ([]models.LeaderboardUser, error)
}
