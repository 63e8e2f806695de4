package httpapi

import (
	"context"
	"time"

	"github.com/posturetrack/posture-server/internal/service"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// StatsService is the pipeline surface the HTTP layer depends on.
type StatsService interface {
	ListDevices(ctx context.Context, ownerID string) ([]service.Device, error)
	RegisterDevice(ctx context.Context, ownerID, deviceID, name string) (service.Device, error)
	RemoveDevice(ctx context.Context, ownerID, deviceID string) error
	DeviceReadings(ctx context.Context, ownerID, deviceID string) ([]service.ScoredReading, error)
	TodaySummary(ctx context.Context, ownerID, deviceID string) (service.DailySummary, error)
	WeeklyStats(ctx context.Context, ownerID, deviceID string, window int) ([]service.WeeklyPoint, error)
	Trend(ctx context.Context, ownerID, deviceID string) (service.TrendChange, error)
	Ingest(ctx context.Context, deviceID string, payload service.TelemetryPayload) (service.Reading, error)
	LeaderboardView(ctx context.Context) (service.Leaderboard, error)
}
