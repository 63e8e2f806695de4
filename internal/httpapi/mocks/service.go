package mocks

import (
	"context"
	"errors"

	"github.com/posturetrack/posture-server/internal/service"
)

// MockStatsService is a mock implementation of the StatsService interface
// for testing the handler layer.
type MockStatsService struct {
	ListDevicesFunc     func(ctx context.Context, ownerID string) ([]service.Device, error)
	RegisterDeviceFunc  func(ctx context.Context, ownerID, deviceID, name string) (service.Device, error)
	RemoveDeviceFunc    func(ctx context.Context, ownerID, deviceID string) error
	DeviceReadingsFunc  func(ctx context.Context, ownerID, deviceID string) ([]service.ScoredReading, error)
	TodaySummaryFunc    func(ctx context.Context, ownerID, deviceID string) (service.DailySummary, error)
	WeeklyStatsFunc     func(ctx context.Context, ownerID, deviceID string, window int) ([]service.WeeklyPoint, error)
	TrendFunc           func(ctx context.Context, ownerID, deviceID string) (service.TrendChange, error)
	IngestFunc          func(ctx context.Context, deviceID string, payload service.TelemetryPayload) (service.Reading, error)
	LeaderboardViewFunc func(ctx context.Context) (service.Leaderboard, error)
}

func (m *MockStatsService) ListDevices(ctx context.Context, ownerID string) ([]service.Device, error) {
	if m.ListDevicesFunc != nil {
		return m.ListDevicesFunc(ctx, ownerID)
	}
	return nil, errors.New("ListDevicesFunc not implemented")
}

func (m *MockStatsService) RegisterDevice(ctx context.Context, ownerID, deviceID, name string) (service.Device, error) {
	if m.RegisterDeviceFunc != nil {
		return m.RegisterDeviceFunc(ctx, ownerID, deviceID, name)
	}
	return service.Device{}, errors.New("RegisterDeviceFunc not implemented")
}

func (m *MockStatsService) RemoveDevice(ctx context.Context, ownerID, deviceID string) error {
	if m.RemoveDeviceFunc != nil {
		return m.RemoveDeviceFunc(ctx, ownerID, deviceID)
	}
	return errors.New("RemoveDeviceFunc not implemented")
}

func (m *MockStatsService) DeviceReadings(ctx context.Context, ownerID, deviceID string) ([]service.ScoredReading, error) {
	if m.DeviceReadingsFunc != nil {
		return m.DeviceReadingsFunc(ctx, ownerID, deviceID)
	}
	return nil, errors.New("DeviceReadingsFunc not implemented")
}

func (m *MockStatsService) TodaySummary(ctx context.Context, ownerID, deviceID string) (service.DailySummary, error) {
	if m.TodaySummaryFunc != nil {
		return m.TodaySummaryFunc(ctx, ownerID, deviceID)
	}
	return service.DailySummary{}, errors.New("TodaySummaryFunc not implemented")
}

func (m *MockStatsService) WeeklyStats(ctx context.Context, ownerID, deviceID string, window int) ([]service.WeeklyPoint, error) {
	if m.WeeklyStatsFunc != nil {
		return m.WeeklyStatsFunc(ctx, ownerID, deviceID, window)
	}
	return nil, errors.New("WeeklyStatsFunc not implemented")
}

func (m *MockStatsService) Trend(ctx context.Context, ownerID, deviceID string) (service.TrendChange, error) {
	if m.TrendFunc != nil {
		return m.TrendFunc(ctx, ownerID, deviceID)
	}
	return service.TrendChange{}, errors.New("TrendFunc not implemented")
}

func (m *MockStatsService) Ingest(ctx context.Context, deviceID string, payload service.TelemetryPayload) (service.Reading, error) {
	if m.IngestFunc != nil {
		return m.IngestFunc(ctx, deviceID, payload)
	}
	return service.Reading{}, errors.New("IngestFunc not implemented")
}

func (m *MockStatsService) LeaderboardView(ctx context.Context) (service.Leaderboard, error) {
	if m.LeaderboardViewFunc != nil {
		return m.LeaderboardViewFunc(ctx)
	}
	return service.Leaderboard{}, errors.New("LeaderboardViewFunc not implemented")
}
