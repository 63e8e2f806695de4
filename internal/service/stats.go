package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/posturetrack/posture-server/internal/repository/models"
	"go.uber.org/zap"
)

const (
	dbTimeout = 1 * time.Second

	// telemetryFetchLimit bounds how many rows one stats request pulls.
	// Matches the largest selectable weekly window.
	telemetryFetchLimit = MaxWeeklyWindow
)

var (
	ErrNoReadings     = errors.New("no readings found")
	ErrDeviceNotFound = errors.New("device not found")
	ErrInvalidDevice  = errors.New("invalid device")
	ErrStorageFailure = errors.New("storage failure")
)

// StatsService runs the telemetry-to-score pipeline over stored rows: it
// normalizes raw telemetry, derives scores and serves the daily, weekly,
// trend and leaderboard views.
type StatsService struct {
	devices   DeviceRepository
	telemetry TelemetryRepository
	roster    RosterRepository
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location
}

// NewStatsService creates a new StatsService instance.
func NewStatsService(devices DeviceRepository, telemetry TelemetryRepository, roster RosterRepository, logger *zap.Logger) *StatsService {
	if devices == nil || telemetry == nil || roster == nil {
		panic("repositories must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &StatsService{
		devices:   devices,
		telemetry: telemetry,
		roster:    roster,
		logger:    logger,
		now:       time.Now,
		loc:       time.Local,
	}
}

// WithClock overrides the service clock and timezone. Intended for tests.
func (s *StatsService) WithClock(now func() time.Time, loc *time.Location) *StatsService {
	if now != nil {
		s.now = now
	}
	if loc != nil {
		s.loc = loc
	}
	return s
}

// ListDevices returns the devices registered by an owner. An owner with no
// devices gets an empty list, not an error.
func (s *StatsService) ListDevices(ctx context.Context, ownerID string) ([]Device, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	rows, err := s.devices.ListByOwner(dbCtx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	out := make([]Device, len(rows))
	for i, d := range rows {
		out[i] = Device{
			DeviceID:  d.DeviceID,
			Name:      d.Name,
			OwnerID:   d.OwnerID,
			CreatedAt: d.CreatedAt,
		}
	}
	return out, nil
}

// RegisterDevice records a new device for an owner.
func (s *StatsService) RegisterDevice(ctx context.Context, ownerID, deviceID, name string) (Device, error) {
	if deviceID == "" || name == "" {
		return Device{}, fmt.Errorf("%w: device_id and name are required", ErrInvalidDevice)
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	device := models.Device{
		DeviceID:  deviceID,
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: s.now().UTC().Format(time.RFC3339),
	}
	if err := s.devices.Create(dbCtx, device); err != nil {
		return Device{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("device registered",
		zap.String("device_id", deviceID),
		zap.String("owner_id", ownerID))

	return Device{
		DeviceID:  device.DeviceID,
		Name:      device.Name,
		OwnerID:   device.OwnerID,
		CreatedAt: device.CreatedAt,
	}, nil
}

// RemoveDevice unregisters an owner's device.
func (s *StatsService) RemoveDevice(ctx context.Context, ownerID, deviceID string) error {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	deleted, err := s.devices.Delete(dbCtx, deviceID, ownerID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if !deleted {
		return ErrDeviceNotFound
	}

	s.logger.Info("device removed",
		zap.String("device_id", deviceID),
		zap.String("owner_id", ownerID))
	return nil
}

// DeviceReadings returns the normalized, scored readings for one of the
// owner's devices, newest-first as delivered by storage.
func (s *StatsService) DeviceReadings(ctx context.Context, ownerID, deviceID string) ([]ScoredReading, error) {
	readings, err := s.readingsForOwner(ctx, ownerID, deviceID)
	if err != nil {
		return nil, err
	}

	out := make([]ScoredReading, len(readings))
	for i, r := range readings {
		out[i] = ScoredReading{Reading: r, Score: Score(r.RawValue)}
	}
	return out, nil
}

// TodaySummary aggregates the device's readings for the current local date.
func (s *StatsService) TodaySummary(ctx context.Context, ownerID, deviceID string) (DailySummary, error) {
	readings, err := s.readingsForOwner(ctx, ownerID, deviceID)
	if err != nil {
		return DailySummary{}, err
	}

	summary, ok := SummarizeDay(readings, s.now().In(s.loc))
	if !ok {
		return DailySummary{}, ErrNoReadings
	}

	s.logger.Info("daily summary computed",
		zap.String("device_id", deviceID),
		zap.Int("readings", summary.ReadingCount),
		zap.Int("average_score", summary.AverageScore))
	return summary, nil
}

// WeeklyStats returns the chart-ready weekly series for a device.
func (s *StatsService) WeeklyStats(ctx context.Context, ownerID, deviceID string, window int) ([]WeeklyPoint, error) {
	readings, err := s.readingsForOwner(ctx, ownerID, deviceID)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, ErrNoReadings
	}
	return WeeklySeries(readings, window, s.loc), nil
}

// Trend reports the score change between the two most recent readings.
func (s *StatsService) Trend(ctx context.Context, ownerID, deviceID string) (TrendChange, error) {
	readings, err := s.readingsForOwner(ctx, ownerID, deviceID)
	if err != nil {
		return TrendChange{}, err
	}

	change, ok := TrendDelta(readings)
	if !ok {
		return TrendChange{}, ErrNoReadings
	}
	return change, nil
}

// Ingest stores a telemetry payload for a registered device and returns the
// canonical Reading it normalizes to. The row id is server-assigned.
func (s *StatsService) Ingest(ctx context.Context, deviceID string, payload TelemetryPayload) (Reading, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	exists, err := s.devices.Exists(dbCtx, deviceID)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if !exists {
		return Reading{}, ErrDeviceNotFound
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Reading{}, fmt.Errorf("marshal payload: %w", err)
	}

	receivedAt := s.now().UTC()
	row := models.TelemetryRow{
		ID:          uuid.NewString(),
		DeviceID:    deviceID,
		PayloadJSON: payloadJSON,
		CreatedAt:   receivedAt.Format(time.RFC3339Nano),
	}
	if err := s.telemetry.Insert(dbCtx, row); err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	reading := NormalizeRow(rawFromModel(row), receivedAt)

	s.logger.Info("telemetry ingested",
		zap.String("device_id", deviceID),
		zap.String("id", row.ID),
		zap.Int("score", Score(reading.RawValue)))
	return reading, nil
}

// LeaderboardView ranks the stored roster. An empty roster yields an empty
// board, which callers render as "no rank" rather than an error.
func (s *StatsService) LeaderboardView(ctx context.Context) (Leaderboard, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	users, err := s.roster.ListUsers(dbCtx)
	if err != nil {
		return Leaderboard{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	roster := make([]UserSummary, len(users))
	for i, u := range users {
		roster[i] = UserSummary{
			UserID:      u.ID,
			DisplayName: u.Name,
			Avatar:      u.Avatar,
			TotalScore:  u.TotalScore,
			TotalDays:   u.TotalDays,
			Streak:      u.Streak,
			Visible:     u.ShowOnLeaderboard,
		}
	}

	board := RankUsers(roster)
	s.logger.Info("leaderboard computed",
		zap.Int("visible_users", len(board.Entries)),
		zap.Int("max_streak", board.MaxStreak))
	return board, nil
}

func (s *StatsService) readingsForOwner(ctx context.Context, ownerID, deviceID string) ([]Reading, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	owned, err := s.devices.Owned(dbCtx, deviceID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if !owned {
		return nil, ErrDeviceNotFound
	}

	rows, err := s.telemetry.ListByDevice(dbCtx, deviceID, telemetryFetchLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	receivedAt := s.now().UTC()
	readings := make([]Reading, len(rows))
	for i, row := range rows {
		readings[i] = NormalizeRow(rawFromModel(row), receivedAt)
	}
	return readings, nil
}

// rawFromModel lifts a stored row back into the wire shape the normalizer
// accepts. A payload that fails to decode is treated as absent, which
// normalizes to a zero-valued reading instead of failing the request.
func rawFromModel(row models.TelemetryRow) RawTelemetryRow {
	raw := RawTelemetryRow{
		TelemetryID: row.ID,
		DeviceID:    FlexID(row.DeviceID),
	}
	if t, ok := parseInstant(row.CreatedAt); ok {
		raw.CreatedAt = FlexInstant{Time: t, Valid: true}
	}
	if len(row.PayloadJSON) > 0 {
		var p TelemetryPayload
		if err := json.Unmarshal(row.PayloadJSON, &p); err == nil {
			raw.Payload = &p
		}
	}
	return raw
}
