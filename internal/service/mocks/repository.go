package mocks

import (
	"context"
	"errors"

	"github.com/posturetrack/posture-server/internal/repository/models"
)

// MockDeviceRepository is a mock implementation of the DeviceRepository
// interface for testing the service layer.
type MockDeviceRepository struct {
	ListByOwnerFunc func(ctx context.Context, ownerID string) ([]models.Device, error)
	CreateFunc      func(ctx context.Context, device models.Device) error
	DeleteFunc      func(ctx context.Context, deviceID, ownerID string) (bool, error)
	OwnedFunc       func(ctx context.Context, deviceID, ownerID string) (bool, error)
	ExistsFunc      func(ctx context.Context, deviceID string) (bool, error)
}

func (m *MockDeviceRepository) ListByOwner(ctx context.Context, ownerID string) ([]models.Device, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ctx, ownerID)
	}
	return nil, errors.New("ListByOwnerFunc not implemented")
}

func (m *MockDeviceRepository) Create(ctx context.Context, device models.Device) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, device)
	}
	return errors.New("CreateFunc not implemented")
}

func (m *MockDeviceRepository) Delete(ctx context.Context, deviceID, ownerID string) (bool, error) {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, deviceID, ownerID)
	}
	return false, errors.New("DeleteFunc not implemented")
}

func (m *MockDeviceRepository) Owned(ctx context.Context, deviceID, ownerID string) (bool, error) {
	if m.OwnedFunc != nil {
		return m.OwnedFunc(ctx, deviceID, ownerID)
	}
	return false, errors.New("OwnedFunc not implemented")
}

func (m *MockDeviceRepository) Exists(ctx context.Context, deviceID string) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, deviceID)
	}
	return false, errors.New("ExistsFunc not implemented")
}

// MockTelemetryRepository is a mock implementation of the
// TelemetryRepository interface.
type MockTelemetryRepository struct {
	ListByDeviceFunc func(ctx context.Context, deviceID string, limit int) ([]models.TelemetryRow, error)
	InsertFunc       func(ctx context.Context, row models.TelemetryRow) error
}

func (m *MockTelemetryRepository) ListByDevice(ctx context.Context, deviceID string, limit int) ([]models.TelemetryRow, error) {
	if m.ListByDeviceFunc != nil {
		return m.ListByDeviceFunc(ctx, deviceID, limit)
	}
	return nil, errors.New("ListByDeviceFunc not implemented")
}

func (m *MockTelemetryRepository) Insert(ctx context.Context, row models.TelemetryRow) error {
	if m.InsertFunc != nil {
		return m.InsertFunc(ctx, row)
	}
	return errors.New("InsertFunc not implemented")
}

// MockRosterRepository is a mock implementation of the RosterRepository
// interface.
type MockRosterRepository struct {
	ListUsersFunc func(ctx context.Context) ([]models.LeaderboardUser, error)
}

func (m *MockRosterRepository) ListUsers(ctx context.Context) ([]models.LeaderboardUser, error) {
	if m.ListUsersFunc != nil {
		return m.ListUsersFunc(ctx)
	}
	return nil, errors.New("ListUsersFunc not implemented")
}
