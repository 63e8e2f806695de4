package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/posturetrack/posture-server/internal/httpapi/middleware"
	"github.com/posturetrack/posture-server/internal/httpapi/mocks"
	"github.com/posturetrack/posture-server/internal/service"
)

func newTestHandlers(stats *mocks.MockStatsService) *Handlers {
	return NewHandlers(stats, &mocks.MockCacher{}, nil, zap.NewNop(), time.Minute)
}

// authedRequest builds a request that already passed the auth middleware.
func authedRequest(method, target, body, userID string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestNewHandlers(t *testing.T) {
	t.Run("panics on nil stats service", func(t *testing.T) {
		assert.Panics(t, func() {
			NewHandlers(nil, &mocks.MockCacher{}, nil, zap.NewNop(), time.Minute)
		})
	})

	t.Run("non-positive ttl falls back to the default", func(t *testing.T) {
		h := NewHandlers(&mocks.MockStatsService{}, &mocks.MockCacher{}, nil, zap.NewNop(), 0)
		assert.Equal(t, defaultCacheDuration, h.cacheTTL)
	})
}

func TestHealth(t *testing.T) {
	h := newTestHandlers(&mocks.MockStatsService{})
	rec := httptest.NewRecorder()

	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestListDevices(t *testing.T) {
	t.Run("returns the owner's devices", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			ListDevicesFunc: func(ctx context.Context, ownerID string) ([]service.Device, error) {
				assert.Equal(t, "user-1", ownerID)
				return []service.Device{{DeviceID: "dev-1", Name: "desk sensor", OwnerID: "user-1"}}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.ListDevices(rec, authedRequest(http.MethodGet, "/devices/list", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		devices := decodeBody[[]service.Device](t, rec)
		require.Len(t, devices, 1)
		assert.Equal(t, "dev-1", devices[0].DeviceID)
	})

	t.Run("no devices yields an empty array, not null", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			ListDevicesFunc: func(ctx context.Context, ownerID string) ([]service.Device, error) {
				return nil, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.ListDevices(rec, authedRequest(http.MethodGet, "/devices/list", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "[]\n", rec.Body.String())
	})

	t.Run("storage failure maps to 500 with the database detail", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			ListDevicesFunc: func(ctx context.Context, ownerID string) ([]service.Device, error) {
				return nil, service.ErrStorageFailure
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.ListDevices(rec, authedRequest(http.MethodGet, "/devices/list", "", "user-1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.JSONEq(t, `{"detail": "database error"}`, rec.Body.String())
	})
}

func TestCreateDevice(t *testing.T) {
	t.Run("registers the device for the authenticated owner", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			RegisterDeviceFunc: func(ctx context.Context, ownerID, deviceID, name string) (service.Device, error) {
				assert.Equal(t, "user-1", ownerID)
				assert.Equal(t, "dev-1", deviceID)
				return service.Device{DeviceID: deviceID, Name: name, OwnerID: ownerID}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.CreateDevice(rec, authedRequest(http.MethodPost, "/devices/create",
			`{"device_id": "dev-1", "name": "desk sensor"}`, "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		device := decodeBody[service.Device](t, rec)
		assert.Equal(t, "desk sensor", device.Name)
	})

	t.Run("numeric device_id is accepted", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			RegisterDeviceFunc: func(ctx context.Context, ownerID, deviceID, name string) (service.Device, error) {
				assert.Equal(t, "42", deviceID)
				return service.Device{DeviceID: deviceID, Name: name, OwnerID: ownerID}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.CreateDevice(rec, authedRequest(http.MethodPost, "/devices/create",
			`{"device_id": 42, "name": "legacy sensor"}`, "user-1"))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed body is a 400", func(t *testing.T) {
		h := newTestHandlers(&mocks.MockStatsService{})
		rec := httptest.NewRecorder()

		h.CreateDevice(rec, authedRequest(http.MethodPost, "/devices/create", `{not json`, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.JSONEq(t, `{"detail": "invalid request body"}`, rec.Body.String())
	})

	t.Run("validation failure from the service is a 400", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			RegisterDeviceFunc: func(ctx context.Context, ownerID, deviceID, name string) (service.Device, error) {
				return service.Device{}, service.ErrInvalidDevice
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.CreateDevice(rec, authedRequest(http.MethodPost, "/devices/create",
			`{"device_id": "", "name": ""}`, "user-1"))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDeleteDevice(t *testing.T) {
	t.Run("deletes an owned device", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			RemoveDeviceFunc: func(ctx context.Context, ownerID, deviceID string) error {
				assert.Equal(t, "user-1", ownerID)
				assert.Equal(t, "dev-1", deviceID)
				return nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		req := mux.SetURLVars(
			authedRequest(http.MethodDelete, "/devices/delete/dev-1", "", "user-1"),
			map[string]string{"device_id": "dev-1"})
		h.DeleteDevice(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"message": "device deleted"}`, rec.Body.String())
	})

	t.Run("unknown or foreign device is a 404", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			RemoveDeviceFunc: func(ctx context.Context, ownerID, deviceID string) error {
				return service.ErrDeviceNotFound
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		req := mux.SetURLVars(
			authedRequest(http.MethodDelete, "/devices/delete/ghost", "", "user-1"),
			map[string]string{"device_id": "ghost"})
		h.DeleteDevice(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"detail": "device not found"}`, rec.Body.String())
	})
}

func TestDeviceData(t *testing.T) {
	stats := &mocks.MockStatsService{
		DeviceReadingsFunc: func(ctx context.Context, ownerID, deviceID string) ([]service.ScoredReading, error) {
			return []service.ScoredReading{
				{Reading: service.Reading{ID: "r1", DeviceID: deviceID, RawValue: 4095}, Score: 50},
			}, nil
		},
	}
	h := newTestHandlers(stats)
	rec := httptest.NewRecorder()

	req := mux.SetURLVars(
		authedRequest(http.MethodGet, "/devices/get/dev-1/data", "", "user-1"),
		map[string]string{"device_id": "dev-1"})
	h.DeviceData(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	readings := decodeBody[[]service.ScoredReading](t, rec)
	require.Len(t, readings, 1)
	assert.Equal(t, 50, readings[0].Score)
}

func TestIngestTelemetry(t *testing.T) {
	t.Run("stores the reading and returns its id", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			IngestFunc: func(ctx context.Context, deviceID string, payload service.TelemetryPayload) (service.Reading, error) {
				assert.Equal(t, "dev-1", deviceID)
				assert.Equal(t, float64(1200), payload.PotentiometerValue)
				return service.Reading{ID: "new-id", DeviceID: deviceID, RawValue: 1200}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodPost, "/ingest/dev-1",
				strings.NewReader(`{"potentiometer_value": 1200}`)),
			map[string]string{"device_id": "dev-1"})
		h.IngestTelemetry(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status": "ok", "id": "new-id"}`, rec.Body.String())
	})

	t.Run("unknown device is a 404", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			IngestFunc: func(ctx context.Context, deviceID string, payload service.TelemetryPayload) (service.Reading, error) {
				return service.Reading{}, service.ErrDeviceNotFound
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		req := mux.SetURLVars(
			httptest.NewRequest(http.MethodPost, "/ingest/ghost",
				strings.NewReader(`{"potentiometer_value": 1}`)),
			map[string]string{"device_id": "ghost"})
		h.IngestTelemetry(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestDailyStats(t *testing.T) {
	t.Run("has_data true with the summary", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			TodaySummaryFunc: func(ctx context.Context, ownerID, deviceID string) (service.DailySummary, error) {
				return service.DailySummary{Date: "2025-03-10", ReadingCount: 4, AverageScore: 85, TotalMinutes: 4, GoodPostureMinutes: 3}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.DailyStats(rec, authedRequest(http.MethodGet, "/stats/daily?device_id=dev-1", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[dailyStatsResponse](t, rec)
		require.True(t, resp.HasData)
		assert.Equal(t, 85, resp.Summary.AverageScore)
	})

	t.Run("no readings today means has_data false, not a zero summary", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			TodaySummaryFunc: func(ctx context.Context, ownerID, deviceID string) (service.DailySummary, error) {
				return service.DailySummary{}, service.ErrNoReadings
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.DailyStats(rec, authedRequest(http.MethodGet, "/stats/daily?device_id=dev-1", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[dailyStatsResponse](t, rec)
		assert.False(t, resp.HasData)
		assert.Nil(t, resp.Summary)
	})
}

func TestWeeklyStats(t *testing.T) {
	t.Run("passes the window through", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			WeeklyStatsFunc: func(ctx context.Context, ownerID, deviceID string, window int) ([]service.WeeklyPoint, error) {
				assert.Equal(t, 14, window)
				return []service.WeeklyPoint{{Day: "Mon", Score: 80, Duration: 60}}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.WeeklyStats(rec, authedRequest(http.MethodGet, "/stats/weekly?device_id=dev-1&window=14", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[weeklyStatsResponse](t, rec)
		require.Len(t, resp.Points, 1)
	})

	t.Run("omitted window defaults at the service layer", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			WeeklyStatsFunc: func(ctx context.Context, ownerID, deviceID string, window int) ([]service.WeeklyPoint, error) {
				assert.Equal(t, 0, window)
				return nil, service.ErrNoReadings
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.WeeklyStats(rec, authedRequest(http.MethodGet, "/stats/weekly?device_id=dev-1", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[weeklyStatsResponse](t, rec)
		assert.Empty(t, resp.Points)
	})

	t.Run("window validation", func(t *testing.T) {
		tests := []struct {
			name   string
			window string
		}{
			{"not a number", "seven"},
			{"zero", "0"},
			{"negative", "-3"},
			{"over the cap", "2001"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newTestHandlers(&mocks.MockStatsService{})
				rec := httptest.NewRecorder()

				h.WeeklyStats(rec, authedRequest(http.MethodGet,
					"/stats/weekly?device_id=dev-1&window="+tt.window, "", "user-1"))

				assert.Equal(t, http.StatusBadRequest, rec.Code)
			})
		}
	})
}

func TestTrendStats(t *testing.T) {
	t.Run("reports the delta between the two latest readings", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			TrendFunc: func(ctx context.Context, ownerID, deviceID string) (service.TrendChange, error) {
				return service.TrendChange{CurrentScore: 80, PreviousScore: 90, Delta: -10}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.TrendStats(rec, authedRequest(http.MethodGet, "/stats/trend?device_id=dev-1", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[trendStatsResponse](t, rec)
		require.True(t, resp.HasTrend)
		assert.Equal(t, -10, resp.Trend.Delta)
	})

	t.Run("fewer than two readings omits the trend", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			TrendFunc: func(ctx context.Context, ownerID, deviceID string) (service.TrendChange, error) {
				return service.TrendChange{}, service.ErrNoReadings
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.TrendStats(rec, authedRequest(http.MethodGet, "/stats/trend?device_id=dev-1", "", "user-1"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[trendStatsResponse](t, rec)
		assert.False(t, resp.HasTrend)
		assert.Nil(t, resp.Trend)
	})
}

func TestGetLeaderboard(t *testing.T) {
	board := service.RankUsers([]service.UserSummary{
		{UserID: "u1", DisplayName: "Sarah", TotalScore: 94, Streak: 12, Visible: true},
		{UserID: "u2", DisplayName: "Michael", TotalScore: 91, Streak: 9, Visible: true},
	})

	t.Run("cache miss falls through to the service and reports your_rank", func(t *testing.T) {
		calls := 0
		stats := &mocks.MockStatsService{
			LeaderboardViewFunc: func(ctx context.Context) (service.Leaderboard, error) {
				calls++
				return board, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.GetLeaderboard(rec, authedRequest(http.MethodGet, "/leaderboard", "", "u2"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, calls)
		resp := decodeBody[leaderboardResponse](t, rec)
		require.Len(t, resp.Entries, 2)
		assert.Equal(t, 2, resp.YourRank)
		assert.Equal(t, 12, resp.MaxStreak)
	})

	t.Run("cache hit skips the service, your_rank is still per viewer", func(t *testing.T) {
		cached, err := json.Marshal(board)
		require.NoError(t, err)

		cache := &mocks.MockCacher{
			GetFunc: func(ctx context.Context, key string, dest any) error {
				assert.Equal(t, cacheKeyLeaderboard, key)
				return json.Unmarshal(cached, dest)
			},
		}
		stats := &mocks.MockStatsService{
			LeaderboardViewFunc: func(ctx context.Context) (service.Leaderboard, error) {
				return board, nil
			},
		}
		h := NewHandlers(stats, cache, nil, zap.NewNop(), time.Minute)
		rec := httptest.NewRecorder()

		h.GetLeaderboard(rec, authedRequest(http.MethodGet, "/leaderboard", "", "stranger"))

		require.Equal(t, http.StatusOK, rec.Code)
		resp := decodeBody[leaderboardResponse](t, rec)
		assert.Equal(t, 0, resp.YourRank)
	})

	t.Run("empty board serializes arrays, not nulls", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			LeaderboardViewFunc: func(ctx context.Context) (service.Leaderboard, error) {
				return service.Leaderboard{}, nil
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.GetLeaderboard(rec, authedRequest(http.MethodGet, "/leaderboard", "", "u1"))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"entries":[]`)
		assert.Contains(t, rec.Body.String(), `"podium":[]`)
	})

	t.Run("service failure surfaces as 500", func(t *testing.T) {
		stats := &mocks.MockStatsService{
			LeaderboardViewFunc: func(ctx context.Context) (service.Leaderboard, error) {
				return service.Leaderboard{}, errors.New("roster unavailable")
			},
		}
		h := newTestHandlers(stats)
		rec := httptest.NewRecorder()

		h.GetLeaderboard(rec, authedRequest(http.MethodGet, "/leaderboard", "", "u1"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestLiveReadings_NoHub(t *testing.T) {
	h := newTestHandlers(&mocks.MockStatsService{})
	rec := httptest.NewRecorder()

	req := mux.SetURLVars(
		authedRequest(http.MethodGet, "/devices/get/dev-1/live", "", "user-1"),
		map[string]string{"device_id": "dev-1"})
	h.LiveReadings(rec, req)

	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}
