package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/posturetrack/posture-server/internal/httpapi/middleware"
	"github.com/posturetrack/posture-server/internal/service"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheDuration = 10 * time.Minute
	defaultHTTPTimeout   = 10 * time.Second

	cacheKeyLeaderboard = "http:leaderboard"
)

type Handlers struct {
	stats    StatsService
	cache    Cacher
	live     *Hub
	logger   *zap.Logger
	sfGroup  singleflight.Group
	cacheTTL time.Duration
}

// NewHandlers initializes the HTTP handlers.
func NewHandlers(stats StatsService, cache Cacher, live *Hub, logger *zap.Logger, ttl time.Duration) *Handlers {
	if stats == nil {
		panic("nil StatsService provided to NewHandlers")
	}
	if ttl <= 0 {
		ttl = defaultCacheDuration
	}
	return &Handlers{
		stats:    stats,
		cache:    cache,
		live:     live,
		logger:   logger.Named("http-handler"),
		cacheTTL: ttl,
	}
}

// writeJSON encodes v as the response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes the error envelope the dashboard client expects:
// {"detail": "..."} mirrors the original backend's error shape.
func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func (h *Handlers) handleError(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch ctx.Err() {
	case context.Canceled:
		h.logger.Warn("request canceled", zap.String("op", op))
		writeDetail(w, http.StatusServiceUnavailable, "request canceled")
		return
	case context.DeadlineExceeded:
		h.logger.Warn("request timeout", zap.String("op", op))
		writeDetail(w, http.StatusGatewayTimeout, "request timed out")
		return
	}

	switch {
	case errors.Is(err, service.ErrInvalidDevice):
		h.logger.Info("invalid device input", zap.String("op", op), zap.Error(err))
		writeDetail(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDeviceNotFound):
		h.logger.Info("device not found", zap.String("op", op))
		writeDetail(w, http.StatusNotFound, "device not found")
	case errors.Is(err, service.ErrStorageFailure):
		h.logger.Error("storage failure", zap.String("op", op), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, "database error")
	default:
		h.logger.Error("unexpected error", zap.String("op", op), zap.Error(err))
		writeDetail(w, http.StatusInternalServerError, op+" failed")
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListDevices handles GET /devices/list.
func (h *Handlers) ListDevices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)

	devices, err := h.stats.ListDevices(ctx, ownerID)
	if err != nil {
		h.handleError(ctx, w, "ListDevices", err)
		return
	}
	if devices == nil {
		devices = []service.Device{}
	}
	writeJSON(w, http.StatusOK, devices)
}

type createDeviceRequest struct {
	DeviceID service.FlexID `json:"device_id"`
	Name     string         `json:"name"`
}

// CreateDevice handles POST /devices/create.
func (h *Handlers) CreateDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)

	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device, err := h.stats.RegisterDevice(ctx, ownerID, string(req.DeviceID), req.Name)
	if err != nil {
		h.handleError(ctx, w, "CreateDevice", err)
		return
	}
	writeJSON(w, http.StatusOK, device)
}

// DeleteDevice handles DELETE /devices/delete/{device_id}.
func (h *Handlers) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)
	deviceID := mux.Vars(r)["device_id"]

	if err := h.stats.RemoveDevice(ctx, ownerID, deviceID); err != nil {
		h.handleError(ctx, w, "DeleteDevice", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "device deleted"})
}

// DeviceData handles GET /devices/get/{device_id}/data.
func (h *Handlers) DeviceData(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)
	deviceID := mux.Vars(r)["device_id"]

	readings, err := h.stats.DeviceReadings(ctx, ownerID, deviceID)
	if err != nil {
		h.handleError(ctx, w, "DeviceData", err)
		return
	}
	if readings == nil {
		readings = []service.ScoredReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

type ingestResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// IngestTelemetry handles POST /ingest/{device_id}. The route is public:
// devices post readings without a user token, matching the original backend.
func (h *Handlers) IngestTelemetry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	deviceID := mux.Vars(r)["device_id"]

	var payload service.TelemetryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeDetail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reading, err := h.stats.Ingest(ctx, deviceID, payload)
	if err != nil {
		h.handleError(ctx, w, "IngestTelemetry", err)
		return
	}

	if h.live != nil {
		h.live.Broadcast(deviceID, ReadingUpdate{
			ID:        reading.ID,
			DeviceID:  reading.DeviceID,
			Timestamp: reading.Timestamp,
			RawValue:  reading.RawValue,
			Score:     service.Score(reading.RawValue),
		})
	}

	writeJSON(w, http.StatusOK, ingestResponse{Status: "ok", ID: reading.ID})
}

type dailyStatsResponse struct {
	HasData bool                  `json:"has_data"`
	Summary *service.DailySummary `json:"summary"`
}

// DailyStats handles GET /stats/daily?device_id=X. A device with no
// readings today yields has_data=false, never a zero score.
func (h *Handlers) DailyStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)
	deviceID := r.URL.Query().Get("device_id")

	summary, err := h.stats.TodaySummary(ctx, ownerID, deviceID)
	if errors.Is(err, service.ErrNoReadings) {
		writeJSON(w, http.StatusOK, dailyStatsResponse{HasData: false})
		return
	}
	if err != nil {
		h.handleError(ctx, w, "DailyStats", err)
		return
	}
	writeJSON(w, http.StatusOK, dailyStatsResponse{HasData: true, Summary: &summary})
}

type weeklyStatsResponse struct {
	Points []service.WeeklyPoint `json:"points"`
}

// WeeklyStats handles GET /stats/weekly?device_id=X&window=N.
func (h *Handlers) WeeklyStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)
	deviceID := r.URL.Query().Get("device_id")

	window := 0
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		parsed, err := strconv.Atoi(windowStr)
		if err != nil || parsed < 1 || parsed > service.MaxWeeklyWindow {
			writeDetail(w, http.StatusBadRequest, "window must be an integer between 1 and 2000")
			return
		}
		window = parsed
	}

	points, err := h.stats.WeeklyStats(ctx, ownerID, deviceID, window)
	if errors.Is(err, service.ErrNoReadings) {
		writeJSON(w, http.StatusOK, weeklyStatsResponse{Points: []service.WeeklyPoint{}})
		return
	}
	if err != nil {
		h.handleError(ctx, w, "WeeklyStats", err)
		return
	}
	writeJSON(w, http.StatusOK, weeklyStatsResponse{Points: points})
}

type trendStatsResponse struct {
	HasTrend bool                 `json:"has_trend"`
	Trend    *service.TrendChange `json:"trend"`
}

// TrendStats handles GET /stats/trend?device_id=X. With fewer than two
// readings the trend indicator is omitted, not zeroed.
func (h *Handlers) TrendStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	ownerID, _ := middleware.UserIDFromContext(ctx)
	deviceID := r.URL.Query().Get("device_id")

	trend, err := h.stats.Trend(ctx, ownerID, deviceID)
	if errors.Is(err, service.ErrNoReadings) {
		writeJSON(w, http.StatusOK, trendStatsResponse{HasTrend: false})
		return
	}
	if err != nil {
		h.handleError(ctx, w, "TrendStats", err)
		return
	}
	writeJSON(w, http.StatusOK, trendStatsResponse{HasTrend: true, Trend: &trend})
}

type leaderboardResponse struct {
	Entries   []service.LeaderboardEntry `json:"entries"`
	Podium    []service.LeaderboardEntry `json:"podium"`
	MaxStreak int                        `json:"max_streak"`
	YourRank  int                        `json:"your_rank"`
}

// GetLeaderboard handles GET /leaderboard. The ranked board is shared and
// cached; the viewer's rank is derived from the cached board per request so
// the cache is not fragmented per user.
func (h *Handlers) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), defaultHTTPTimeout)
	defer cancel()

	viewerID, _ := middleware.UserIDFromContext(ctx)

	board, err := FindAndCache(ctx, h.cache, &h.sfGroup, cacheKeyLeaderboard, h.cacheTTL, h.logger, func(fetchCtx context.Context) (service.Leaderboard, error) {
		return h.stats.LeaderboardView(fetchCtx)
	})
	if err != nil {
		h.handleError(ctx, w, "GetLeaderboard", err)
		return
	}

	if board.Entries == nil {
		board.Entries = []service.LeaderboardEntry{}
	}
	if board.Podium == nil {
		board.Podium = []service.LeaderboardEntry{}
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Entries:   board.Entries,
		Podium:    board.Podium,
		MaxStreak: board.MaxStreak,
		YourRank:  board.RankOf(viewerID),
	})
}

// LiveReadings handles GET /devices/get/{device_id}/live, upgrading to a
// WebSocket that streams scored readings as they are ingested.
func (h *Handlers) LiveReadings(w http.ResponseWriter, r *http.Request) {
	if h.live == nil {
		writeDetail(w, http.StatusNotImplemented, "live feed disabled")
		return
	}

	ownerID, _ := middleware.UserIDFromContext(r.Context())
	deviceID := mux.Vars(r)["device_id"]

	// Ownership check before the upgrade; a foreign device id gets 404.
	if _, err := h.stats.DeviceReadings(r.Context(), ownerID, deviceID); err != nil {
		h.handleError(r.Context(), w, "LiveReadings", err)
		return
	}

	h.live.Subscribe(w, r, deviceID)
}
