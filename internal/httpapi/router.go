package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/posturetrack/posture-server/internal/httpapi/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the public and token-protected routes. The ingest route
// is deliberately public: devices post readings without a user session.
func NewRouter(h *Handlers, jwtSecret string, logger *zap.Logger) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/ingest/{device_id}", h.IngestTelemetry).Methods(http.MethodPost)

	protected := r.PathPrefix("/").Subrouter()
	protected.Use(middleware.SupabaseAuth(jwtSecret, logger))

	protected.HandleFunc("/devices/list", h.ListDevices).Methods(http.MethodGet)
	protected.HandleFunc("/devices/create", h.CreateDevice).Methods(http.MethodPost)
	protected.HandleFunc("/devices/delete/{device_id}", h.DeleteDevice).Methods(http.MethodDelete)
	protected.HandleFunc("/devices/get/{device_id}/data", h.DeviceData).Methods(http.MethodGet)
	protected.HandleFunc("/devices/get/{device_id}/live", h.LiveReadings).Methods(http.MethodGet)
	protected.HandleFunc("/stats/daily", h.DailyStats).Methods(http.MethodGet)
	protected.HandleFunc("/stats/weekly", h.WeeklyStats).Methods(http.MethodGet)
	protected.HandleFunc("/stats/trend", h.TrendStats).Methods(http.MethodGet)
	protected.HandleFunc("/leaderboard", h.GetLeaderboard).Methods(http.MethodGet)

	return r
}
