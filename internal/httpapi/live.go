package httpapi

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeWait = 5 * time.Second

// ReadingUpdate is the message pushed to live subscribers when a device
// ingests a reading.
type ReadingUpdate struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Timestamp time.Time `json:"timestamp"`
	RawValue  float64   `json:"raw_value"`
	Score     int       `json:"score"`
}

// Hub fans ingested readings out to per-device WebSocket subscribers.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu   sync.Mutex
	subs map[string]map[*websocket.Conn]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger.Named("live-hub"),
		upgrader: websocket.Upgrader{
			// Cross-origin policy is enforced by the CORS layer; the
			// upgrade itself accepts any origin the router let through.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*websocket.Conn]struct{}),
	}
}

// Subscribe upgrades the request and registers the connection for a device.
// The read loop exists only to detect the peer closing.
func (h *Hub) Subscribe(w http.ResponseWriter, r *http.Request, deviceID string) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed",
			zap.String("device_id", deviceID),
			zap.Error(err))
		return
	}

	h.mu.Lock()
	if h.subs[deviceID] == nil {
		h.subs[deviceID] = make(map[*websocket.Conn]struct{})
	}
	h.subs[deviceID][conn] = struct{}{}
	h.mu.Unlock()

	h.logger.Info("live subscriber connected", zap.String("device_id", deviceID))

	go func() {
		defer h.drop(deviceID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an update to every subscriber of the device. Connections
// that fail to accept the write are dropped.
func (h *Hub) Broadcast(deviceID string, update ReadingUpdate) {
	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.subs[deviceID]))
	for conn := range h.subs[deviceID] {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(update); err != nil {
			h.logger.Debug("dropping dead live subscriber",
				zap.String("device_id", deviceID),
				zap.Error(err))
			h.drop(deviceID, conn)
		}
	}
}

// Close disconnects all subscribers.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for deviceID, conns := range h.subs {
		for conn := range conns {
			_ = conn.Close()
		}
		delete(h.subs, deviceID)
	}
}

func (h *Hub) drop(deviceID string, conn *websocket.Conn) {
	h.mu.Lock()
	if conns, ok := h.subs[deviceID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.subs, deviceID)
		}
	}
	h.mu.Unlock()
	_ = conn.Close()
}
