package api

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pingup/backend/pkg/response"
)

// Pinger is implemented by stores backed by a remote database.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	store   Pinger
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler. store may be nil for
// in-process backends.
func NewHealthHandler(store Pinger, version string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		store:   store,
		version: version,
		logger:  logger,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

func (h *HealthHandler) status(s string) HealthResponse {
	return HealthResponse{
		Status:    s,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   h.version,
	}
}

// Health returns the health status
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.status("ok"))
}

// Ready reports whether the store answers within two seconds
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			response.JSON(w, http.StatusServiceUnavailable, h.status("unavailable"))
			return
		}
	}
	response.OK(w, h.status("ready"))
}

// Live returns the liveness status
func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	response.OK(w, h.status("alive"))
}
