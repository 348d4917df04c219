// internal/server/handlers/status.go

package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"fieldwatch/internal/service/analytics"
)

// Reporter serves the health heartbeat and the analytics aggregation
type Reporter interface {
	Heartbeat(ctx context.Context) error
	Analytics(ctx context.Context) (analytics.Report, error)
}

// StatusHandler handles the health and analytics read endpoints
type StatusHandler struct {
	reporter Reporter
	log      zerolog.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(reporter Reporter, log zerolog.Logger) *StatusHandler {
	return &StatusHandler{
		reporter: reporter,
		log:      log.With().Str("handler", "status").Logger(),
	}
}

// Health writes the status heartbeat and reports liveness
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.reporter.Heartbeat(r.Context()); err != nil {
		h.log.Error().Err(err).Msg("health check failed")
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"functions": "operational",
	})
}

// Analytics returns the dashboard aggregation
func (h *StatusHandler) Analytics(w http.ResponseWriter, r *http.Request) {
	report, err := h.reporter.Analytics(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("analytics aggregation failed")
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"error": "failed to get analytics",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, report)
}
