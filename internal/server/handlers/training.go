// internal/server/handlers/training.go

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// TrainingService creates training triggers on operator request
type TrainingService interface {
	TriggerManually(ctx context.Context, modelType string, force bool) (string, error)
}

// TrainingHandler handles manual training trigger requests
type TrainingHandler struct {
	service TrainingService
	log     zerolog.Logger
}

// NewTrainingHandler creates a new training handler
func NewTrainingHandler(service TrainingService, log zerolog.Logger) *TrainingHandler {
	return &TrainingHandler{
		service: service,
		log:     log.With().Str("handler", "training").Logger(),
	}
}

// triggerRequest is the manual trigger request body
type triggerRequest struct {
	ModelType string `json:"model_type"`
	Force     bool   `json:"force"`
}

// TriggerTraining forces a retraining request independent of the automatic
// counter. Defaults: model_type "all", force false. An empty body is valid.
func (h *TrainingHandler) TriggerTraining(w http.ResponseWriter, r *http.Request) {
	req := triggerRequest{ModelType: "all"}

	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"error":   "invalid request body",
			})
			return
		}
		if req.ModelType == "" {
			req.ModelType = "all"
		}
	}

	triggerID, err := h.service.TriggerManually(r.Context(), req.ModelType, req.Force)
	if err != nil {
		h.log.Error().Err(err).Str("model_type", req.ModelType).Msg("manual training trigger failed")
		respondWithJSON(w, http.StatusInternalServerError, map[string]interface{}{
			"success": false,
			"error":   "failed to trigger training",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":    true,
		"message":    fmt.Sprintf("Training triggered for %s", req.ModelType),
		"trigger_id": triggerID,
	})
}
