// internal/service/pipeline/handler.go

package pipeline

import (
	"context"

	"github.com/rs/zerolog"

	"fieldwatch/internal/domain/detection"
	"fieldwatch/internal/errs"
)

// AnomalyEvaluator runs the population-spike rule for one detection
type AnomalyEvaluator interface {
	Evaluate(ctx context.Context, id string, rec detection.Record) error
}

// RetrainingCounter counts one processed detection against the model counter
type RetrainingCounter interface {
	Record(ctx context.Context) error
}

// Handler is the single entry point for automatic triggers: it is invoked
// once per newly persisted detection record and orchestrates anomaly
// evaluation followed by the retraining-counter update. Delivery is
// at-least-once; a failed invocation is retried by the trigger mechanism.
type Handler struct {
	evaluator AnomalyEvaluator
	counter   RetrainingCounter
	log       zerolog.Logger
}

// NewHandler creates a new detection event handler
func NewHandler(evaluator AnomalyEvaluator, counter RetrainingCounter, log zerolog.Logger) *Handler {
	return &Handler{
		evaluator: evaluator,
		counter:   counter,
		log:       log.With().Str("component", "pipeline").Logger(),
	}
}

// Process handles one detection event. The first hard error in either
// sub-step fails the invocation; there is no rollback of the other step's
// side effects. A detection without coordinates still counts toward
// retraining, mirroring the alert and counter writes being independent.
func (h *Handler) Process(ctx context.Context, id string, rec detection.Record) error {
	h.log.Debug().Str("detection_id", id).Str("species", rec.Species).Msg("processing detection")

	if err := h.evaluator.Evaluate(ctx, id, rec); err != nil {
		h.log.Error().Err(err).Str("detection_id", id).Msg("anomaly evaluation failed")
		return errs.Wrapf(err, errs.KindOf(err), "process detection %s", id)
	}

	if err := h.counter.Record(ctx); err != nil {
		h.log.Error().Err(err).Str("detection_id", id).Msg("retraining counter update failed")
		return errs.Wrapf(err, errs.KindOf(err), "process detection %s", id)
	}

	return nil
}
