// internal/service/anomaly/evaluator.go

package anomaly

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fieldwatch/internal/domain/alert"
	"fieldwatch/internal/domain/detection"
	"fieldwatch/internal/errs"
)

// DetectionStore defines the detection reads the evaluator needs. The store
// supports a single inequality field per query, so only latitude is range
// filtered; the longitude bound is applied in memory by the evaluator.
type DetectionStore interface {
	FindInLatRange(ctx context.Context, lower, upper float64, since time.Time) ([]detection.Record, error)
}

// AlertStore defines storage for outbreak alerts
type AlertStore interface {
	InsertAlert(ctx context.Context, a alert.Alert) (string, error)
	HasActiveAlertNear(ctx context.Context, lat, lng, degrees float64) (bool, error)
}

// EventPublisher publishes domain events. *nats.Conn satisfies this.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// EvaluatorConfig contains the spike-rule tuning knobs
type EvaluatorConfig struct {
	WindowDegrees            float64
	Window                   time.Duration
	MinClusterSize           int
	MinAvgConfidence         float64
	AlertRadiusKm            float64
	SeverityLevel            int
	SuppressActiveDuplicates bool
	AlertsSubject            string
}

// Evaluator decides whether a newly ingested detection represents a
// localized population-spike anomaly worth alerting on
type Evaluator struct {
	detections DetectionStore
	alerts     AlertStore
	eventBus   EventPublisher
	config     EvaluatorConfig
	log        zerolog.Logger
	now        func() time.Time
}

// NewEvaluator creates a new anomaly evaluator
func NewEvaluator(
	detections DetectionStore,
	alerts AlertStore,
	eventBus EventPublisher,
	config EvaluatorConfig,
	log zerolog.Logger,
) *Evaluator {
	return &Evaluator{
		detections: detections,
		alerts:     alerts,
		eventBus:   eventBus,
		config:     config,
		log:        log.With().Str("component", "anomaly").Logger(),
		now:        time.Now,
	}
}

// Evaluate runs the population-spike rule for one detection. A record
// without coordinates cannot be windowed; that is a skip, not an error.
// Deciding not to alert is never an error either.
func (e *Evaluator) Evaluate(ctx context.Context, id string, rec detection.Record) error {
	if !rec.HasLocation() {
		e.log.Warn().Str("detection_id", id).Msg("missing location data, skipping anomaly evaluation")
		return nil
	}

	lat := *rec.Latitude
	lng := *rec.Longitude
	since := e.now().Add(-e.config.Window)

	// Latitude range plus time floor; the store supports one inequality field
	candidates, err := e.detections.FindInLatRange(
		ctx,
		lat-e.config.WindowDegrees,
		lat+e.config.WindowDegrees,
		since,
	)
	if err != nil {
		return errs.Wrapf(err, errs.KindStorage, "query detections near %f,%f", lat, lng)
	}

	// Post-filter by longitude to complete the bounding box
	var cluster []detection.Record
	for _, c := range candidates {
		if c.Longitude != nil && math.Abs(*c.Longitude-lng) <= e.config.WindowDegrees {
			cluster = append(cluster, c)
		}
	}

	if len(cluster) < e.config.MinClusterSize {
		return nil
	}

	var sum float64
	for _, c := range cluster {
		sum += c.ConfidenceScore
	}
	avg := sum / float64(len(cluster))

	if avg <= e.config.MinAvgConfidence {
		return nil
	}

	if e.config.SuppressActiveDuplicates {
		covered, err := e.alerts.HasActiveAlertNear(ctx, lat, lng, e.config.WindowDegrees)
		if err != nil {
			return errs.Wrap(err, errs.KindStorage, "check active alerts")
		}
		if covered {
			e.log.Debug().
				Str("detection_id", id).
				Msg("active alert already covers this area, suppressing duplicate")
			return nil
		}
	}

	a := alert.Alert{
		ID:            uuid.New().String(),
		Type:          alert.TypePopulationSpike,
		SeverityLevel: e.config.SeverityLevel,
		Latitude:      lat,
		Longitude:     lng,
		RadiusKm:      e.config.AlertRadiusKm,
		Description:   fmt.Sprintf("Potential population spike detected with %d observations", len(cluster)),
		Status:        alert.StatusActive,
		AlertedAt:     e.now(),
		Metadata: alert.Metadata{
			DetectionCount:        len(cluster),
			AvgConfidence:         avg,
			TriggeringDetectionID: id,
		},
		CreatedAt: e.now(),
	}

	alertID, err := e.alerts.InsertAlert(ctx, a)
	if err != nil {
		return errs.Wrap(err, errs.KindStorage, "insert outbreak alert")
	}
	a.ID = alertID

	e.log.Info().
		Str("alert_id", alertID).
		Float64("lat", lat).
		Float64("lng", lng).
		Int("detection_count", len(cluster)).
		Float64("avg_confidence", avg).
		Msg("created outbreak alert")

	e.publishAlertEvent(a)

	return nil
}

// publishAlertEvent publishes an alert created event. Publish failures are
// logged only; the alert is already durable.
func (e *Evaluator) publishAlertEvent(a alert.Alert) {
	if e.eventBus == nil || e.config.AlertsSubject == "" {
		return
	}

	data, err := json.Marshal(a)
	if err != nil {
		e.log.Error().Err(err).Msg("marshal alert event")
		return
	}

	if err := e.eventBus.Publish(e.config.AlertsSubject, data); err != nil {
		e.log.Error().Err(err).Str("alert_id", a.ID).Msg("publish alert event")
	}
}
