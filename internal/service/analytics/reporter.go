// internal/service/analytics/reporter.go

package analytics

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fieldwatch/internal/domain/training"
	"fieldwatch/internal/errs"
)

// Store defines the read-only aggregations the reporter needs, plus the
// health heartbeat write
type Store interface {
	CountDetectionsSince(ctx context.Context, since time.Time) (int, error)
	CountActiveAlerts(ctx context.Context) (int, error)
	RecentTriggers(ctx context.Context, limit int) ([]training.Trigger, error)
	WriteHeartbeat(ctx context.Context, hb Heartbeat) error
}

// Heartbeat is the status document written on every health check
type Heartbeat struct {
	Status          string    `json:"status"`
	LastCheck       time.Time `json:"last_check"`
	FunctionsActive bool      `json:"functions_active"`
}

// Report is the analytics aggregation returned to dashboard consumers
type Report struct {
	DetectionsLast30Days int                `json:"detections_last_30_days"`
	ActiveAlerts         int                `json:"active_alerts"`
	RecentTrainingJobs   []training.Trigger `json:"recent_training_jobs"`
	Timestamp            time.Time          `json:"timestamp"`
}

const (
	detectionWindow = 30 * 24 * time.Hour
	recentJobsLimit = 10
)

// Reporter serves the health and analytics read views. Both are pure
// aggregations over stored state with no state transitions.
type Reporter struct {
	store Store
	log   zerolog.Logger
	now   func() time.Time
}

// NewReporter creates a new reporter
func NewReporter(store Store, log zerolog.Logger) *Reporter {
	return &Reporter{
		store: store,
		log:   log.With().Str("component", "analytics").Logger(),
		now:   time.Now,
	}
}

// Heartbeat writes the liveness document and reports static health
func (r *Reporter) Heartbeat(ctx context.Context) error {
	hb := Heartbeat{
		Status:          "operational",
		LastCheck:       r.now(),
		FunctionsActive: true,
	}
	if err := r.store.WriteHeartbeat(ctx, hb); err != nil {
		return errs.Wrap(err, errs.KindStorage, "write health heartbeat")
	}
	return nil
}

// Analytics assembles the dashboard aggregation: detection volume over the
// last 30 days, currently active alerts, and the 10 most recent training
// jobs ordered by creation time descending
func (r *Reporter) Analytics(ctx context.Context) (Report, error) {
	detections, err := r.store.CountDetectionsSince(ctx, r.now().Add(-detectionWindow))
	if err != nil {
		return Report{}, errs.Wrap(err, errs.KindStorage, "count recent detections")
	}

	active, err := r.store.CountActiveAlerts(ctx)
	if err != nil {
		return Report{}, errs.Wrap(err, errs.KindStorage, "count active alerts")
	}

	jobs, err := r.store.RecentTriggers(ctx, recentJobsLimit)
	if err != nil {
		return Report{}, errs.Wrap(err, errs.KindStorage, "list recent training jobs")
	}

	return Report{
		DetectionsLast30Days: detections,
		ActiveAlerts:         active,
		RecentTrainingJobs:   jobs,
		Timestamp:            r.now(),
	}, nil
}
