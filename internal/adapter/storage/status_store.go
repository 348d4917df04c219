// internal/adapter/storage/status_store.go

package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fieldwatch/internal/domain/training"
	"fieldwatch/internal/service/analytics"
)

// StatusStore implements the analytics.Store contract: the health heartbeat
// write plus the read-only dashboard aggregations, delegating the counts to
// the per-collection stores
type StatusStore struct {
	db         *pgxpool.Pool
	detections *DetectionStore
	alerts     *AlertStore
	triggers   *TrainingStore
}

// NewStatusStore creates a new status store
func NewStatusStore(
	db *pgxpool.Pool,
	detections *DetectionStore,
	alerts *AlertStore,
	triggers *TrainingStore,
) *StatusStore {
	return &StatusStore{
		db:         db,
		detections: detections,
		alerts:     alerts,
		triggers:   triggers,
	}
}

// WriteHeartbeat upserts the singleton health document
func (s *StatusStore) WriteHeartbeat(ctx context.Context, hb analytics.Heartbeat) error {
	query := `
		INSERT INTO system_status (id, status, last_check, functions_active)
		VALUES ('health', $1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET status = $1, last_check = $2, functions_active = $3
	`

	_, err := s.db.Exec(ctx, query, hb.Status, hb.LastCheck, hb.FunctionsActive)
	if err != nil {
		return wrapDBErr(err, "upsert health heartbeat")
	}

	return nil
}

// CountDetectionsSince returns the detection count at or after since
func (s *StatusStore) CountDetectionsSince(ctx context.Context, since time.Time) (int, error) {
	return s.detections.CountSince(ctx, since)
}

// CountActiveAlerts returns the number of active outbreak alerts
func (s *StatusStore) CountActiveAlerts(ctx context.Context) (int, error) {
	return s.alerts.CountActive(ctx)
}

// RecentTriggers returns up to limit triggers, newest first
func (s *StatusStore) RecentTriggers(ctx context.Context, limit int) ([]training.Trigger, error) {
	return s.triggers.RecentTriggers(ctx, limit)
}
