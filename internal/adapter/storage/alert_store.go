// internal/adapter/storage/alert_store.go

package storage

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"

	"fieldwatch/internal/domain/alert"
)

// AlertStore implements storage for outbreak alerts
type AlertStore struct {
	db *pgxpool.Pool
}

// NewAlertStore creates a new alert store
func NewAlertStore(db *pgxpool.Pool) *AlertStore {
	return &AlertStore{
		db: db,
	}
}

// InsertAlert persists a new outbreak alert and returns its id
func (s *AlertStore) InsertAlert(ctx context.Context, a alert.Alert) (string, error) {
	query := `
		INSERT INTO outbreak_alerts (
			id, alert_type, severity_level, latitude, longitude, radius_km,
			description, status, alerted_at,
			detection_count, avg_confidence, triggering_detection_id,
			created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13
		)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		a.ID,
		a.Type,
		a.SeverityLevel,
		a.Latitude,
		a.Longitude,
		a.RadiusKm,
		a.Description,
		a.Status,
		a.AlertedAt,
		a.Metadata.DetectionCount,
		a.Metadata.AvgConfidence,
		a.Metadata.TriggeringDetectionID,
		a.CreatedAt,
	)
	if err != nil {
		return "", wrapDBErr(err, "insert outbreak alert")
	}

	return a.ID, nil
}

// HasActiveAlertNear reports whether an active alert already exists within
// degrees of the given point on both axes
func (s *AlertStore) HasActiveAlertNear(ctx context.Context, lat, lng, degrees float64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM outbreak_alerts
			WHERE status = $1
			AND latitude BETWEEN $2 AND $3
			AND longitude BETWEEN $4 AND $5
		)
	`

	var exists bool
	err := s.db.QueryRow(ctx, query,
		alert.StatusActive,
		lat-degrees, lat+degrees,
		lng-degrees, lng+degrees,
	).Scan(&exists)
	if err != nil {
		return false, wrapDBErr(err, "check active alerts near point")
	}

	return exists, nil
}

// CountActive returns the number of alerts with active status
func (s *AlertStore) CountActive(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM outbreak_alerts WHERE status = $1`, alert.StatusActive,
	).Scan(&count)
	if err != nil {
		return 0, wrapDBErr(err, "count active alerts")
	}
	return count, nil
}
