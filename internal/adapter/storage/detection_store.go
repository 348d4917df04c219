// internal/adapter/storage/detection_store.go

package storage

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"fieldwatch/internal/domain/detection"
)

// DetectionStore implements read access to ingested detection records.
// Records are written by the external ingestion path; this service only
// queries them.
type DetectionStore struct {
	db *pgxpool.Pool
}

// NewDetectionStore creates a new detection store
func NewDetectionStore(db *pgxpool.Pool) *DetectionStore {
	return &DetectionStore{
		db: db,
	}
}

// FindInLatRange returns detections with latitude in [lower, upper] and a
// detection timestamp at or after since. Latitude is the single range-
// filtered axis of the store contract; callers filter longitude themselves.
func (s *DetectionStore) FindInLatRange(
	ctx context.Context,
	lower, upper float64,
	since time.Time,
) ([]detection.Record, error) {
	query := `
		SELECT latitude, longitude, species, confidence_score, detected_at, image_url, environment
		FROM detections
		WHERE latitude >= $1 AND latitude <= $2 AND detected_at >= $3
	`

	rows, err := s.db.Query(ctx, query, lower, upper, since)
	if err != nil {
		return nil, wrapDBErr(err, "query detections by latitude range")
	}
	defer rows.Close()

	var records []detection.Record
	for rows.Next() {
		var r detection.Record
		var imageURL *string
		var environmentJSON []byte

		if err := rows.Scan(
			&r.Latitude,
			&r.Longitude,
			&r.Species,
			&r.ConfidenceScore,
			&r.DetectedAt,
			&imageURL,
			&environmentJSON,
		); err != nil {
			return nil, wrapDBErr(err, "scan detection")
		}

		if imageURL != nil {
			r.ImageURL = *imageURL
		}
		if len(environmentJSON) > 0 {
			if err := json.Unmarshal(environmentJSON, &r.Environment); err != nil {
				return nil, wrapDBErr(err, "unmarshal detection environment")
			}
		}

		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(err, "iterate detections")
	}

	return records, nil
}

// CountSince returns the number of detections at or after since
func (s *DetectionStore) CountSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM detections WHERE detected_at >= $1`, since,
	).Scan(&count)
	if err != nil {
		return 0, wrapDBErr(err, "count detections")
	}
	return count, nil
}
