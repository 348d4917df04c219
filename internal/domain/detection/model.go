package detection

import (
	"time"
)

// Record is a single field observation ingested from a sensor or
// reporting source. Records are write-once; this service never mutates them.
// Latitude and longitude are pointers because ingestion sources with broken
// GPS fixes produce records without coordinates.
type Record struct {
	Latitude        *float64          `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude       *float64          `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Species         string            `json:"species"`
	ConfidenceScore float64           `json:"confidence_score" validate:"gte=0,lte=1"`
	DetectedAt      time.Time         `json:"detection_timestamp"`
	ImageURL        string            `json:"image_url,omitempty"`
	Environment     map[string]string `json:"environment,omitempty"`
}

// HasLocation reports whether the record carries a complete GPS fix.
func (r Record) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Event is the payload delivered when a new detection record has been
// persisted by the ingestion path. ID is the store-assigned document id.
type Event struct {
	ID     string `json:"id" validate:"required"`
	Record Record `json:"record"`
}
