package alert

import (
	"time"
)

// Type identifies the rule that produced an alert
type Type string

const (
	// TypePopulationSpike is a localized cluster of high-confidence detections
	TypePopulationSpike Type = "population_spike"
)

// Status is the alert lifecycle state
type Status string

const (
	// StatusActive is the initial state of every alert
	StatusActive Status = "active"

	// StatusResolved is set by the operator workflow, never by this service
	StatusResolved Status = "resolved"
)

// Metadata carries the cluster statistics that triggered the alert
type Metadata struct {
	DetectionCount        int     `json:"detection_count"`
	AvgConfidence         float64 `json:"avg_confidence"`
	TriggeringDetectionID string  `json:"triggering_detection_id"`
}

// Alert is a derived record flagging a spatial/temporal cluster of
// high-confidence detections
type Alert struct {
	ID            string    `json:"id"`
	Type          Type      `json:"alert_type"`
	SeverityLevel int       `json:"severity_level"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	RadiusKm      float64   `json:"radius_km"`
	Description   string    `json:"description"`
	Status        Status    `json:"status"`
	AlertedAt     time.Time `json:"alert_timestamp"`
	Metadata      Metadata  `json:"metadata"`
	CreatedAt     time.Time `json:"created_at"`
}
