// internal/adapter/storage/memory.go

package storage

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"fieldwatch/internal/domain/alert"
	"fieldwatch/internal/domain/detection"
	"fieldwatch/internal/domain/training"
	"fieldwatch/internal/errs"
	"fieldwatch/internal/service/analytics"
)

// Memory is an in-memory implementation of every store contract. The
// services take their stores as interfaces, so tests and local development
// can run against this instead of Postgres. Conditional updates use the
// same revision semantics as the Postgres adapter.
type Memory struct {
	mu         sync.Mutex
	detections []detection.Record
	alerts     []alert.Alert
	models     map[string]training.ModelMeta
	triggers   []training.Trigger
	heartbeat  *analytics.Heartbeat
}

// NewMemory creates an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		models: make(map[string]training.ModelMeta),
	}
}

// AddDetection seeds a detection record, standing in for the external
// ingestion path
func (m *Memory) AddDetection(rec detection.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detections = append(m.detections, rec)
}

// FindInLatRange returns detections with latitude in [lower, upper] and a
// timestamp at or after since
func (m *Memory) FindInLatRange(
	_ context.Context,
	lower, upper float64,
	since time.Time,
) ([]detection.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []detection.Record
	for _, r := range m.detections {
		if r.Latitude == nil {
			continue
		}
		if *r.Latitude >= lower && *r.Latitude <= upper && !r.DetectedAt.Before(since) {
			out = append(out, r)
		}
	}
	return out, nil
}

// CountDetectionsSince returns the detection count at or after since
func (m *Memory) CountDetectionsSince(_ context.Context, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, r := range m.detections {
		if !r.DetectedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// InsertAlert stores a new outbreak alert
func (m *Memory) InsertAlert(_ context.Context, a alert.Alert) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts = append(m.alerts, a)
	return a.ID, nil
}

// HasActiveAlertNear reports whether an active alert exists within degrees
// of the point on both axes
func (m *Memory) HasActiveAlertNear(_ context.Context, lat, lng, degrees float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, a := range m.alerts {
		if a.Status != alert.StatusActive {
			continue
		}
		if math.Abs(a.Latitude-lat) <= degrees && math.Abs(a.Longitude-lng) <= degrees {
			return true, nil
		}
	}
	return false, nil
}

// CountActiveAlerts returns the number of active alerts
func (m *Memory) CountActiveAlerts(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, a := range m.alerts {
		if a.Status == alert.StatusActive {
			count++
		}
	}
	return count, nil
}

// Alerts returns a copy of all stored alerts
func (m *Memory) Alerts() []alert.Alert {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]alert.Alert(nil), m.alerts...)
}

// GetModelMeta retrieves the metadata record for a model type
func (m *Memory) GetModelMeta(_ context.Context, modelType string) (training.ModelMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	meta, ok := m.models[modelType]
	if !ok {
		return training.ModelMeta{}, errs.Newf(errs.KindNotFound, "model meta %s not found", modelType)
	}
	return meta, nil
}

// CreateModelMeta inserts the initial metadata record, reporting a conflict
// if one already exists
func (m *Memory) CreateModelMeta(_ context.Context, meta training.ModelMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.models[meta.ModelType]; ok {
		return errs.Newf(errs.KindConflict, "model meta %s already exists", meta.ModelType)
	}
	meta.Revision = 0
	m.models[meta.ModelType] = meta
	return nil
}

// UpdateModelMeta applies a conditional update keyed on meta.Revision
func (m *Memory) UpdateModelMeta(_ context.Context, meta training.ModelMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.models[meta.ModelType]
	if !ok {
		return errs.Newf(errs.KindNotFound, "model meta %s not found", meta.ModelType)
	}
	if current.Revision != meta.Revision {
		return errs.Newf(errs.KindConflict, "model meta %s revision %d is stale", meta.ModelType, meta.Revision)
	}
	meta.Revision++
	m.models[meta.ModelType] = meta
	return nil
}

// InsertTrigger stores a new training trigger
func (m *Memory) InsertTrigger(_ context.Context, t training.Trigger) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.triggers = append(m.triggers, t)
	return t.ID, nil
}

// RecentTriggers returns up to limit triggers ordered by creation time
// descending
func (m *Memory) RecentTriggers(_ context.Context, limit int) ([]training.Trigger, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := append([]training.Trigger(nil), m.triggers...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Triggers returns a copy of all stored triggers in insertion order
func (m *Memory) Triggers() []training.Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]training.Trigger(nil), m.triggers...)
}

// WriteHeartbeat stores the health document
func (m *Memory) WriteHeartbeat(_ context.Context, hb analytics.Heartbeat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.heartbeat = &hb
	return nil
}

// LastHeartbeat returns the most recent heartbeat, if any
func (m *Memory) LastHeartbeat() *analytics.Heartbeat {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.heartbeat
}
