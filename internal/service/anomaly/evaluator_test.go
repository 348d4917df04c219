package anomaly

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"fieldwatch/internal/adapter/storage"
	"fieldwatch/internal/domain/alert"
	"fieldwatch/internal/domain/detection"
)

type capturePublisher struct {
	mu       sync.Mutex
	subjects []string
	payloads [][]byte
}

func (p *capturePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func ptr(f float64) *float64 { return &f }

func testConfig() EvaluatorConfig {
	return EvaluatorConfig{
		WindowDegrees:    0.1,
		Window:           7 * 24 * time.Hour,
		MinClusterSize:   5,
		MinAvgConfidence: 0.7,
		AlertRadiusKm:    10,
		SeverityLevel:    3,
		AlertsSubject:    "alerts.created",
	}
}

// seedCluster stores n detections around (lat, lng) with the given
// confidence scores
func seedCluster(store *storage.Memory, lat, lng float64, scores []float64) {
	for i, score := range scores {
		offset := float64(i) * 0.01
		store.AddDetection(detection.Record{
			Latitude:        ptr(lat + offset),
			Longitude:       ptr(lng + offset),
			Species:         "vulpes_vulpes",
			ConfidenceScore: score,
			DetectedAt:      time.Now().Add(-time.Hour),
		})
	}
}

func TestEvaluateMissingLocationIsNotAnError(t *testing.T) {
	store := storage.NewMemory()
	pub := &capturePublisher{}
	e := NewEvaluator(store, store, pub, testConfig(), zerolog.Nop())

	cases := []struct {
		name string
		rec  detection.Record
	}{
		{"missing latitude", detection.Record{Longitude: ptr(139.0), ConfidenceScore: 0.9}},
		{"missing longitude", detection.Record{Latitude: ptr(35.0), ConfidenceScore: 0.9}},
		{"missing both", detection.Record{ConfidenceScore: 0.9}},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := e.Evaluate(context.Background(), "det-1", c.rec)
			require.NoError(t, err)
			require.Empty(t, store.Alerts(), "no store writes for unlocatable detections")
			require.Empty(t, pub.subjects)
		})
	}
}

func TestEvaluateCreatesAlertForQualifyingCluster(t *testing.T) {
	store := storage.NewMemory()
	pub := &capturePublisher{}
	e := NewEvaluator(store, store, pub, testConfig(), zerolog.Nop())

	seedCluster(store, 35.0, 139.0, []float64{0.8, 0.9, 0.75, 0.85, 0.95})

	rec := detection.Record{
		Latitude:        ptr(35.0),
		Longitude:       ptr(139.0),
		Species:         "vulpes_vulpes",
		ConfidenceScore: 0.8,
		DetectedAt:      time.Now(),
	}
	require.NoError(t, e.Evaluate(context.Background(), "det-42", rec))

	alerts := store.Alerts()
	require.Len(t, alerts, 1)

	a := alerts[0]
	require.Equal(t, alert.TypePopulationSpike, a.Type)
	require.Equal(t, 3, a.SeverityLevel)
	require.Equal(t, 35.0, a.Latitude)
	require.Equal(t, 139.0, a.Longitude)
	require.Equal(t, 10.0, a.RadiusKm)
	require.Equal(t, alert.StatusActive, a.Status)
	require.Equal(t, 5, a.Metadata.DetectionCount)
	require.InDelta(t, 0.85, a.Metadata.AvgConfidence, 1e-9)
	require.Equal(t, "det-42", a.Metadata.TriggeringDetectionID)

	require.Equal(t, []string{"alerts.created"}, pub.subjects)
}

func TestEvaluateClusterSizeBoundary(t *testing.T) {
	store := storage.NewMemory()
	e := NewEvaluator(store, store, nil, testConfig(), zerolog.Nop())

	// Exactly 4 qualifying detections, one below the minimum cluster size
	seedCluster(store, 35.0, 139.0, []float64{0.9, 0.9, 0.9, 0.9})

	rec := detection.Record{Latitude: ptr(35.0), Longitude: ptr(139.0), ConfidenceScore: 0.9}
	require.NoError(t, e.Evaluate(context.Background(), "det-1", rec))
	require.Empty(t, store.Alerts())
}

func TestEvaluateConfidenceBoundaryIsStrict(t *testing.T) {
	store := storage.NewMemory()
	e := NewEvaluator(store, store, nil, testConfig(), zerolog.Nop())

	// Mean confidence exactly 0.7 must not alert
	seedCluster(store, 35.0, 139.0, []float64{0.7, 0.7, 0.7, 0.7, 0.7})

	rec := detection.Record{Latitude: ptr(35.0), Longitude: ptr(139.0), ConfidenceScore: 0.7}
	require.NoError(t, e.Evaluate(context.Background(), "det-1", rec))
	require.Empty(t, store.Alerts())
}

func TestEvaluateLongitudePostFilter(t *testing.T) {
	store := storage.NewMemory()
	e := NewEvaluator(store, store, nil, testConfig(), zerolog.Nop())

	// Five detections share the latitude band but one is far east; the
	// in-memory longitude filter must cut the cluster to four
	seedCluster(store, 35.0, 139.0, []float64{0.9, 0.9, 0.9, 0.9})
	store.AddDetection(detection.Record{
		Latitude:        ptr(35.0),
		Longitude:       ptr(140.5),
		ConfidenceScore: 0.9,
		DetectedAt:      time.Now().Add(-time.Hour),
	})

	rec := detection.Record{Latitude: ptr(35.0), Longitude: ptr(139.0), ConfidenceScore: 0.9}
	require.NoError(t, e.Evaluate(context.Background(), "det-1", rec))
	require.Empty(t, store.Alerts())
}

func TestEvaluateRepeatAlertsForSameCluster(t *testing.T) {
	store := storage.NewMemory()
	e := NewEvaluator(store, store, nil, testConfig(), zerolog.Nop())

	seedCluster(store, 35.0, 139.0, []float64{0.8, 0.9, 0.75, 0.85, 0.95})
	rec := detection.Record{Latitude: ptr(35.0), Longitude: ptr(139.0), ConfidenceScore: 0.8}

	// Default behavior: every qualifying detection re-confirms the spike
	require.NoError(t, e.Evaluate(context.Background(), "det-1", rec))
	require.NoError(t, e.Evaluate(context.Background(), "det-2", rec))
	require.Len(t, store.Alerts(), 2)
}

func TestEvaluateSuppressActiveDuplicates(t *testing.T) {
	store := storage.NewMemory()
	cfg := testConfig()
	cfg.SuppressActiveDuplicates = true
	e := NewEvaluator(store, store, nil, cfg, zerolog.Nop())

	seedCluster(store, 35.0, 139.0, []float64{0.8, 0.9, 0.75, 0.85, 0.95})
	rec := detection.Record{Latitude: ptr(35.0), Longitude: ptr(139.0), ConfidenceScore: 0.8}

	require.NoError(t, e.Evaluate(context.Background(), "det-1", rec))
	require.NoError(t, e.Evaluate(context.Background(), "det-2", rec))
	require.Len(t, store.Alerts(), 1, "active alert covering the area suppresses repeats")
}
