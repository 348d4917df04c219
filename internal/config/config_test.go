package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "development", cfg.Environment)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, []string{"*"}, cfg.Server.CorsOrigins)

	require.Equal(t, 0.1, cfg.Anomaly.WindowDegrees)
	require.Equal(t, 7*24*time.Hour, cfg.Anomaly.Window)
	require.Equal(t, 5, cfg.Anomaly.MinClusterSize)
	require.Equal(t, 0.7, cfg.Anomaly.MinAvgConfidence)
	require.Equal(t, 10.0, cfg.Anomaly.AlertRadiusKm)
	require.Equal(t, 3, cfg.Anomaly.SeverityLevel)
	require.False(t, cfg.Anomaly.SuppressActiveDuplicates)

	require.Equal(t, "habitat_predictor", cfg.Training.ModelType)
	require.Equal(t, 10, cfg.Training.RetrainThreshold)
	require.Equal(t, 5, cfg.Training.MaxUpdateAttempts)

	require.Equal(t, "detections.created", cfg.NATS.DetectionsSubject)
	require.Equal(t, "alerts.created", cfg.NATS.AlertsSubject)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ANOMALY_MIN_CLUSTER_SIZE", "8")
	t.Setenv("ANOMALY_WINDOW", "48h")
	t.Setenv("TRAINING_RETRAIN_THRESHOLD", "25")
	t.Setenv("ANOMALY_SUPPRESS_ACTIVE_DUPLICATES", "true")
	t.Setenv("SERVER_CORS_ORIGINS", "https://ops.example.com,https://dash.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, 8, cfg.Anomaly.MinClusterSize)
	require.Equal(t, 48*time.Hour, cfg.Anomaly.Window)
	require.Equal(t, 25, cfg.Training.RetrainThreshold)
	require.True(t, cfg.Anomaly.SuppressActiveDuplicates)
	require.Equal(t, []string{"https://ops.example.com", "https://dash.example.com"}, cfg.Server.CorsOrigins)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"cluster size below one", "ANOMALY_MIN_CLUSTER_SIZE", "0"},
		{"retrain threshold below two", "TRAINING_RETRAIN_THRESHOLD", "1"},
		{"update attempts below one", "TRAINING_MAX_UPDATE_ATTEMPTS", "0"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			t.Setenv(c.key, c.value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
