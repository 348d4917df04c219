// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Log         LogConfig
	Server      ServerConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Anomaly     AnomalyConfig
	Training    TrainingConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration
type NATSConfig struct {
	URL               string
	MaxReconnects     int
	ReconnectWait     time.Duration
	ConnectTimeout    time.Duration
	DetectionsSubject string
	AlertsSubject     string
	QueueGroup        string
	ProcessTimeout    time.Duration
}

// AnomalyConfig holds the population-spike evaluator tuning knobs.
// These are the only levers of the detection-sensitivity trade-off.
type AnomalyConfig struct {
	WindowDegrees            float64
	Window                   time.Duration
	MinClusterSize           int
	MinAvgConfidence         float64
	AlertRadiusKm            float64
	SeverityLevel            int
	SuppressActiveDuplicates bool
}

// TrainingConfig holds retraining counter configuration
type TrainingConfig struct {
	ModelType         string
	RetrainThreshold  int
	MaxUpdateAttempts int
	InitialVersion    string
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "fieldwatch"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:               getEnv("NATS_URL", "nats://localhost:4222"),
			MaxReconnects:     getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:     getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout:    getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			DetectionsSubject: getEnv("NATS_DETECTIONS_SUBJECT", "detections.created"),
			AlertsSubject:     getEnv("NATS_ALERTS_SUBJECT", "alerts.created"),
			QueueGroup:        getEnv("NATS_QUEUE_GROUP", "fieldwatch-workers"),
			ProcessTimeout:    getEnvAsDuration("NATS_PROCESS_TIMEOUT", 15*time.Second),
		},
		Anomaly: AnomalyConfig{
			WindowDegrees:            getEnvAsFloat("ANOMALY_WINDOW_DEGREES", 0.1),
			Window:                   getEnvAsDuration("ANOMALY_WINDOW", 7*24*time.Hour),
			MinClusterSize:           getEnvAsInt("ANOMALY_MIN_CLUSTER_SIZE", 5),
			MinAvgConfidence:         getEnvAsFloat("ANOMALY_MIN_AVG_CONFIDENCE", 0.7),
			AlertRadiusKm:            getEnvAsFloat("ANOMALY_ALERT_RADIUS_KM", 10.0),
			SeverityLevel:            getEnvAsInt("ANOMALY_SEVERITY_LEVEL", 3),
			SuppressActiveDuplicates: getEnvAsBool("ANOMALY_SUPPRESS_ACTIVE_DUPLICATES", false),
		},
		Training: TrainingConfig{
			ModelType:         getEnv("TRAINING_MODEL_TYPE", "habitat_predictor"),
			RetrainThreshold:  getEnvAsInt("TRAINING_RETRAIN_THRESHOLD", 10),
			MaxUpdateAttempts: getEnvAsInt("TRAINING_MAX_UPDATE_ATTEMPTS", 5),
			InitialVersion:    getEnv("TRAINING_INITIAL_VERSION", "1.0.0"),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Anomaly.MinClusterSize < 1 {
		return fmt.Errorf("anomaly min cluster size must be at least 1")
	}
	if config.Anomaly.WindowDegrees <= 0 {
		return fmt.Errorf("anomaly window degrees must be positive")
	}
	if config.Training.RetrainThreshold < 2 {
		return fmt.Errorf("training retrain threshold must be at least 2")
	}
	if config.Training.MaxUpdateAttempts < 1 {
		return fmt.Errorf("training max update attempts must be at least 1")
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
