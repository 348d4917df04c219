// cmd/api/main.go

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"fieldwatch/internal/adapter/natsbus"
	"fieldwatch/internal/adapter/storage"
	"fieldwatch/internal/config"
	"fieldwatch/internal/logging"
	"fieldwatch/internal/server"
	"fieldwatch/internal/service/analytics"
	"fieldwatch/internal/service/anomaly"
	"fieldwatch/internal/service/pipeline"
	"fieldwatch/internal/service/training"
)

func main() {
	// Load .env if present, then configuration from the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: "fieldwatch",
	})

	// Setup context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Initialize dependencies
	db, err := initDatabase(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	natsConn, err := initNATS(cfg.NATS, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to NATS")
	}
	defer natsConn.Close()

	// Initialize storage adapters
	detectionStore := storage.NewDetectionStore(db)
	alertStore := storage.NewAlertStore(db)
	trainingStore := storage.NewTrainingStore(db)
	statusStore := storage.NewStatusStore(db, detectionStore, alertStore, trainingStore)

	// Initialize services
	evaluator := anomaly.NewEvaluator(
		detectionStore,
		alertStore,
		natsConn,
		anomaly.EvaluatorConfig{
			WindowDegrees:            cfg.Anomaly.WindowDegrees,
			Window:                   cfg.Anomaly.Window,
			MinClusterSize:           cfg.Anomaly.MinClusterSize,
			MinAvgConfidence:         cfg.Anomaly.MinAvgConfidence,
			AlertRadiusKm:            cfg.Anomaly.AlertRadiusKm,
			SeverityLevel:            cfg.Anomaly.SeverityLevel,
			SuppressActiveDuplicates: cfg.Anomaly.SuppressActiveDuplicates,
			AlertsSubject:            cfg.NATS.AlertsSubject,
		},
		log,
	)

	counter := training.NewCounter(
		trainingStore,
		trainingStore,
		training.CounterConfig{
			ModelType:         cfg.Training.ModelType,
			RetrainThreshold:  cfg.Training.RetrainThreshold,
			MaxUpdateAttempts: cfg.Training.MaxUpdateAttempts,
			InitialVersion:    cfg.Training.InitialVersion,
		},
		log,
	)

	handler := pipeline.NewHandler(evaluator, counter, log)
	reporter := analytics.NewReporter(statusStore, log)

	// Start the detection event consumer
	consumer := natsbus.NewConsumer(
		natsConn,
		handler,
		natsbus.ConsumerConfig{
			Subject:        cfg.NATS.DetectionsSubject,
			QueueGroup:     cfg.NATS.QueueGroup,
			ProcessTimeout: cfg.NATS.ProcessTimeout,
		},
		log,
	)
	if err := consumer.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start detection consumer")
	}

	// Initialize HTTP server
	httpServer := server.NewServer(
		cfg.Server,
		natsConn,
		cfg.NATS.AlertsSubject,
		counter,
		reporter,
		log,
	)

	// Start HTTP server
	go func() {
		log.Info().Str("host", cfg.Server.Host).Int("port", cfg.Server.Port).Msg("starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for shutdown signal
	<-shutdown
	log.Info().Msg("shutdown signal received")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	if err := consumer.Stop(); err != nil {
		log.Error().Err(err).Msg("detection consumer shutdown error")
	}

	log.Info().Msg("shutdown complete")
}

// Initialize database connection
func initDatabase(ctx context.Context, cfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.MaxLifetime

	db, err := pgxpool.ConnectConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	// Test connection
	if err := db.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	return db, nil
}

// Initialize NATS connection
func initNATS(cfg config.NATSConfig, log zerolog.Logger) (*nats.Conn, error) {
	options := []nats.Option{
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.ConnectTimeout),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("NATS connection closed")
		}),
	}

	nc, err := nats.Connect(cfg.URL, options...)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to NATS: %w", err)
	}

	return nc, nil
}
