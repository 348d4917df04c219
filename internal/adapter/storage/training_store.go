// internal/adapter/storage/training_store.go

package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"fieldwatch/internal/domain/training"
	"fieldwatch/internal/errs"
)

// TrainingStore implements storage for model metadata and training triggers.
// Model meta updates are conditional on a revision column so that the
// counter's read-modify-write is atomic: a stale revision loses the race
// and reports a conflict instead of clobbering a concurrent increment.
type TrainingStore struct {
	db *pgxpool.Pool
}

// NewTrainingStore creates a new training store
func NewTrainingStore(db *pgxpool.Pool) *TrainingStore {
	return &TrainingStore{
		db: db,
	}
}

// GetModelMeta retrieves the metadata record for a model type
func (s *TrainingStore) GetModelMeta(ctx context.Context, modelType string) (training.ModelMeta, error) {
	query := `
		SELECT model_type, last_trained, version, new_data_count, total_data_count,
			accuracy, status, revision
		FROM ml_models
		WHERE model_type = $1
	`

	var meta training.ModelMeta
	err := s.db.QueryRow(ctx, query, modelType).Scan(
		&meta.ModelType,
		&meta.LastTrained,
		&meta.Version,
		&meta.NewDataCount,
		&meta.TotalDataCount,
		&meta.Accuracy,
		&meta.Status,
		&meta.Revision,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return training.ModelMeta{}, errs.Newf(errs.KindNotFound, "model meta %s not found", modelType)
	}
	if err != nil {
		return training.ModelMeta{}, wrapDBErr(err, "query model meta")
	}

	return meta, nil
}

// CreateModelMeta inserts the initial metadata record for a model type.
// A duplicate key reports a conflict: another invocation initialized first.
func (s *TrainingStore) CreateModelMeta(ctx context.Context, meta training.ModelMeta) error {
	query := `
		INSERT INTO ml_models (
			model_type, last_trained, version, new_data_count, total_data_count,
			accuracy, status, revision
		) VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		meta.ModelType,
		meta.LastTrained,
		meta.Version,
		meta.NewDataCount,
		meta.TotalDataCount,
		meta.Accuracy,
		meta.Status,
	)
	if err != nil {
		return wrapDBErr(err, "insert model meta")
	}

	return nil
}

// UpdateModelMeta applies a conditional update: it only succeeds when the
// stored revision still matches meta.Revision, and reports errs.KindConflict
// otherwise
func (s *TrainingStore) UpdateModelMeta(ctx context.Context, meta training.ModelMeta) error {
	query := `
		UPDATE ml_models
		SET last_trained = $2, version = $3, new_data_count = $4,
			total_data_count = $5, accuracy = $6, status = $7,
			revision = revision + 1
		WHERE model_type = $1 AND revision = $8
	`

	tag, err := s.db.Exec(
		ctx,
		query,
		meta.ModelType,
		meta.LastTrained,
		meta.Version,
		meta.NewDataCount,
		meta.TotalDataCount,
		meta.Accuracy,
		meta.Status,
		meta.Revision,
	)
	if err != nil {
		return wrapDBErr(err, "update model meta")
	}
	if tag.RowsAffected() == 0 {
		return errs.Newf(errs.KindConflict, "model meta %s revision %d is stale", meta.ModelType, meta.Revision)
	}

	return nil
}

// InsertTrigger persists a new training trigger and returns its id
func (s *TrainingStore) InsertTrigger(ctx context.Context, t training.Trigger) (string, error) {
	query := `
		INSERT INTO training_triggers (
			id, type, model_type, trigger_reason, force_retrain,
			data_count, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		t.ID,
		t.Type,
		t.ModelType,
		t.Reason,
		t.ForceRetrain,
		t.DataCount,
		t.Status,
		t.CreatedAt,
	)
	if err != nil {
		return "", wrapDBErr(err, "insert training trigger")
	}

	return t.ID, nil
}

// RecentTriggers returns up to limit triggers ordered by creation time
// descending
func (s *TrainingStore) RecentTriggers(ctx context.Context, limit int) ([]training.Trigger, error) {
	query := `
		SELECT id, type, model_type, trigger_reason, force_retrain,
			data_count, status, created_at
		FROM training_triggers
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, wrapDBErr(err, "query recent triggers")
	}
	defer rows.Close()

	var triggers []training.Trigger
	for rows.Next() {
		var t training.Trigger
		if err := rows.Scan(
			&t.ID,
			&t.Type,
			&t.ModelType,
			&t.Reason,
			&t.ForceRetrain,
			&t.DataCount,
			&t.Status,
			&t.CreatedAt,
		); err != nil {
			return nil, wrapDBErr(err, "scan training trigger")
		}
		triggers = append(triggers, t)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(err, "iterate training triggers")
	}

	return triggers, nil
}
