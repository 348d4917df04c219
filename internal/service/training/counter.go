// internal/service/training/counter.go

package training

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fieldwatch/internal/domain/training"
	"fieldwatch/internal/errs"
)

// ModelStore defines storage for per-model retraining metadata. Update is a
// conditional write: it must only apply when the stored revision matches
// meta.Revision, and must report errs.KindConflict otherwise.
type ModelStore interface {
	GetModelMeta(ctx context.Context, modelType string) (training.ModelMeta, error)
	CreateModelMeta(ctx context.Context, meta training.ModelMeta) error
	UpdateModelMeta(ctx context.Context, meta training.ModelMeta) error
}

// TriggerStore defines storage for training triggers
type TriggerStore interface {
	InsertTrigger(ctx context.Context, t training.Trigger) (string, error)
}

// CounterConfig contains retraining counter configuration
type CounterConfig struct {
	ModelType         string
	RetrainThreshold  int
	MaxUpdateAttempts int
	InitialVersion    string
}

// Counter maintains the durable per-model detection tally and creates a
// training trigger when the threshold is crossed
type Counter struct {
	models   ModelStore
	triggers TriggerStore
	config   CounterConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewCounter creates a new retraining counter
func NewCounter(models ModelStore, triggers TriggerStore, config CounterConfig, log zerolog.Logger) *Counter {
	return &Counter{
		models:   models,
		triggers: triggers,
		config:   config,
		log:      log.With().Str("component", "training").Logger(),
		now:      time.Now,
	}
}

// Record counts one processed detection against the configured model type.
// The read-modify-write runs as a conditional update: concurrent invocations
// for the same model must not lose increments, and exactly one of them may
// own a threshold crossing. Lost races retry up to MaxUpdateAttempts.
func (c *Counter) Record(ctx context.Context) error {
	var lastErr error

	for attempt := 0; attempt < c.config.MaxUpdateAttempts; attempt++ {
		done, err := c.recordOnce(ctx)
		if err == nil {
			if done {
				return nil
			}
			continue
		}
		if !errs.IsKind(err, errs.KindConflict) {
			return err
		}
		lastErr = err
	}

	return errs.Wrapf(lastErr, errs.KindStorage,
		"model %s counter update lost %d races", c.config.ModelType, c.config.MaxUpdateAttempts)
}

// recordOnce makes one attempt at the counter transition. It returns
// (false, nil) when the meta record appeared concurrently and the attempt
// must be retried against the fresh state.
func (c *Counter) recordOnce(ctx context.Context) (bool, error) {
	meta, err := c.models.GetModelMeta(ctx, c.config.ModelType)
	if errs.IsKind(err, errs.KindNotFound) {
		return c.initialize(ctx)
	}
	if err != nil {
		return false, errs.Wrapf(err, errs.KindStorage, "read model meta %s", c.config.ModelType)
	}

	newCount := meta.NewDataCount + 1
	meta.TotalDataCount++

	if newCount >= c.config.RetrainThreshold {
		// The successful conditional reset owns this crossing; the trigger
		// write below happens at most once per crossing.
		meta.NewDataCount = 0
		meta.Status = training.StatusRetrainingQueued
		if err := c.models.UpdateModelMeta(ctx, meta); err != nil {
			return false, err
		}
		return true, c.createThresholdTrigger(ctx, newCount)
	}

	meta.NewDataCount = newCount
	meta.Status = training.StatusAccumulating
	if err := c.models.UpdateModelMeta(ctx, meta); err != nil {
		return false, err
	}
	return true, nil
}

// initialize creates the meta record on the first detection for a model
// type. The threshold is not evaluated on this first write. A duplicate-key
// conflict means another invocation initialized first; retry on fresh state.
func (c *Counter) initialize(ctx context.Context) (bool, error) {
	now := c.now()
	meta := training.ModelMeta{
		ModelType:      c.config.ModelType,
		LastTrained:    &now,
		Version:        c.config.InitialVersion,
		NewDataCount:   1,
		TotalDataCount: 1,
		Accuracy:       0,
		Status:         training.StatusInitialized,
	}

	err := c.models.CreateModelMeta(ctx, meta)
	if errs.IsKind(err, errs.KindConflict) {
		return false, nil
	}
	if err != nil {
		return false, errs.Wrapf(err, errs.KindStorage, "initialize model meta %s", c.config.ModelType)
	}

	c.log.Info().Str("model_type", c.config.ModelType).Msg("initialized model metadata")
	return true, nil
}

func (c *Counter) createThresholdTrigger(ctx context.Context, dataCount int) error {
	t := training.Trigger{
		ID:        uuid.New().String(),
		Type:      training.TriggerScheduled,
		ModelType: c.config.ModelType,
		Reason:    training.ReasonDataThreshold,
		DataCount: dataCount,
		Status:    training.TriggerPending,
		CreatedAt: c.now(),
	}

	id, err := c.triggers.InsertTrigger(ctx, t)
	if err != nil {
		// The counter is already reset; the missing trigger is the accepted
		// relaxation, surfaced so the delivery mechanism can retry.
		return errs.Wrapf(err, errs.KindStorage, "insert training trigger for %s", c.config.ModelType)
	}

	c.log.Info().
		Str("trigger_id", id).
		Str("model_type", c.config.ModelType).
		Int("data_count", dataCount).
		Msg("retraining triggered by data threshold")
	return nil
}

// TriggerManually unconditionally creates a training trigger on behalf of an
// operator. It is independent of the automatic counter and does not read or
// modify any model metadata.
func (c *Counter) TriggerManually(ctx context.Context, modelType string, force bool) (string, error) {
	if modelType == "" {
		modelType = "all"
	}

	triggerType := training.TriggerScheduled
	if force {
		triggerType = training.TriggerFull
	}

	t := training.Trigger{
		ID:           uuid.New().String(),
		Type:         triggerType,
		ModelType:    modelType,
		Reason:       training.ReasonManual,
		ForceRetrain: force,
		Status:       training.TriggerPending,
		CreatedAt:    c.now(),
	}

	id, err := c.triggers.InsertTrigger(ctx, t)
	if err != nil {
		return "", errs.Wrapf(err, errs.KindStorage, "insert manual training trigger for %s", modelType)
	}

	c.log.Info().
		Str("trigger_id", id).
		Str("model_type", modelType).
		Bool("force", force).
		Msg("training triggered manually")
	return id, nil
}
