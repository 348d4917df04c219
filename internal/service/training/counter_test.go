package training

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"fieldwatch/internal/adapter/storage"
	"fieldwatch/internal/domain/training"
	"fieldwatch/internal/errs"
)

func testConfig() CounterConfig {
	return CounterConfig{
		ModelType:         "habitat_predictor",
		RetrainThreshold:  10,
		MaxUpdateAttempts: 5,
		InitialVersion:    "1.0.0",
	}
}

func TestRecordInitializesModelMeta(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	c := NewCounter(store, store, testConfig(), zerolog.Nop())

	require.NoError(t, c.Record(ctx))

	meta, err := store.GetModelMeta(ctx, "habitat_predictor")
	require.NoError(t, err)
	require.Equal(t, 1, meta.NewDataCount)
	require.Equal(t, 1, meta.TotalDataCount)
	require.Equal(t, training.StatusInitialized, meta.Status)
	require.Equal(t, "1.0.0", meta.Version)
	require.NotNil(t, meta.LastTrained)
	require.Equal(t, 0.0, meta.Accuracy)

	// The threshold is never evaluated on the first write
	require.Empty(t, store.Triggers())
}

func TestRecordAccumulates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	c := NewCounter(store, store, testConfig(), zerolog.Nop())

	for i := 0; i < 5; i++ {
		require.NoError(t, c.Record(ctx))
	}

	meta, err := store.GetModelMeta(ctx, "habitat_predictor")
	require.NoError(t, err)
	require.Equal(t, 5, meta.NewDataCount)
	require.Equal(t, 5, meta.TotalDataCount)
	require.Equal(t, training.StatusAccumulating, meta.Status)
	require.Empty(t, store.Triggers())
}

func TestRecordThresholdCrossing(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	c := NewCounter(store, store, testConfig(), zerolog.Nop())

	// Seed the counter at 9
	for i := 0; i < 9; i++ {
		require.NoError(t, c.Record(ctx))
	}
	meta, err := store.GetModelMeta(ctx, "habitat_predictor")
	require.NoError(t, err)
	require.Equal(t, 9, meta.NewDataCount)

	// The tenth detection crosses the threshold
	require.NoError(t, c.Record(ctx))

	meta, err = store.GetModelMeta(ctx, "habitat_predictor")
	require.NoError(t, err)
	require.Equal(t, 0, meta.NewDataCount)
	require.Equal(t, 10, meta.TotalDataCount)
	require.Equal(t, training.StatusRetrainingQueued, meta.Status)

	triggers := store.Triggers()
	require.Len(t, triggers, 1)
	tr := triggers[0]
	require.Equal(t, training.TriggerScheduled, tr.Type)
	require.Equal(t, "habitat_predictor", tr.ModelType)
	require.Equal(t, training.ReasonDataThreshold, tr.Reason)
	require.Equal(t, 10, tr.DataCount)
	require.Equal(t, training.TriggerPending, tr.Status)
	require.False(t, tr.ForceRetrain)
}

func TestRecordConcurrentNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	cfg := testConfig()
	// High contention burns through optimistic retries
	cfg.MaxUpdateAttempts = 200
	c := NewCounter(store, store, cfg, zerolog.Nop())

	const workers = 20
	var wg sync.WaitGroup
	errc := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errc <- c.Record(ctx)
		}()
	}
	wg.Wait()
	close(errc)

	for err := range errc {
		require.NoError(t, err)
	}

	meta, err := store.GetModelMeta(ctx, "habitat_predictor")
	require.NoError(t, err)
	require.Equal(t, workers, meta.TotalDataCount, "no increment may be lost")
	require.Equal(t, 0, meta.NewDataCount)
	require.Equal(t, training.StatusRetrainingQueued, meta.Status)

	triggers := store.Triggers()
	require.Len(t, triggers, 2, "exactly one trigger per threshold crossing")
	counts := map[int]bool{}
	for _, tr := range triggers {
		counts[tr.DataCount] = true
	}
	require.True(t, counts[10])
	require.True(t, counts[20])
}

func TestTriggerManually(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	c := NewCounter(store, store, testConfig(), zerolog.Nop())

	id, err := c.TriggerManually(ctx, "habitat_predictor", true)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	triggers := store.Triggers()
	require.Len(t, triggers, 1)
	tr := triggers[0]
	require.Equal(t, training.TriggerFull, tr.Type)
	require.Equal(t, "habitat_predictor", tr.ModelType)
	require.Equal(t, training.ReasonManual, tr.Reason)
	require.True(t, tr.ForceRetrain)
	require.Equal(t, training.TriggerPending, tr.Status)

	// The manual path never touches the counter
	_, err = store.GetModelMeta(ctx, "habitat_predictor")
	require.True(t, errs.IsKind(err, errs.KindNotFound))
}

func TestTriggerManuallyDefaultsModelType(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	c := NewCounter(store, store, testConfig(), zerolog.Nop())

	_, err := c.TriggerManually(ctx, "", false)
	require.NoError(t, err)

	triggers := store.Triggers()
	require.Len(t, triggers, 1)
	require.Equal(t, "all", triggers[0].ModelType)
	require.Equal(t, training.TriggerScheduled, triggers[0].Type)
	require.False(t, triggers[0].ForceRetrain)
}

// conflictedStore loses every conditional update
type conflictedStore struct {
	*storage.Memory
}

func (s *conflictedStore) UpdateModelMeta(ctx context.Context, meta training.ModelMeta) error {
	return errs.New(errs.KindConflict, "always stale")
}

func TestRecordSurfacesStorageErrorAfterRetries(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := &conflictedStore{Memory: mem}
	c := NewCounter(store, mem, testConfig(), zerolog.Nop())

	// Initialization succeeds, further records hit conditional updates
	require.NoError(t, c.Record(ctx))

	err := c.Record(ctx)
	require.Error(t, err)
	require.True(t, errs.IsKind(err, errs.KindStorage), "exhausted retries surface as storage failure")
}
