package training

import (
	"time"
)

// ModelStatus is the retraining counter state for a model type
type ModelStatus string

const (
	// StatusInitialized is the state after the first detection for a model type
	StatusInitialized ModelStatus = "initialized"

	// StatusAccumulating is the state while the counter is below threshold
	StatusAccumulating ModelStatus = "accumulating"

	// StatusRetrainingQueued is set when a trigger has been created; the next
	// counted detection moves the model back to accumulating
	StatusRetrainingQueued ModelStatus = "retraining_queued"

	// StatusTraining and StatusTrained are written by the external training
	// worker, never by this service
	StatusTraining ModelStatus = "training"
	StatusTrained  ModelStatus = "trained"
)

// ModelMeta is the durable per-model record backing the retraining counter.
// This service is the sole writer of NewDataCount; the external training
// worker owns LastTrained and Accuracy. Revision backs the conditional
// update: an update only applies if the stored revision still matches.
type ModelMeta struct {
	ModelType      string      `json:"model_type"`
	LastTrained    *time.Time  `json:"last_trained"`
	Version        string      `json:"version"`
	NewDataCount   int         `json:"new_data_count"`
	TotalDataCount int         `json:"total_data_count"`
	Accuracy       float64     `json:"accuracy"`
	Status         ModelStatus `json:"status"`
	Revision       int64       `json:"-"`
}

// TriggerType distinguishes scheduled (incremental) from full retraining
type TriggerType string

const (
	TriggerScheduled TriggerType = "scheduled"
	TriggerFull      TriggerType = "full"
)

// TriggerReason records what caused a trigger to be created
type TriggerReason string

const (
	ReasonDataThreshold TriggerReason = "data_threshold_reached"
	ReasonManual        TriggerReason = "manual_trigger"
)

// TriggerStatus is the trigger lifecycle state, owned by the external
// training worker after creation
type TriggerStatus string

const (
	TriggerPending   TriggerStatus = "pending"
	TriggerRunning   TriggerStatus = "running"
	TriggerCompleted TriggerStatus = "completed"
	TriggerError     TriggerStatus = "error"
)

// Trigger is a request record instructing an external worker to retrain a
// named model. Immutable once created except for Status transitions
// performed by the worker.
type Trigger struct {
	ID           string        `json:"id"`
	Type         TriggerType   `json:"type"`
	ModelType    string        `json:"model_type"`
	Reason       TriggerReason `json:"trigger_reason"`
	ForceRetrain bool          `json:"force_retrain"`
	DataCount    int           `json:"data_count"`
	Status       TriggerStatus `json:"status"`
	CreatedAt    time.Time     `json:"created_at"`
}
