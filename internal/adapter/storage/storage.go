// Package storage provides the Postgres-backed document stores, plus an
// in-memory implementation of the same contracts used in tests.
//
// Tables: detections, outbreak_alerts, ml_models, training_triggers,
// system_status (see migrations/001_init.sql).
package storage

import (
	"context"
	"errors"

	"github.com/jackc/pgconn"

	"fieldwatch/internal/errs"
)

// uniqueViolation is the Postgres error code for duplicate keys
const uniqueViolation = "23505"

// wrapDBErr classifies a driver error into the service error taxonomy
func wrapDBErr(err error, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.Wrap(err, errs.KindTimeout, msg)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errs.Wrap(err, errs.KindConflict, msg)
	}

	return errs.Wrap(err, errs.KindStorage, msg)
}
