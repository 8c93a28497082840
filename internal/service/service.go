// Package service holds the reading tracker's business logic: progress
// ingestion, streaks, statistics, inactivity reminders, the personal library
// and authentication. Services depend on store.Store and never on a concrete
// backend.
package service

import (
	"errors"

	domainerrors "github.com/mimirswell/mimirswell-server/internal/errors"
	"github.com/mimirswell/mimirswell-server/internal/store"
	"github.com/mimirswell/mimirswell-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// storeError translates a store failure into a domain error. Not-found and
// conflict sentinels keep their meaning; everything else is a persistence
// failure.
func storeError(err error, msg string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, store.ErrNotFound):
		return domainerrors.Wrap(err, domainerrors.CodeNotFound, msg)
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.Wrap(err, domainerrors.CodeAlreadyExists, msg)
	default:
		return domainerrors.Persistence(err, msg)
	}
}
