package service

import (
	stderrors "errors"

	"eventmaster/internal/repository"
	"eventmaster/pkg/errors"

	"github.com/google/uuid"
)

// storeError translates repository failures into the API taxonomy
func storeError(err error, message string) error {
	if _, ok := errors.As(err); ok {
		return err
	}
	switch {
	case stderrors.Is(err, repository.ErrDuplicate):
		return errors.NewConflictError(message+": already exists", err)
	case stderrors.Is(err, repository.ErrUnavailable):
		return errors.NewUnavailableError("Service temporarily unavailable", err)
	default:
		return errors.NewInternalError(message, err)
	}
}

// validID reports whether id could name a stored row. Malformed ids are
// reported as not found by callers.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}
