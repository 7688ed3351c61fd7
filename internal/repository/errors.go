package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("duplicate key")

	// ErrUnavailable is returned when the store cannot be reached
	ErrUnavailable = errors.New("store unavailable")

	// ErrFormFull is returned when a submission would exceed the form cap
	ErrFormFull = errors.New("form submission cap reached")
)

const pgUniqueViolation = "23505"

// wrap classifies pgx errors into the repository sentinels. The original
// error stays in the chain so callers can still inspect it. Errors that
// already carry a sentinel are returned unchanged.
func wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrUnavailable) || errors.Is(err, ErrFormFull) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w: %s", op, ErrDuplicate, pgErr.ConstraintName)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
	}

	return fmt.Errorf("failed to %s: %w", op, err)
}
