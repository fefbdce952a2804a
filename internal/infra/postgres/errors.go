package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/aliskhannn/vc-progress/internal/repository"
)

// Postgres error codes the repositories react to.
const (
	CodeUniqueViolation     = "23505"
	CodeForeignKeyViolation = "23503"
	CodeCheckViolation      = "23514"
)

// Constraint names from migrations/0001_init.sql.
const (
	ConstraintCertificateCode = "certificates_code_key"
)

// UniqueViolation reports whether err is a unique violation on constraint.
func UniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == CodeUniqueViolation && pgErr.ConstraintName == constraint
}

// Classify maps driver failures onto repository sentinels, keeping the
// original error in the chain. Unrecognized errors are returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case CodeForeignKeyViolation:
			return fmt.Errorf("%w: %w", repository.ErrReference, err)
		case "57014", "57P01", "08000", "08003", "08006", "53300":
			// query_canceled, admin_shutdown, connection failures, too_many_connections
			return fmt.Errorf("%w: %w", repository.ErrStorageUnavailable, err)
		}
		return err
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		pgconn.Timeout(err),
		pgconn.SafeToRetry(err),
		errors.As(err, &netErr):
		return fmt.Errorf("%w: %w", repository.ErrStorageUnavailable, err)
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return fmt.Errorf("%w: %w", repository.ErrStorageUnavailable, err)
	}

	return err
}
