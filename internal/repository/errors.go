package repository

import "errors"

// Lookup misses. Transports render all of them as a plain "not found".
var (
	ErrProgressNotFound       = errors.New("lesson progress not found")
	ErrModuleProgressNotFound = errors.New("module progress not found")
	ErrCertificateNotFound    = errors.New("certificate not found")
	ErrModuleNotFound         = errors.New("module not found")
	ErrUserNotFound           = errors.New("user not found")
)

var (
	// ErrReference is returned when a write points at a user or module that does not exist.
	ErrReference = errors.New("unknown user or module reference")

	// ErrDuplicateCertificateCode is returned when a freshly generated code is already taken.
	ErrDuplicateCertificateCode = errors.New("certificate code already taken")

	// ErrStorageUnavailable marks transient storage failures (timeouts, lost connections).
	// Every write in this package is idempotent, so callers may retry.
	ErrStorageUnavailable = errors.New("storage unavailable")
)

// IsNotFound reports whether err is one of the lookup-miss sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrModuleProgressNotFound) ||
		errors.Is(err, ErrCertificateNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrUserNotFound)
}
