// Package apperr holds the error taxonomy shared by every core service.
// Domain packages wrap these kinds so handlers can classify with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthenticated means no resolvable caller identity for a write.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNotFound means a referenced user or post does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means a uniqueness constraint rejected the write.
	ErrConflict = errors.New("conflict")

	// ErrInvalidMedia means the uploaded asset is missing or has an unsupported type.
	ErrInvalidMedia = errors.New("invalid media")

	// ErrPayloadTooLarge means the uploaded asset exceeds the size limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrInvalidInput means a request field failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStorageFailure means a blob or relational operation failed unexpectedly.
	ErrStorageFailure = errors.New("storage failure")
)

// Storage wraps err so it matches both ErrStorageFailure and the original cause.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

// IsValidation reports whether err is one of the request validation kinds.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidMedia) ||
		errors.Is(err, ErrPayloadTooLarge) ||
		errors.Is(err, ErrInvalidInput)
}
