package users

import (
	"fmt"

	"Picfeed/internal/core/apperr"
)

// Sentinel errors for user lookups
var (
	// ErrUserNotFound is returned when no user row maps to the identity
	ErrUserNotFound = fmt.Errorf("user %w", apperr.ErrNotFound)

	// ErrExternalIDTaken is returned when provisioning a second row for one identity
	ErrExternalIDTaken = fmt.Errorf("external id already registered: %w", apperr.ErrConflict)
)
