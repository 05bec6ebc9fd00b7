package posts

import (
	"errors"
	"fmt"

	"Picfeed/internal/core/apperr"
)

var (
	// ErrPostNotFound is returned when a post id doesn't reference an existing post
	ErrPostNotFound = fmt.Errorf("post %w", apperr.ErrNotFound)

	// ErrMissingAuthor is returned when the request carries no author identity
	ErrMissingAuthor = fmt.Errorf("author identity required: %w", apperr.ErrUnauthenticated)
)

// Rejection reasons reported by validation. They are recorded for operators;
// callers only see the shared message unless disclosure is enabled.
const (
	ReasonImageRequired        = "image_required"
	ReasonImageTooLarge        = "image_too_large"
	ReasonUnsupportedType      = "unsupported_content_type"
	ReasonUnsupportedExtension = "unsupported_extension"
	ReasonUndecodable          = "undecodable_image"
	ReasonFormatMismatch       = "format_mismatch"
	ReasonCaptionTooLong       = "caption_too_long"
)

// ValidationError represents an upload rejected before any write happened.
// It unwraps to one of the apperr validation kinds.
type ValidationError struct {
	Kind    error
	Field   string
	Reason  string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error (%s): %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Kind
}

func newValidationError(kind error, field, reason, message string) error {
	return &ValidationError{
		Kind:    kind,
		Field:   field,
		Reason:  reason,
		Message: message,
	}
}

// IsValidationError checks if error is a validation error
func IsValidationError(err error) bool {
	var valErr *ValidationError
	return errors.As(err, &valErr)
}

// ValidationReason returns the rejection reason of a validation error, or "".
func ValidationReason(err error) string {
	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return valErr.Reason
	}
	return ""
}
