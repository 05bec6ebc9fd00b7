package post

import (
	"errors"
	"net/http"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/posts"
)

// uploadRejectedMessage is shown for every upload validation failure unless disclosure is on
const uploadRejectedMessage = "file size or format invalid"

// handleServiceError converts service errors to appropriate HTTP responses
func (h *CreateHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
	case errors.Is(err, apperr.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "UserNotFound", "No user is registered for this identity")
	case errors.Is(err, apperr.ErrPayloadTooLarge):
		h.writeValidationError(w, http.StatusRequestEntityTooLarge, "PayloadTooLarge", causeMessage(err))
	case errors.Is(err, apperr.ErrInvalidMedia):
		h.writeValidationError(w, http.StatusBadRequest, "InvalidMedia", causeMessage(err))
	case errors.Is(err, apperr.ErrInvalidInput):
		h.writeValidationError(w, http.StatusBadRequest, "InvalidRequest", causeMessage(err))
	default:
		// Internal server error - log the actual error for debugging
		h.logger.Error("post creation failed", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to create post")
	}
}

func (h *CreateHandler) writeValidationError(w http.ResponseWriter, status int, errorType, cause string) {
	message := uploadRejectedMessage
	if h.discloseCause && cause != "" {
		message = cause
	}
	handlers.WriteError(w, status, errorType, message)
}

func causeMessage(err error) string {
	var valErr *posts.ValidationError
	if errors.As(err, &valErr) {
		return valErr.Message
	}
	return ""
}
