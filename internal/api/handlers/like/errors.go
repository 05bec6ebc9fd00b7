package like

import (
	"errors"
	"log/slog"
	"net/http"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/likes"
	"Picfeed/internal/core/users"
)

// handleServiceError converts service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
	case errors.Is(err, users.ErrUserNotFound):
		handlers.WriteError(w, http.StatusNotFound, "UserNotFound", "No user is registered for this identity")
	case errors.Is(err, likes.ErrPostNotFound):
		handlers.WriteError(w, http.StatusNotFound, "PostNotFound", "Post not found")
	case errors.Is(err, likes.ErrAlreadyLiked):
		handlers.WriteError(w, http.StatusConflict, "AlreadyLiked", "Post already liked")
	case errors.Is(err, apperr.ErrInvalidInput):
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "postId is required")
	default:
		// Internal server error - log the actual error for debugging
		logger.Error("like request failed", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
