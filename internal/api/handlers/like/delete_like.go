package like

import (
	"log/slog"
	"net/http"
	"strings"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/likes"
)

// DeleteLikeHandler handles like removal
type DeleteLikeHandler struct {
	service likes.Service
	logger  *slog.Logger
}

// NewDeleteLikeHandler creates a new delete like handler
func NewDeleteLikeHandler(service likes.Service, logger *slog.Logger) *DeleteLikeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DeleteLikeHandler{service: service, logger: logger}
}

// HandleDeleteLike removes the viewer's like. Removing an absent like succeeds.
// DELETE /likes?postId=<uuid>
func (h *DeleteLikeHandler) HandleDeleteLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	viewer := middleware.GetExternalID(r)
	if viewer == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	postID := strings.TrimSpace(r.URL.Query().Get("postId"))
	if postID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "postId is required")
		return
	}

	response, err := h.service.RemoveLike(r.Context(), postID, viewer)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, response)
}
