package like

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/likes"
)

// maxLikeBodyBytes bounds the JSON body of a like request
const maxLikeBodyBytes = 4 << 10

// CreateLikeInput is the request body of POST /likes
type CreateLikeInput struct {
	PostID string `json:"postId"`
}

// CreateLikeHandler handles like creation
type CreateLikeHandler struct {
	service likes.Service
	logger  *slog.Logger
}

// NewCreateLikeHandler creates a new create like handler
func NewCreateLikeHandler(service likes.Service, logger *slog.Logger) *CreateLikeHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateLikeHandler{service: service, logger: logger}
}

// HandleCreateLike likes a post for the authenticated viewer
// POST /likes
//
// Request body: { "postId": "<uuid>" }
// Response: { "success": true, "likesCount": 3 }
func (h *CreateLikeHandler) HandleCreateLike(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	viewer := middleware.GetExternalID(r)
	if viewer == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	var input CreateLikeInput
	r.Body = http.MaxBytesReader(w, r.Body, maxLikeBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Invalid request body")
		return
	}

	postID := strings.TrimSpace(input.PostID)
	if postID == "" {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "postId is required")
		return
	}

	response, err := h.service.AddLike(r.Context(), postID, viewer)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, response)
}
