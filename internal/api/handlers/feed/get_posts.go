package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/feed"

	"github.com/google/uuid"
)

// GetPostsHandler serves feed pages
type GetPostsHandler struct {
	service feed.Service
	logger  *slog.Logger
}

// NewGetPostsHandler creates a new feed handler
func NewGetPostsHandler(service feed.Service, logger *slog.Logger) *GetPostsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GetPostsHandler{service: service, logger: logger}
}

// HandleGetPosts returns one page of the feed
// GET /posts?page=1&limit=10&userId=<uuid>
// Authentication is optional; when present the page carries the viewer's like state.
func (h *GetPostsHandler) HandleGetPosts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req, err := parseRequest(r)
	if err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}
	req.ViewerExternalID = middleware.GetExternalID(r)

	page, err := h.service.GetFeedPage(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, page)
}

// parseRequest reads page, limit and userId. Absent values take defaults;
// present but malformed values are rejected.
func parseRequest(r *http.Request) (feed.Request, error) {
	query := r.URL.Query()
	var req feed.Request

	if raw := query.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("page must be an integer")
		}
		req.Page = page
	}

	if raw := query.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return req, fmt.Errorf("limit must be an integer")
		}
		// Zero is reserved for an absent limit
		req.Limit = max(limit, 1)
	}

	if raw := strings.TrimSpace(query.Get("userId")); raw != "" {
		if _, err := uuid.Parse(raw); err != nil {
			return req, fmt.Errorf("userId must be a valid user id")
		}
		req.AuthorID = &raw
	}

	return req, nil
}

func (h *GetPostsHandler) handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away
		h.logger.Debug("feed request cancelled", "error", err)
	default:
		h.logger.Error("feed page failed", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to fetch posts")
	}
}
