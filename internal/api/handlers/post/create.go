package post

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/posts"
)

const (
	// multipartOverhead leaves room for the form boundaries and the caption field
	multipartOverhead = 1 << 20

	// maxMemory is the in-memory part of the multipart parse; larger parts spill to disk
	maxMemory = 8 << 20
)

// CreateHandler handles post creation requests
type CreateHandler struct {
	service       posts.Service
	logger        *slog.Logger
	discloseCause bool
}

// NewCreateHandler creates a new create handler.
// With discloseCause the specific validation failure is returned instead of the shared message.
func NewCreateHandler(service posts.Service, discloseCause bool, logger *slog.Logger) *CreateHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CreateHandler{
		service:       service,
		discloseCause: discloseCause,
		logger:        logger,
	}
}

// CreatePostResponse is returned on success
type CreatePostResponse struct {
	Post    *posts.Post `json:"post"`
	Success bool        `json:"success"`
}

// HandleCreate handles POST /posts
// Multipart form: image (file, required), caption (text, optional)
func (h *CreateHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	externalID := middleware.GetExternalID(r)
	if externalID == "" {
		handlers.WriteError(w, http.StatusUnauthorized, "AuthenticationRequired", "Authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, posts.MaxImageBytes+multipartOverhead)
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.writeValidationError(w, http.StatusRequestEntityTooLarge, "PayloadTooLarge", "Image exceeds the 5MB limit")
			return
		}
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Expected a multipart form body")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	req := posts.CreatePostRequest{AuthorExternalID: externalID}
	if values, ok := r.MultipartForm.Value["caption"]; ok && len(values) > 0 {
		caption := values[0]
		req.Caption = &caption
	}

	// A missing file is left to the service so it is rejected like any other invalid image
	file, header, err := r.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
	case err != nil:
		handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Unable to read image")
		return
	default:
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, posts.MaxImageBytes+1))
		if err != nil {
			handlers.WriteError(w, http.StatusBadRequest, "InvalidRequest", "Unable to read image")
			return
		}
		req.Image = data
		req.Filename = header.Filename
		req.ContentType = header.Header.Get("Content-Type")
	}

	post, err := h.service.CreatePost(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusCreated, CreatePostResponse{Success: true, Post: post})
}
