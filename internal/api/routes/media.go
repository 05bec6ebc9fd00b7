package routes

import (
	"errors"
	"log/slog"
	"net/http"

	"Picfeed/internal/api/handlers"
	"Picfeed/internal/blobstore"
	"Picfeed/internal/core/blobs"

	"github.com/go-chi/chi/v5"
)

// MediaOpener opens stored objects for serving
type MediaOpener interface {
	Open(key string) (*blobstore.Object, error)
}

// RegisterMediaRoutes serves uploaded images under /media/*
func RegisterMediaRoutes(r chi.Router, store MediaOpener, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	r.Get("/media/*", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "*")

		obj, err := store.Open(key)
		if err != nil {
			if errors.Is(err, blobs.ErrObjectNotFound) || errors.Is(err, blobs.ErrInvalidKey) {
				handlers.WriteError(w, http.StatusNotFound, "NotFound", "Media not found")
				return
			}
			logger.Error("failed to open media", "key", key, "error", err)
			handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "Failed to read media")
			return
		}
		defer obj.Close()

		if obj.ContentType != "" {
			w.Header().Set("Content-Type", obj.ContentType)
		}
		// Keys are never reused, so objects are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		http.ServeContent(w, req, "", obj.ModTime, obj)
	})
}
