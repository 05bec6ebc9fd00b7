package routes

import (
	"log/slog"

	"Picfeed/internal/api/handlers/feed"
	"Picfeed/internal/api/handlers/post"
	"Picfeed/internal/api/middleware"
	feedCore "Picfeed/internal/core/feed"
	"Picfeed/internal/core/posts"

	"github.com/go-chi/chi/v5"
)

// RegisterPostRoutes registers the feed read and post creation endpoints
func RegisterPostRoutes(
	r chi.Router,
	feedService feedCore.Service,
	postService posts.Service,
	authMiddleware *middleware.AuthMiddleware,
	discloseUploadCause bool,
	logger *slog.Logger,
) {
	getPostsHandler := feed.NewGetPostsHandler(feedService, logger)
	createHandler := post.NewCreateHandler(postService, discloseUploadCause, logger)

	// Anonymous readers get the feed without like state
	r.With(authMiddleware.OptionalAuth).Get("/posts", getPostsHandler.HandleGetPosts)

	// Multipart upload: image + optional caption
	r.With(authMiddleware.RequireAuth).Post("/posts", createHandler.HandleCreate)
}
