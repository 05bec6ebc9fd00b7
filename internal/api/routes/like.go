package routes

import (
	"log/slog"

	"Picfeed/internal/api/handlers/like"
	"Picfeed/internal/api/middleware"
	"Picfeed/internal/core/likes"

	"github.com/go-chi/chi/v5"
)

// RegisterLikeRoutes registers like toggle endpoints. Both require authentication.
func RegisterLikeRoutes(r chi.Router, service likes.Service, authMiddleware *middleware.AuthMiddleware, logger *slog.Logger) {
	createLikeHandler := like.NewCreateLikeHandler(service, logger)
	deleteLikeHandler := like.NewDeleteLikeHandler(service, logger)

	r.With(authMiddleware.RequireAuth).Post("/likes", createLikeHandler.HandleCreateLike)
	r.With(authMiddleware.RequireAuth).Delete("/likes", deleteLikeHandler.HandleDeleteLike)
}
