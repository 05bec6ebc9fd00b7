// Package app wires repositories and services for a given database driver.
package app

import (
	"database/sql"
	"log/slog"
	"time"

	"Picfeed/internal/core/blobs"
	"Picfeed/internal/core/comments"
	"Picfeed/internal/core/feed"
	"Picfeed/internal/core/likes"
	"Picfeed/internal/core/posts"
	"Picfeed/internal/core/users"
	"Picfeed/internal/db"
	"Picfeed/internal/db/postgres"
	"Picfeed/internal/db/sqlite"
	"Picfeed/internal/metrics"
)

// Repositories groups the storage adapters of one database
type Repositories struct {
	Users    users.UserRepository
	Posts    posts.Repository
	Likes    likes.Repository
	Comments comments.Repository
}

// NewRepositories returns the adapters matching the driver's SQL dialect
func NewRepositories(driver db.Driver, conn *sql.DB) Repositories {
	if driver == db.DriverSQLite {
		return Repositories{
			Users:    sqlite.NewUserRepository(conn),
			Posts:    sqlite.NewPostRepository(conn),
			Likes:    sqlite.NewLikeRepository(conn),
			Comments: sqlite.NewCommentRepository(conn),
		}
	}
	return Repositories{
		Users:    postgres.NewUserRepository(conn),
		Posts:    postgres.NewPostRepository(conn),
		Likes:    postgres.NewLikeRepository(conn),
		Comments: postgres.NewCommentRepository(conn),
	}
}

// Services groups the core services exposed over HTTP
type Services struct {
	Resolver users.Resolver
	Feed     feed.Service
	Posts    posts.Service
	Likes    likes.Service
}

// ServiceOptions tunes service construction
type ServiceOptions struct {
	Metrics           *metrics.Recorder
	Logger            *slog.Logger
	EnrichmentTimeout time.Duration
}

// NewServices builds the core services on top of repos and the blob store
func NewServices(repos Repositories, store blobs.Store, opts ServiceOptions) Services {
	resolver := users.NewResolver(repos.Users)

	return Services{
		Resolver: resolver,
		Feed: feed.NewFeedService(feed.Config{
			Posts:             repos.Posts,
			Users:             repos.Users,
			Resolver:          resolver,
			Likes:             repos.Likes,
			Comments:          repos.Comments,
			Metrics:           opts.Metrics,
			Logger:            opts.Logger,
			EnrichmentTimeout: opts.EnrichmentTimeout,
		}),
		Posts: posts.NewPostService(repos.Posts, resolver, store, opts.Metrics, opts.Logger),
		Likes: likes.NewService(
			repos.Likes,
			likes.PostExistsFunc(repos.Posts.Exists),
			resolver,
			opts.Metrics,
			opts.Logger,
		),
	}
}
