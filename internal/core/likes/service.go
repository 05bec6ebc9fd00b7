package likes

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/users"
	"Picfeed/internal/metrics"
)

type likeService struct {
	repo     Repository
	posts    PostChecker
	resolver users.Resolver
	metrics  *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new like service instance
func NewService(repo Repository, posts PostChecker, resolver users.Resolver, recorder *metrics.Recorder, logger *slog.Logger) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &likeService{
		repo:     repo,
		posts:    posts,
		resolver: resolver,
		metrics:  recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// AddLike records the viewer's like and returns the recomputed count.
// Flow: Validate -> Resolve viewer -> Check post -> Insert -> Count
func (s *likeService) AddLike(ctx context.Context, postID, viewerExternalID string) (*ToggleResponse, error) {
	viewer, postID, err := s.prepare(ctx, postID, viewerExternalID)
	if err != nil {
		return nil, err
	}

	exists, err := s.posts.PostExists(ctx, postID)
	if err != nil {
		return nil, apperr.Storage("check post", err)
	}
	if !exists {
		return nil, ErrPostNotFound
	}

	err = s.repo.Create(ctx, &Like{
		PostID:    postID,
		UserID:    viewer.ID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyLiked):
			s.metrics.LikeConflict()
			s.logger.Info("duplicate like rejected",
				"post_id", postID,
				"user_id", viewer.ID)
			return nil, ErrAlreadyLiked
		case errors.Is(err, ErrPostNotFound):
			// Post deleted between the existence check and the insert
			return nil, ErrPostNotFound
		default:
			return nil, apperr.Storage("insert like", err)
		}
	}

	return &ToggleResponse{Success: true, LikesCount: s.count(ctx, postID)}, nil
}

// RemoveLike deletes the viewer's like if present and returns the recomputed count.
// Removing a like that doesn't exist succeeds.
func (s *likeService) RemoveLike(ctx context.Context, postID, viewerExternalID string) (*ToggleResponse, error) {
	viewer, postID, err := s.prepare(ctx, postID, viewerExternalID)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.Delete(ctx, postID, viewer.ID)
	if err != nil {
		return nil, apperr.Storage("delete like", err)
	}
	if !removed {
		s.logger.Debug("like already absent",
			"post_id", postID,
			"user_id", viewer.ID)
	}

	return &ToggleResponse{Success: true, LikesCount: s.count(ctx, postID)}, nil
}

func (s *likeService) prepare(ctx context.Context, postID, viewerExternalID string) (*users.User, string, error) {
	postID = strings.TrimSpace(postID)
	if postID == "" {
		return nil, "", ErrMissingPostID
	}

	viewerExternalID = strings.TrimSpace(viewerExternalID)
	if viewerExternalID == "" {
		return nil, "", ErrMissingViewer
	}

	viewer, err := s.resolver.Resolve(ctx, viewerExternalID)
	if err != nil {
		return nil, "", err
	}
	return viewer, postID, nil
}

// count reads the authoritative count after a successful write. The write already
// committed, so a failed read is logged and reported as zero.
func (s *likeService) count(ctx context.Context, postID string) int {
	n, err := s.repo.CountByPost(ctx, postID)
	if err != nil {
		s.logger.Error("failed to recount likes after write",
			"post_id", postID,
			"error", err)
		return 0
	}
	return n
}
