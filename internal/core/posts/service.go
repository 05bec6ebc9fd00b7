package posts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/blobs"
	"Picfeed/internal/core/users"
	"Picfeed/internal/metrics"
)

// compensationTimeout bounds the blob cleanup, which runs detached from request cancellation.
const compensationTimeout = 10 * time.Second

type postService struct {
	repo     Repository
	resolver users.Resolver
	store    blobs.Store
	metrics  *metrics.Recorder
	logger   *slog.Logger
	now      func() time.Time
	newToken func() string
}

// NewPostService creates a new post service.
// recorder may be nil; logger nil falls back to slog.Default().
func NewPostService(
	repo Repository,
	resolver users.Resolver,
	store blobs.Store,
	recorder *metrics.Recorder,
	logger *slog.Logger,
) Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &postService{
		repo:     repo,
		resolver: resolver,
		store:    store,
		metrics:  recorder,
		logger:   logger,
		now:      time.Now,
		newToken: func() string {
			return strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
		},
	}
}

// CreatePost runs the creation saga:
// 1. Validate author identity, image and caption (no side effects)
// 2. Resolve the author's internal id
// 3. Upload the image under a fresh key without overwrite
// 4. Insert the row with the blob's public URL
// 5. If the insert fails, delete the uploaded blob before returning the insert error
func (s *postService) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	externalID := strings.TrimSpace(req.AuthorExternalID)
	if externalID == "" {
		return nil, ErrMissingAuthor
	}

	author, err := s.resolver.Resolve(ctx, externalID)
	if err != nil {
		return nil, err
	}

	img, err := ValidateImage(req.Image, req.ContentType, req.Filename)
	if err != nil {
		s.metrics.UploadRejected(ValidationReason(err))
		return nil, err
	}

	caption := NormalizeCaption(req.Caption)
	if err := ValidateCaption(caption); err != nil {
		s.metrics.UploadRejected(ValidationReason(err))
		return nil, err
	}

	key := s.storageKey(author.ExternalID, img.Extension)
	if err := s.store.Put(ctx, key, req.Image, blobs.PutOptions{ContentType: img.ContentType}); err != nil {
		return nil, apperr.Storage("upload image", err)
	}

	created, err := s.repo.Create(ctx, &Post{
		AuthorID: author.ID,
		ImageURL: s.store.PublicURL(key),
		Caption:  caption,
	})
	if err != nil {
		s.compensate(ctx, key, err)
		return nil, apperr.Storage("insert post", err)
	}

	s.metrics.PostCreated()
	s.logger.Info("post created",
		"post_id", created.ID,
		"user_id", author.ID,
		"key", key,
		"width", img.Width,
		"height", img.Height)

	return created, nil
}

// storageKey builds <sanitized external id>/<unix millis>-<random>.<ext>
func (s *postService) storageKey(externalID, ext string) string {
	return fmt.Sprintf("%s/%d-%s.%s",
		blobs.SanitizePathComponent(externalID),
		s.now().UnixMilli(),
		s.newToken(),
		ext)
}

func (s *postService) compensate(ctx context.Context, key string, insertErr error) {
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.store.Delete(cleanupCtx, key); err != nil && !errors.Is(err, blobs.ErrObjectNotFound) {
		s.metrics.CompensationRan(false)
		s.logger.Error("failed to delete orphaned image after insert failure",
			"key", key,
			"insert_error", insertErr,
			"error", err)
		return
	}

	s.metrics.CompensationRan(true)
	s.logger.Warn("deleted uploaded image after insert failure",
		"key", key,
		"error", insertErr)
}
