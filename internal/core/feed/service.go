package feed

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"Picfeed/internal/core/apperr"
	"Picfeed/internal/core/comments"
	"Picfeed/internal/core/posts"
	"Picfeed/internal/core/users"
	"Picfeed/internal/metrics"
)

// DefaultEnrichmentTimeout bounds each secondary query
const DefaultEnrichmentTimeout = 2 * time.Second

type feedService struct {
	posts    PostLister
	users    UserLookup
	resolver users.Resolver
	likes    LikeReader
	comments CommentReader
	metrics  *metrics.Recorder
	logger   *slog.Logger
	timeout  time.Duration
}

// Config holds the feed service collaborators
type Config struct {
	Posts    PostLister
	Users    UserLookup
	Resolver users.Resolver
	Likes    LikeReader
	Comments CommentReader
	Metrics  *metrics.Recorder // Optional
	Logger   *slog.Logger      // Optional, defaults to slog.Default()

	// EnrichmentTimeout applies to each secondary step. Zero uses DefaultEnrichmentTimeout.
	EnrichmentTimeout time.Duration
}

// NewFeedService creates a new feed service
func NewFeedService(cfg Config) Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.EnrichmentTimeout <= 0 {
		cfg.EnrichmentTimeout = DefaultEnrichmentTimeout
	}
	return &feedService{
		posts:    cfg.Posts,
		users:    cfg.Users,
		resolver: cfg.Resolver,
		likes:    cfg.Likes,
		comments: cfg.Comments,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		timeout:  cfg.EnrichmentTimeout,
	}
}

// enrichment holds the results of the secondary steps. Each field is written by exactly
// one goroutine and read only after Wait.
type enrichment struct {
	authors        map[string]*users.User
	likeCounts     map[string]int
	commentCounts  map[string]int
	liked          map[string]bool
	previews       map[string][]*comments.Comment
	commentAuthors map[string]*users.User
	overlay        bool
}

// GetFeedPage returns one page of the feed.
// Only the primary post query can fail the request; every enrichment step falls
// back to defaults on error.
func (s *feedService) GetFeedPage(ctx context.Context, req Request) (*Page, error) {
	req = req.Normalize()

	window, err := s.posts.List(ctx, posts.ListOptions{
		AuthorID: req.AuthorID,
		Limit:    req.Limit,
		Offset:   req.Offset(),
	})
	if err != nil {
		return nil, apperr.Storage("list posts", err)
	}

	if len(window) == 0 {
		return &Page{
			Posts:            []*PostView{},
			CommentsByPostID: map[string][]*CommentPreview{},
		}, nil
	}

	postIDs := make([]string, len(window))
	authorIDs := make([]string, 0, len(window))
	seenAuthors := make(map[string]bool, len(window))
	for i, p := range window {
		postIDs[i] = p.ID
		if !seenAuthors[p.AuthorID] {
			seenAuthors[p.AuthorID] = true
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	e := s.enrich(ctx, req.ViewerExternalID, postIDs, authorIDs)

	page := &Page{
		Posts:            make([]*PostView, 0, len(window)),
		CommentsByPostID: make(map[string][]*CommentPreview, len(window)),
	}

	for _, p := range window {
		view := &PostView{
			ID:            p.ID,
			AuthorID:      p.AuthorID,
			ImageURL:      p.ImageURL,
			Caption:       p.Caption,
			CreatedAt:     p.CreatedAt,
			LikesCount:    e.likeCounts[p.ID],
			CommentsCount: e.commentCounts[p.ID],
			AuthorName:    users.UnknownAuthorName,
		}
		if author, ok := e.authors[p.AuthorID]; ok {
			view.AuthorName = author.DisplayName
			view.AuthorExternalID = author.ExternalID
		}
		if e.overlay {
			liked := e.liked[p.ID]
			view.IsLiked = &liked
		}
		page.Posts = append(page.Posts, view)

		previews := make([]*CommentPreview, 0, comments.PreviewSize)
		for _, c := range e.previews[p.ID] {
			preview := &CommentPreview{
				ID:         c.ID,
				Content:    c.Content,
				CreatedAt:  c.CreatedAt,
				AuthorName: users.UnknownAuthorName,
			}
			if author, ok := e.commentAuthors[c.UserID]; ok {
				preview.AuthorName = author.DisplayName
				preview.AuthorExternalID = author.ExternalID
			}
			previews = append(previews, preview)
		}
		page.CommentsByPostID[p.ID] = previews
	}

	// A full page may be the last one; the next request then returns an empty page.
	page.HasMore = len(window) == req.Limit
	if page.HasMore {
		next := req.Page + 1
		page.NextPage = &next
	}

	return page, nil
}

// enrich runs the independent secondary steps concurrently
func (s *feedService) enrich(ctx context.Context, viewerExternalID string, postIDs, authorIDs []string) *enrichment {
	e := &enrichment{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.authors = runStep(gctx, s, metrics.StepAuthors, func(ctx context.Context) (map[string]*users.User, error) {
			return s.users.GetByIDs(ctx, authorIDs)
		})
		return nil
	})

	g.Go(func() error {
		e.likeCounts = runStep(gctx, s, metrics.StepLikeCounts, func(ctx context.Context) (map[string]int, error) {
			return s.likes.CountByPosts(ctx, postIDs)
		})
		return nil
	})

	g.Go(func() error {
		e.commentCounts = runStep(gctx, s, metrics.StepCommentCounts, func(ctx context.Context) (map[string]int, error) {
			return s.comments.CountByPosts(ctx, postIDs)
		})
		return nil
	})

	if viewerExternalID != "" {
		g.Go(func() error {
			e.liked, e.overlay = s.viewerOverlay(gctx, viewerExternalID, postIDs)
			return nil
		})
	}

	g.Go(func() error {
		e.previews, e.commentAuthors = s.commentPreviews(gctx, postIDs)
		return nil
	})

	// Steps absorb their own errors
	_ = g.Wait()
	return e
}

// runStep runs fn under the per-step timeout. On error it logs, counts and returns the zero value.
func runStep[T any](ctx context.Context, s *feedService, name string, fn func(context.Context) (T, error)) T {
	stepCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := fn(stepCtx)
	if err != nil {
		s.degraded(name, err)
		var zero T
		return zero
	}
	return result
}

// viewerOverlay resolves the viewer and fetches which posts in the window they liked.
// Returns overlay=false when the viewer can't be resolved or the query fails.
func (s *feedService) viewerOverlay(ctx context.Context, viewerExternalID string, postIDs []string) (map[string]bool, bool) {
	stepCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	viewer, err := s.resolver.Resolve(stepCtx, viewerExternalID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			s.logger.Debug("viewer has no user row, omitting like state", "external_id", viewerExternalID)
			return nil, false
		}
		s.degraded(metrics.StepViewerOverlay, err)
		return nil, false
	}

	liked, err := s.likes.LikedPostIDs(stepCtx, viewer.ID, postIDs)
	if err != nil {
		s.degraded(metrics.StepViewerOverlay, err)
		return nil, false
	}
	return liked, true
}

// commentPreviews fetches all comments of the window in one query, keeps the newest
// two per post, then looks up their authors in one batch.
func (s *feedService) commentPreviews(ctx context.Context, postIDs []string) (map[string][]*comments.Comment, map[string]*users.User) {
	listCtx, cancel := context.WithTimeout(ctx, s.timeout)
	all, err := s.comments.ListByPosts(listCtx, postIDs)
	cancel()
	if err != nil {
		s.degraded(metrics.StepCommentPreview, err)
		return nil, nil
	}

	grouped := comments.GroupRecent(postIDs, all, comments.PreviewSize)

	var authorIDs []string
	seen := map[string]bool{}
	for _, id := range postIDs {
		for _, c := range grouped[id] {
			if !seen[c.UserID] {
				seen[c.UserID] = true
				authorIDs = append(authorIDs, c.UserID)
			}
		}
	}
	if len(authorIDs) == 0 {
		return grouped, nil
	}

	authors := runStep(ctx, s, metrics.StepCommentAuthors, func(ctx context.Context) (map[string]*users.User, error) {
		return s.users.GetByIDs(ctx, authorIDs)
	})
	return grouped, authors
}

func (s *feedService) degraded(step string, err error) {
	s.metrics.FeedDegraded(step)
	s.logger.Warn("feed enrichment degraded",
		"step", step,
		"error", err)
}
