package feed

import (
	"context"
	"math"
	"time"

	"Picfeed/internal/core/comments"
	"Picfeed/internal/core/posts"
	"Picfeed/internal/core/users"
)

const (
	// DefaultLimit is used when the request carries no limit
	DefaultLimit = 10

	// MaxLimit caps the page size
	MaxLimit = 50

	// MaxPage keeps (Page-1)*MaxLimit and Page+1 inside int
	MaxPage = math.MaxInt / MaxLimit
)

// Service assembles feed pages
type Service interface {
	GetFeedPage(ctx context.Context, req Request) (*Page, error)
}

// PostLister is the primary feed query
type PostLister interface {
	List(ctx context.Context, opts posts.ListOptions) ([]*posts.Post, error)
}

// UserLookup batches author lookups
type UserLookup interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error)
}

// LikeReader provides like aggregates for a window of posts
type LikeReader interface {
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}

// CommentReader provides comment aggregates and previews for a window of posts
type CommentReader interface {
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)
	ListByPosts(ctx context.Context, postIDs []string) ([]*comments.Comment, error)
}

// Request selects one feed page. ViewerExternalID is empty for anonymous viewers.
// A zero Limit means no limit was given; callers pass explicit values as parsed.
type Request struct {
	AuthorID         *string
	ViewerExternalID string
	Page             int
	Limit            int
}

// PostView is a post enriched for display
type PostView struct {
	CreatedAt        time.Time `json:"created_at"`
	Caption          *string   `json:"caption"`
	IsLiked          *bool     `json:"isLiked,omitempty"` // Only set when the viewer is known
	ID               string    `json:"id"`
	AuthorID         string    `json:"user_id"`
	ImageURL         string    `json:"image_url"`
	AuthorName       string    `json:"author_name"`
	AuthorExternalID string    `json:"author_external_id"`
	LikesCount       int       `json:"likes_count"`
	CommentsCount    int       `json:"comments_count"`
}

// CommentPreview is one of the most recent comments under a post
type CommentPreview struct {
	CreatedAt        time.Time `json:"created_at"`
	ID               string    `json:"id"`
	Content          string    `json:"content"`
	AuthorName       string    `json:"author_name"`
	AuthorExternalID string    `json:"author_external_id"`
}

// Page is the feed response. Posts and CommentsByPostID are never nil.
type Page struct {
	NextPage         *int                         `json:"nextPage"`
	CommentsByPostID map[string][]*CommentPreview `json:"commentsByPostId"`
	Posts            []*PostView                  `json:"posts"`
	HasMore          bool                         `json:"hasMore"`
}

// Normalize clamps Page to [1, MaxPage] and Limit to [1, MaxLimit].
// An unset Limit takes DefaultLimit.
func (r Request) Normalize() Request {
	switch {
	case r.Page < 1:
		r.Page = 1
	case r.Page > MaxPage:
		r.Page = MaxPage
	}
	switch {
	case r.Limit == 0:
		r.Limit = DefaultLimit
	case r.Limit < 1:
		r.Limit = 1
	case r.Limit > MaxLimit:
		r.Limit = MaxLimit
	}
	return r
}

// Offset of the first post in the page window
func (r Request) Offset() int {
	return (r.Page - 1) * r.Limit
}
