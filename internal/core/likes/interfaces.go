package likes

import "context"

// Service toggles likes. Both operations return the like count recomputed from rows.
type Service interface {
	AddLike(ctx context.Context, postID, viewerExternalID string) (*ToggleResponse, error)
	RemoveLike(ctx context.Context, postID, viewerExternalID string) (*ToggleResponse, error)
}

// Repository defines the data access interface for likes
type Repository interface {
	// Create inserts the like. A uniqueness violation is returned as ErrAlreadyLiked,
	// a missing post (foreign key) as ErrPostNotFound.
	Create(ctx context.Context, like *Like) error

	// Delete removes the like if present. Returns whether a row was removed.
	Delete(ctx context.Context, postID, userID string) (bool, error)

	// CountByPost counts likes of one post
	CountByPost(ctx context.Context, postID string) (int, error)

	// CountByPosts counts likes for a batch of posts in one query.
	// Posts without likes are absent from the map.
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)

	// LikedPostIDs returns the subset of postIDs the user has liked
	LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error)
}

// PostChecker reports whether a post exists before a like is written.
type PostChecker interface {
	PostExists(ctx context.Context, postID string) (bool, error)
}

// PostExistsFunc adapts a function to PostChecker
type PostExistsFunc func(ctx context.Context, postID string) (bool, error)

// PostExists calls f
func (f PostExistsFunc) PostExists(ctx context.Context, postID string) (bool, error) {
	return f(ctx, postID)
}
