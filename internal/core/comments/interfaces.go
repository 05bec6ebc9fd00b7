package comments

import "context"

// Repository defines the data access interface for comments
type Repository interface {
	// Create inserts a comment, assigning ID and CreatedAt when empty.
	// Used by seeding and tests.
	Create(ctx context.Context, comment *Comment) (*Comment, error)

	// CountByPosts counts comments for a batch of posts in one query.
	// Posts without comments are absent from the map.
	CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error)

	// ListByPosts retrieves every comment on the given posts in one query,
	// ordered by created_at DESC, id DESC
	ListByPosts(ctx context.Context, postIDs []string) ([]*Comment, error)
}
