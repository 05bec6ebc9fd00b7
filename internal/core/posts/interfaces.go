package posts

import "context"

// Service defines the business logic interface for posts
type Service interface {
	// CreatePost validates the upload, stores the image, then inserts the row.
	// Flow: Validate -> Resolve author -> Put blob -> Insert row (delete blob on failure)
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
}

// Repository defines the data access interface for posts
type Repository interface {
	// Create inserts the post, assigning ID and CreatedAt, and returns the stored row
	Create(ctx context.Context, post *Post) (*Post, error)

	// GetByID returns ErrPostNotFound when no row matches (including malformed ids)
	GetByID(ctx context.Context, id string) (*Post, error)

	// List returns a window ordered by created_at DESC, id DESC
	List(ctx context.Context, opts ListOptions) ([]*Post, error)

	// Exists reports whether a post with the id exists
	Exists(ctx context.Context, id string) (bool, error)
}
