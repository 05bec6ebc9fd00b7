package likes

import (
	"fmt"

	"Picfeed/internal/core/apperr"
)

var (
	// ErrAlreadyLiked is returned when the viewer already liked the post.
	// The storage uniqueness constraint is the only arbiter.
	ErrAlreadyLiked = fmt.Errorf("post already liked: %w", apperr.ErrConflict)

	// ErrPostNotFound indicates the post being liked doesn't exist
	ErrPostNotFound = fmt.Errorf("post %w", apperr.ErrNotFound)

	// ErrMissingPostID indicates the request carried no post id
	ErrMissingPostID = fmt.Errorf("post id is required: %w", apperr.ErrInvalidInput)

	// ErrMissingViewer indicates the request carried no viewer identity
	ErrMissingViewer = fmt.Errorf("viewer identity required: %w", apperr.ErrUnauthenticated)
)
