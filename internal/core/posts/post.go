package posts

import (
	"time"
)

// Post is an image post as stored in the relational store.
// ImageURL is assigned once at creation and never rewritten.
type Post struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Caption   *string   `json:"caption" db:"caption"`
	ID        string    `json:"id" db:"id"`
	AuthorID  string    `json:"user_id" db:"user_id"`
	ImageURL  string    `json:"image_url" db:"image_url"`
}

// CreatePostRequest is the input of the post creation saga.
// AuthorExternalID comes from the verified bearer token, never from the request body.
type CreatePostRequest struct {
	Caption          *string
	AuthorExternalID string
	ContentType      string
	Filename         string
	Image            []byte
}

// ListOptions selects a window of posts ordered newest first.
type ListOptions struct {
	AuthorID *string
	Limit    int
	Offset   int
}
