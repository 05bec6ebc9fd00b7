package likes

import "time"

// Like is a viewer's like on a post. (PostID, UserID) is unique.
type Like struct {
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	PostID    string    `json:"post_id" db:"post_id"`
	UserID    string    `json:"user_id" db:"user_id"`
}

// ToggleResponse carries the authoritative like count after a toggle.
type ToggleResponse struct {
	LikesCount int  `json:"likesCount"`
	Success    bool `json:"success"`
}
