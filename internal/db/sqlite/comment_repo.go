package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Picfeed/internal/core/comments"
)

type sqliteCommentRepo struct {
	db *sql.DB
}

// NewCommentRepository creates a new SQLite comment repository
func NewCommentRepository(db *sql.DB) comments.Repository {
	return &sqliteCommentRepo{db: db}
}

// Create inserts a comment with a generated id
func (r *sqliteCommentRepo) Create(ctx context.Context, comment *comments.Comment) (*comments.Comment, error) {
	createdAt := comment.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	created := &comments.Comment{
		ID:        uuid.NewString(),
		PostID:    comment.PostID,
		UserID:    comment.UserID,
		Content:   comment.Content,
		CreatedAt: fromNanos(toNanos(createdAt)),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO comments (id, post_id, user_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		created.ID, created.PostID, created.UserID, created.Content, toNanos(created.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return created, nil
}

// CountByPosts counts comments for many posts with one aggregate query
func (r *sqliteCommentRepo) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return countByPosts(ctx, r.db, "comments", postIDs)
}

// ListByPosts retrieves all comments on the posts, newest first
func (r *sqliteCommentRepo) ListByPosts(ctx context.Context, postIDs []string) ([]*comments.Comment, error) {
	if len(postIDs) == 0 {
		return []*comments.Comment{}, nil
	}

	marks, args := placeholders(postIDs)
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, post_id, user_id, content, created_at
		FROM comments
		WHERE post_id IN (`+marks+`)
		ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*comments.Comment
	for rows.Next() {
		c := &comments.Comment{}
		var createdAt int64
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		c.CreatedAt = fromNanos(createdAt)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}
	return result, nil
}
