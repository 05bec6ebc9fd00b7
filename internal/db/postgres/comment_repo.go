package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Picfeed/internal/core/comments"
)

type postgresCommentRepo struct {
	db *sql.DB
}

// NewCommentRepository creates a new PostgreSQL comment repository
func NewCommentRepository(db *sql.DB) comments.Repository {
	return &postgresCommentRepo{db: db}
}

// Create inserts a comment. created_at defaults to the database clock when zero.
func (r *postgresCommentRepo) Create(ctx context.Context, comment *comments.Comment) (*comments.Comment, error) {
	query := `
		INSERT INTO comments (post_id, user_id, content, created_at)
		VALUES ($1, $2, $3, COALESCE($4, clock_timestamp()))
		RETURNING id::text, post_id::text, user_id::text, content, created_at`

	var createdAt sql.NullTime
	if !comment.CreatedAt.IsZero() {
		createdAt = sql.NullTime{Time: comment.CreatedAt, Valid: true}
	}

	created := &comments.Comment{}
	err := r.db.QueryRowContext(ctx, query, comment.PostID, comment.UserID, comment.Content, createdAt).
		Scan(&created.ID, &created.PostID, &created.UserID, &created.Content, &created.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert comment: %w", err)
	}
	return created, nil
}

// CountByPosts counts comments for many posts with one aggregate query
func (r *postgresCommentRepo) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	query := `
		SELECT post_id::text, COUNT(*)
		FROM comments
		WHERE post_id = ANY($1::uuid[])
		GROUP BY post_id`
	return countByPosts(ctx, r.db, query, postIDs)
}

// ListByPosts retrieves all comments on the posts, newest first
func (r *postgresCommentRepo) ListByPosts(ctx context.Context, postIDs []string) ([]*comments.Comment, error) {
	postIDs = validUUIDs(postIDs)
	if len(postIDs) == 0 {
		return []*comments.Comment{}, nil
	}

	query := `
		SELECT id::text, post_id::text, user_id::text, content, created_at
		FROM comments
		WHERE post_id = ANY($1::uuid[])
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, uuidArray(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var result []*comments.Comment
	for rows.Next() {
		c := &comments.Comment{}
		if err := rows.Scan(&c.ID, &c.PostID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating comments: %w", err)
	}

	return result, nil
}
