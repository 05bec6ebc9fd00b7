package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"Picfeed/internal/core/likes"
)

type postgresLikeRepo struct {
	db *sql.DB
}

// NewLikeRepository creates a new PostgreSQL like repository
func NewLikeRepository(db *sql.DB) likes.Repository {
	return &postgresLikeRepo{db: db}
}

// Create inserts a like. No ON CONFLICT: the unique constraint on (post_id, user_id)
// is what tells a concurrent duplicate apart from a first like.
func (r *postgresLikeRepo) Create(ctx context.Context, like *likes.Like) error {
	if !isUUID(like.PostID) {
		return likes.ErrPostNotFound
	}

	query := `INSERT INTO likes (post_id, user_id, created_at) VALUES ($1, $2, $3)`

	_, err := r.db.ExecContext(ctx, query, like.PostID, like.UserID, like.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return likes.ErrAlreadyLiked
		}
		if isForeignKeyViolation(err) {
			return likes.ErrPostNotFound
		}
		return fmt.Errorf("failed to insert like: %w", err)
	}
	return nil
}

// Delete removes the like if present
func (r *postgresLikeRepo) Delete(ctx context.Context, postID, userID string) (bool, error) {
	if !isUUID(postID) || !isUUID(userID) {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check delete result: %w", err)
	}
	return affected > 0, nil
}

// CountByPost counts likes on one post
func (r *postgresLikeRepo) CountByPost(ctx context.Context, postID string) (int, error) {
	if !isUUID(postID) {
		return 0, nil
	}

	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// CountByPosts counts likes for many posts with one aggregate query
func (r *postgresLikeRepo) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	query := `
		SELECT post_id::text, COUNT(*)
		FROM likes
		WHERE post_id = ANY($1::uuid[])
		GROUP BY post_id`
	return countByPosts(ctx, r.db, query, postIDs)
}

// LikedPostIDs returns the subset of postIDs liked by userID
func (r *postgresLikeRepo) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	postIDs = validUUIDs(postIDs)
	result := make(map[string]bool)
	if len(postIDs) == 0 || !isUUID(userID) {
		return result, nil
	}

	query := `
		SELECT post_id::text
		FROM likes
		WHERE user_id = $1 AND post_id = ANY($2::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, userID, uuidArray(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to get liked posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var postID string
		if err := rows.Scan(&postID); err != nil {
			return nil, fmt.Errorf("failed to scan liked post: %w", err)
		}
		result[postID] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating liked posts: %w", err)
	}

	return result, nil
}

// countByPosts runs a "post_id, count" aggregate over postIDs bound to $1
func countByPosts(ctx context.Context, db *sql.DB, query string, postIDs []string) (map[string]int, error) {
	postIDs = validUUIDs(postIDs)
	result := make(map[string]int)
	if len(postIDs) == 0 {
		return result, nil
	}

	rows, err := db.QueryContext(ctx, query, uuidArray(postIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to count by posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			postID string
			count  int
		)
		if err := rows.Scan(&postID, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		result[postID] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating counts: %w", err)
	}

	return result, nil
}
