package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"Picfeed/internal/core/likes"
)

type sqliteLikeRepo struct {
	db *sql.DB
}

// NewLikeRepository creates a new SQLite like repository
func NewLikeRepository(db *sql.DB) likes.Repository {
	return &sqliteLikeRepo{db: db}
}

// Create inserts a like, classifying constraint failures
func (r *sqliteLikeRepo) Create(ctx context.Context, like *likes.Like) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO likes (post_id, user_id, created_at) VALUES (?, ?, ?)`,
		like.PostID, like.UserID, toNanos(like.CreatedAt))
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
func (r *sqliteLikeRepo) Delete(ctx context.Context, postID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
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
func (r *sqliteLikeRepo) CountByPost(ctx context.Context, postID string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = ?`, postID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count likes: %w", err)
	}
	return count, nil
}

// CountByPosts counts likes for many posts with one aggregate query
func (r *sqliteLikeRepo) CountByPosts(ctx context.Context, postIDs []string) (map[string]int, error) {
	return countByPosts(ctx, r.db, "likes", postIDs)
}

// LikedPostIDs returns the subset of postIDs liked by userID
func (r *sqliteLikeRepo) LikedPostIDs(ctx context.Context, userID string, postIDs []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if len(postIDs) == 0 {
		return result, nil
	}

	marks, args := placeholders(postIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT post_id FROM likes WHERE user_id = ? AND post_id IN (`+marks+`)`,
		append([]any{userID}, args...)...)
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

// countByPosts aggregates rows of table per post_id. table is a constant supplied by callers.
func countByPosts(ctx context.Context, db *sql.DB, table string, postIDs []string) (map[string]int, error) {
	result := make(map[string]int)
	if len(postIDs) == 0 {
		return result, nil
	}

	marks, args := placeholders(postIDs)
	rows, err := db.QueryContext(ctx,
		`SELECT post_id, COUNT(*) FROM `+table+` WHERE post_id IN (`+marks+`) GROUP BY post_id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s by posts: %w", table, err)
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
