package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Picfeed/internal/core/posts"
)

type sqlitePostRepo struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostRepository creates a new SQLite post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &sqlitePostRepo{db: db, now: time.Now}
}

// Create inserts a post. created_at is kept strictly increasing so that posts
// created within one clock tick still have a total order.
func (r *sqlitePostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	id := uuid.NewString()

	var createdAt int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO posts (id, user_id, image_url, caption, created_at)
		VALUES (?, ?, ?, ?, MAX(?, COALESCE((SELECT MAX(created_at) + 1 FROM posts), 0)))
		RETURNING created_at`,
		id, post.AuthorID, post.ImageURL, nullString(post.Caption), toNanos(r.now())).
		Scan(&createdAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("author %s does not exist: %w", post.AuthorID, err)
		}
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return &posts.Post{
		ID:        id,
		AuthorID:  post.AuthorID,
		ImageURL:  post.ImageURL,
		Caption:   post.Caption,
		CreatedAt: fromNanos(createdAt),
	}, nil
}

// GetByID retrieves a post by id
func (r *sqlitePostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx,
		`SELECT id, user_id, image_url, caption, created_at FROM posts WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List returns a window of posts ordered newest first, ties broken by id
func (r *sqlitePostRepo) List(ctx context.Context, opts posts.ListOptions) ([]*posts.Post, error) {
	query := `SELECT id, user_id, image_url, caption, created_at FROM posts`
	var args []any
	if opts.AuthorID != nil {
		query += ` WHERE user_id = ?`
		args = append(args, *opts.AuthorID)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, opts.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]*posts.Post, 0, opts.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}
	return result, nil
}

// Exists reports whether a post with the id exists
func (r *sqlitePostRepo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = ?)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check post existence: %w", err)
	}
	return exists, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*posts.Post, error) {
	post := &posts.Post{}
	var (
		caption   sql.NullString
		createdAt int64
	)
	if err := row.Scan(&post.ID, &post.AuthorID, &post.ImageURL, &caption, &createdAt); err != nil {
		return nil, err
	}
	if caption.Valid {
		c := caption.String
		post.Caption = &c
	}
	post.CreatedAt = fromNanos(createdAt)
	return post, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
