package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Picfeed/internal/core/posts"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) posts.Repository {
	return &postgresPostRepo{db: db}
}

// Create inserts a post. The database assigns id and created_at.
func (r *postgresPostRepo) Create(ctx context.Context, post *posts.Post) (*posts.Post, error) {
	query := `
		INSERT INTO posts (user_id, image_url, caption)
		VALUES ($1, $2, $3)
		RETURNING id::text, user_id::text, image_url, caption, created_at`

	created := &posts.Post{}
	var caption sql.NullString
	err := r.db.QueryRowContext(ctx, query, post.AuthorID, post.ImageURL, nullString(post.Caption)).
		Scan(&created.ID, &created.AuthorID, &created.ImageURL, &caption, &created.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("author %s does not exist: %w", post.AuthorID, err)
		}
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}
	created.Caption = stringPtr(caption)

	return created, nil
}

// GetByID retrieves a post by id
func (r *postgresPostRepo) GetByID(ctx context.Context, id string) (*posts.Post, error) {
	if !isUUID(id) {
		return nil, posts.ErrPostNotFound
	}

	query := `
		SELECT id::text, user_id::text, image_url, caption, created_at
		FROM posts
		WHERE id = $1`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, posts.ErrPostNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// List returns a window of posts ordered newest first, ties broken by id
func (r *postgresPostRepo) List(ctx context.Context, opts posts.ListOptions) ([]*posts.Post, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if opts.AuthorID != nil {
		if !isUUID(*opts.AuthorID) {
			return []*posts.Post{}, nil
		}
		rows, err = r.db.QueryContext(ctx, `
			SELECT id::text, user_id::text, image_url, caption, created_at
			FROM posts
			WHERE user_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2 OFFSET $3`,
			*opts.AuthorID, opts.Limit, opts.Offset)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT id::text, user_id::text, image_url, caption, created_at
			FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1 OFFSET $2`,
			opts.Limit, opts.Offset)
	}
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

// Exists reports whether a post with the id exists. Malformed ids don't exist.
func (r *postgresPostRepo) Exists(ctx context.Context, id string) (bool, error) {
	if !isUUID(id) {
		return false, nil
	}

	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&exists)
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
	var caption sql.NullString
	if err := row.Scan(&post.ID, &post.AuthorID, &post.ImageURL, &caption, &post.CreatedAt); err != nil {
		return nil, err
	}
	post.Caption = stringPtr(caption)
	return post, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
