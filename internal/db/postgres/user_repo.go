package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"Picfeed/internal/core/users"
)

type postgresUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new PostgreSQL user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &postgresUserRepo{db: db}
}

// Create inserts a new user into the users table
func (r *postgresUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	query := `
		INSERT INTO users (external_id, name)
		VALUES ($1, $2)
		RETURNING id::text, external_id, name, created_at`

	created := &users.User{}
	err := r.db.QueryRowContext(ctx, query, user.ExternalID, user.DisplayName).
		Scan(&created.ID, &created.ExternalID, &created.DisplayName, &created.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrExternalIDTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return created, nil
}

// GetByExternalID retrieves a user by the identity provider's subject
func (r *postgresUserRepo) GetByExternalID(ctx context.Context, externalID string) (*users.User, error) {
	query := `SELECT id::text, external_id, name, created_at FROM users WHERE external_id = $1`

	user := &users.User{}
	err := r.db.QueryRowContext(ctx, query, externalID).
		Scan(&user.ID, &user.ExternalID, &user.DisplayName, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}

	return user, nil
}

// GetByIDs retrieves multiple users by their ids in a single query
// Missing users are not included in the result map
func (r *postgresUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error) {
	ids = validUUIDs(ids)
	if len(ids) == 0 {
		return make(map[string]*users.User), nil
	}

	query := `
		SELECT id::text, external_id, name, created_at
		FROM users
		WHERE id = ANY($1::uuid[])`

	rows, err := r.db.QueryContext(ctx, query, uuidArray(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to batch get users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make(map[string]*users.User, len(ids))
	for rows.Next() {
		user := &users.User{}
		if err := rows.Scan(&user.ID, &user.ExternalID, &user.DisplayName, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		result[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return result, nil
}
