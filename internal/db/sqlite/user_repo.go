package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"Picfeed/internal/core/users"
)

type sqliteUserRepo struct {
	db *sql.DB
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(db *sql.DB) users.UserRepository {
	return &sqliteUserRepo{db: db}
}

// Create inserts a new user with a generated id
func (r *sqliteUserRepo) Create(ctx context.Context, user *users.User) (*users.User, error) {
	created := &users.User{
		ID:          uuid.NewString(),
		ExternalID:  user.ExternalID,
		DisplayName: user.DisplayName,
		CreatedAt:   time.Now().UTC(),
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, external_id, name, created_at) VALUES (?, ?, ?, ?)`,
		created.ID, created.ExternalID, created.DisplayName, toNanos(created.CreatedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, users.ErrExternalIDTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	created.CreatedAt = fromNanos(toNanos(created.CreatedAt))
	return created, nil
}

// GetByExternalID retrieves a user by the identity provider's subject
func (r *sqliteUserRepo) GetByExternalID(ctx context.Context, externalID string) (*users.User, error) {
	user := &users.User{}
	var createdAt int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, external_id, name, created_at FROM users WHERE external_id = ?`, externalID).
		Scan(&user.ID, &user.ExternalID, &user.DisplayName, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, users.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by external id: %w", err)
	}
	user.CreatedAt = fromNanos(createdAt)
	return user, nil
}

// GetByIDs retrieves multiple users in a single query
func (r *sqliteUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*users.User, error) {
	result := make(map[string]*users.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	marks, args := placeholders(ids)
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, external_id, name, created_at FROM users WHERE id IN (`+marks+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to batch get users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		user := &users.User{}
		var createdAt int64
		if err := rows.Scan(&user.ID, &user.ExternalID, &user.DisplayName, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		user.CreatedAt = fromNanos(createdAt)
		result[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return result, nil
}
