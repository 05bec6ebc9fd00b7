package users

import "context"

// UserRepository defines the interface for user data persistence
type UserRepository interface {
	// Create provisions a user row. Used by seeding and tests; the feed
	// core never creates users on its own.
	Create(ctx context.Context, user *User) (*User, error)

	// GetByExternalID returns ErrUserNotFound when no row maps to the identity.
	GetByExternalID(ctx context.Context, externalID string) (*User, error)

	// GetByIDs retrieves multiple users in a single batch query.
	// Missing users are not included in the result map (no error for missing users).
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)
}

// Resolver maps a verified external identity to the internal user record.
type Resolver interface {
	Resolve(ctx context.Context, externalID string) (*User, error)
}
