package users

import (
	"context"
	"errors"
	"strings"

	"Picfeed/internal/core/apperr"
)

type resolver struct {
	repo UserRepository
}

// NewResolver creates an identity resolver backed by the user repository
func NewResolver(repo UserRepository) Resolver {
	return &resolver{repo: repo}
}

// Resolve returns the internal user for a verified external identity.
// A missing mapping is ErrUserNotFound, never an anonymous user.
func (r *resolver) Resolve(ctx context.Context, externalID string) (*User, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, ErrUserNotFound
	}

	user, err := r.repo.GetByExternalID(ctx, externalID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, apperr.Storage("resolve user", err)
	}

	return user, nil
}
