package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
)

// JWKSKeyFetcher resolves public keys from the provider's JWKS endpoint.
// The key set is cached and refreshed in the background by jwk.Cache.
type JWKSKeyFetcher struct {
	cache *jwk.Cache
	url   string
}

// NewJWKSKeyFetcher registers the JWKS URL with a background-refreshing cache.
// The cache stops refreshing when ctx is cancelled.
func NewJWKSKeyFetcher(ctx context.Context, jwksURL string, minRefresh time.Duration) (*JWKSKeyFetcher, error) {
	if jwksURL == "" {
		return nil, fmt.Errorf("JWKS URL is required")
	}
	if minRefresh <= 0 {
		minRefresh = 15 * time.Minute
	}

	cache := jwk.NewCache(ctx)
	if err := cache.Register(jwksURL, jwk.WithMinRefreshInterval(minRefresh)); err != nil {
		return nil, fmt.Errorf("failed to register JWKS URL: %w", err)
	}

	return &JWKSKeyFetcher{cache: cache, url: jwksURL}, nil
}

// FetchPublicKey returns the raw public key (*rsa.PublicKey or *ecdsa.PublicKey) for kid.
// An unknown kid triggers one refresh to pick up rotated keys.
func (f *JWKSKeyFetcher) FetchPublicKey(ctx context.Context, kid string) (any, error) {
	set, err := f.cache.Get(ctx, f.url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch JWKS: %w", err)
	}

	key, ok := set.LookupKeyID(kid)
	if !ok {
		set, err = f.cache.Refresh(ctx, f.url)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh JWKS: %w", err)
		}
		key, ok = set.LookupKeyID(kid)
		if !ok {
			return nil, fmt.Errorf("key with kid %s not found", kid)
		}
	}

	var raw any
	if err := key.Raw(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode key %s: %w", kid, err)
	}
	return raw, nil
}
