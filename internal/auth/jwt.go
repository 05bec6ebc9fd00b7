// Package auth verifies bearer tokens issued by the external identity provider.
// The token's sub claim is the caller's external user id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Algorithm constants for JWT signing methods
const (
	AlgorithmHS256 = "HS256"
	AlgorithmRS256 = "RS256"
	AlgorithmES256 = "ES256"
)

var (
	// ErrMissingToken is returned when no bearer token was presented
	ErrMissingToken = errors.New("missing bearer token")

	// ErrInvalidToken wraps every verification failure
	ErrInvalidToken = errors.New("invalid token")
)

// Claims represents the JWT claims we care about
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// KeyFetcher resolves the public key for an asymmetric token's kid
type KeyFetcher interface {
	FetchPublicKey(ctx context.Context, kid string) (any, error)
}

// VerifierConfig configures token verification. At least one of HS256Secret and Keys is required.
type VerifierConfig struct {
	Keys        KeyFetcher
	HS256Secret string
	Issuer      string // Optional, enforced when set
	Leeway      time.Duration
}

// Verifier validates bearer tokens
type Verifier struct {
	keys   KeyFetcher
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifier creates a token verifier
func NewVerifier(cfg VerifierConfig) (*Verifier, error) {
	if cfg.HS256Secret == "" && cfg.Keys == nil {
		return nil, fmt.Errorf("auth: either an HS256 secret or a JWKS key source is required")
	}
	return &Verifier{
		keys:   cfg.Keys,
		secret: []byte(cfg.HS256Secret),
		issuer: cfg.Issuer,
		leeway: cfg.Leeway,
	}, nil
}

// stripBearerPrefix removes the "Bearer " prefix from a token string
func stripBearerPrefix(tokenString string) string {
	tokenString = strings.TrimSpace(tokenString)
	if len(tokenString) > 7 && strings.EqualFold(tokenString[:7], "bearer ") {
		tokenString = tokenString[7:]
	}
	return strings.TrimSpace(tokenString)
}

// Verify checks the token's signature and claims and returns them.
//
// The verification method is chosen from the header's kid, never from alg alone:
// tokens with a kid are verified against the JWKS (RS256/ES256 only), tokens without
// a kid against the shared secret (HS256 only). This blocks re-signing a token with
// a public key as the HMAC secret.
func (v *Verifier) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	tokenString = stripBearerPrefix(tokenString)
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	unverified, _, err := jwt.NewParser().ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	kid, _ := unverified.Header["kid"].(string)

	opts := []jwt.ParserOption{
		jwt.WithLeeway(v.leeway),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var keyFunc jwt.Keyfunc
	if kid != "" {
		if v.keys == nil {
			return nil, fmt.Errorf("%w: token has kid but no JWKS is configured", ErrInvalidToken)
		}
		opts = append(opts, jwt.WithValidMethods([]string{AlgorithmRS256, AlgorithmES256}))
		keyFunc = func(*jwt.Token) (any, error) {
			return v.keys.FetchPublicKey(ctx, kid)
		}
	} else {
		if len(v.secret) == 0 {
			return nil, fmt.Errorf("%w: HS256 tokens are not accepted", ErrInvalidToken)
		}
		opts = append(opts, jwt.WithValidMethods([]string{AlgorithmHS256}))
		keyFunc = func(*jwt.Token) (any, error) {
			return v.secret, nil
		}
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, keyFunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing 'sub' claim", ErrInvalidToken)
	}

	return claims, nil
}

// MintHS256 signs a token for local development and tests
func MintHS256(secret, subject, name, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("secret is required")
	}
	if subject == "" {
		return "", fmt.Errorf("subject is required")
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name: name,
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
