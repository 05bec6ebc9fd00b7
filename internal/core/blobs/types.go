package blobs

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

var (
	// ErrObjectExists is returned by Put when the key is taken and overwrite is off
	ErrObjectExists = errors.New("object already exists")

	// ErrObjectNotFound is returned when no object is stored at the key
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidKey is returned for keys that could escape the store namespace
	ErrInvalidKey = errors.New("invalid object key")
)

// PutOptions controls how an object is written.
type PutOptions struct {
	ContentType string
	Overwrite   bool
}

// Store is the blob storage collaborator used by the post creation saga.
type Store interface {
	// Put writes data at key. With Overwrite false an existing key yields ErrObjectExists.
	Put(ctx context.Context, key string, data []byte, opts PutOptions) error

	// PublicURL returns a URL that resolves to the stored object.
	PublicURL(key string) string

	// Delete removes the object. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// ValidateKey rejects keys with traversal sequences, absolute paths or empty segments.
func ValidateKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, "\\\x00") {
		return ErrInvalidKey
	}
	for _, segment := range strings.Split(key, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return ErrInvalidKey
		}
	}
	return nil
}

// SanitizePathComponent makes an arbitrary identity safe to use as one key segment.
// Identities made only of letters, digits, '-' and '_' are kept as is. Anything else
// becomes "~" followed by its unpadded base64url form, so distinct identities never
// share a segment.
func SanitizePathComponent(s string) string {
	if isPlainSegment(s) {
		return s
	}
	return "~" + base64.RawURLEncoding.EncodeToString([]byte(s))
}

func isPlainSegment(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
