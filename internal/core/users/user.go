package users

import (
	"time"
)

// User represents a person known to the feed, keyed internally by ID.
// ExternalID is the stable subject issued by the auth provider; it never changes.
type User struct {
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	ID          string    `json:"id" db:"id"`
	ExternalID  string    `json:"externalId" db:"external_id"`
	DisplayName string    `json:"displayName" db:"name"`
}

// UnknownAuthorName is shown when an author row cannot be loaded.
const UnknownAuthorName = "Unknown"
