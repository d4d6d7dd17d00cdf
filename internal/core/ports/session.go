package ports

import (
	"context"
	"time"
)

// SessionStore persists session payloads keyed by opaque session id. The
// backing store is the source of truth: no caching across requests.
//
// Store failures must propagate to the caller; they are never to be
// interpreted as "session absent".
type SessionStore interface {
	// Get returns the payload for a session id. found is false for ids
	// that were never issued, expired, rotated away or destroyed.
	Get(ctx context.Context, id string) (payload map[string]string, found bool, err error)
	// Set writes the full payload for a session id with the given TTL.
	Set(ctx context.Context, id string, payload map[string]string, ttl time.Duration) error
	// Delete removes a session id. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
