package ports

import (
	"context"

	"github.com/google/uuid"
)

// HeaderPair is one recorded response header. Values are kept as raw bytes
// so replayed responses round-trip bit-exactly, including non-UTF8 values.
type HeaderPair struct {
	Name  string
	Value []byte
}

// SavedResponse is the full HTTP response recorded for an idempotency key.
type SavedResponse struct {
	StatusCode int
	Headers    []HeaderPair
	Body       []byte
}

// IdempotencyClaim represents having won the race for a (principal, key)
// pair. Exactly one of Complete or Release must be called.
type IdempotencyClaim interface {
	// Complete persists the canonical response for the key and makes it
	// visible to concurrent losers of the race.
	Complete(ctx context.Context, resp SavedResponse) error
	// Release abandons the claim so a later retry can win it.
	Release(ctx context.Context) error
}

// IdempotencyStore arbitrates at-most-once execution of side-effecting
// actions keyed by (principal, client-supplied key).
type IdempotencyStore interface {
	// TryClaim either claims the key for this request (claim != nil) or
	// returns the previously recorded response to replay (saved != nil).
	// A concurrent first attempt blocks until the winner completes or
	// releases, then observes the outcome; it never errors on the race
	// itself.
	TryClaim(ctx context.Context, userID uuid.UUID, key string) (claim IdempotencyClaim, saved *SavedResponse, err error)
}
