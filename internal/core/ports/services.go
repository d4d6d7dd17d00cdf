package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/reingma/newsletter/internal/core/domain"
)

// AuthService validates credentials and manages password changes.
type AuthService interface {
	// ValidateCredentials returns the principal id for a valid
	// username/password pair. Unknown usernames and wrong passwords are
	// indistinguishable: both return domain.ErrInvalidCredentials.
	ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error)
	// ChangePassword hashes and persists a new password for a principal.
	ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error
	// Username resolves a principal id to its display username.
	Username(ctx context.Context, userID uuid.UUID) (string, error)
}

// SubscriptionService runs the signup and confirmation workflows.
type SubscriptionService interface {
	// Subscribe inserts a pending subscriber, stores a confirmation token
	// and dispatches the confirmation email as one atomic unit. A failed
	// email rolls back the inserted rows.
	Subscribe(ctx context.Context, name, email string) error
	// Confirm consumes a confirmation token. Reusing a still-valid token
	// is a no-op success.
	Confirm(ctx context.Context, token string) error
}

// NewsletterService publishes issues to confirmed subscribers at most once
// per (principal, idempotency key).
type NewsletterService interface {
	// Publish returns the canonical response for the key: freshly built
	// on first execution, replayed verbatim on repeats.
	Publish(ctx context.Context, userID uuid.UUID, key string, issue domain.Issue) (SavedResponse, error)
}
