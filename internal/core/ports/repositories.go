package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/reingma/newsletter/internal/core/domain"
)

// UserRepository stores authentication principals.
type UserRepository interface {
	// Credentials returns the id and stored password hash for a username.
	// Returns domain.ErrUserNotFound when the username does not exist.
	Credentials(ctx context.Context, username string) (uuid.UUID, string, error)
	// UpdatePassword replaces the stored hash for a user.
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	// UsernameByID resolves a principal id back to its username.
	UsernameByID(ctx context.Context, userID uuid.UUID) (string, error)
}

// SubscriberRepository holds subscriber rows and their confirmation tokens.
type SubscriberRepository interface {
	// InsertPending creates a subscriber in pending_confirmation state.
	// Returns domain.ErrAlreadySubscribed when the email is taken.
	InsertPending(ctx context.Context, sub domain.NewSubscriber) (uuid.UUID, error)
	// StoreToken associates a confirmation token with a subscriber,
	// recording the generation timestamp.
	StoreToken(ctx context.Context, token string, subscriberID uuid.UUID) error
	// SubscriberIDForToken resolves a token generated within the validity
	// window. Unknown and expired tokens both return domain.ErrTokenNotFound.
	SubscriberIDForToken(ctx context.Context, token string, validity time.Duration) (uuid.UUID, error)
	// ConfirmSubscriber transitions a subscriber to confirmed. Confirming
	// an already-confirmed subscriber succeeds with no observable change.
	ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error
	// ConfirmedEmails returns the stored email of every confirmed
	// subscriber, unvalidated: rows may predate current validation rules.
	ConfirmedEmails(ctx context.Context) ([]string, error)
}

// SubscriberStore is a SubscriberRepository that can also execute several
// repository calls as one storage-level transaction. Returning an error from
// fn rolls back everything written inside it.
type SubscriberStore interface {
	SubscriberRepository
	InTx(ctx context.Context, fn func(ctx context.Context, repo SubscriberRepository) error) error
}
