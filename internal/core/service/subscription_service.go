package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// SubscriptionService runs signup and confirmation. Signup is the one place
// that needs a true all-or-nothing guarantee: subscriber row, token row and
// the confirmation email either all happen or none do.
type SubscriptionService struct {
	store        ports.SubscriberStore
	emails       ports.EmailSender
	baseURL      string
	tokenTTL     time.Duration
	emailTimeout time.Duration
	log          zerolog.Logger
}

const (
	defaultTokenTTL     = 24 * time.Hour
	defaultEmailTimeout = 10 * time.Second
)

func NewSubscriptionService(store ports.SubscriberStore, emails ports.EmailSender, baseURL string, log zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:        store,
		emails:       emails,
		baseURL:      baseURL,
		tokenTTL:     defaultTokenTTL,
		emailTimeout: defaultEmailTimeout,
		log:          log,
	}
}

// Subscribe validates the input, then executes insert subscriber + store
// token + send confirmation email inside one storage transaction. If the
// email dispatch fails (or times out), the inserted rows are rolled back: a
// subscriber must never exist without an attempted confirmation path.
func (s *SubscriptionService) Subscribe(ctx context.Context, name, email string) error {
	sub, err := domain.ParseNewSubscriber(name, email)
	if err != nil {
		return err
	}

	err = s.store.InTx(ctx, func(ctx context.Context, repo ports.SubscriberRepository) error {
		subscriberID, err := repo.InsertPending(ctx, sub)
		if err != nil {
			return fmt.Errorf("insert pending subscriber: %w", err)
		}

		token := domain.GenerateToken()
		if err := repo.StoreToken(ctx, token, subscriberID); err != nil {
			return fmt.Errorf("store confirmation token: %w", err)
		}

		sendCtx, cancel := context.WithTimeout(ctx, s.emailTimeout)
		defer cancel()
		if err := s.sendConfirmationEmail(sendCtx, sub.Email.String(), token); err != nil {
			return fmt.Errorf("send confirmation email: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("email", email).Msg("new pending subscriber")
	return nil
}

// Confirm resolves a token to its subscriber and marks the subscriber
// confirmed. Tokens outside the validity window and unknown tokens both
// yield domain.ErrTokenNotFound. Confirming twice is a no-op success.
func (s *SubscriptionService) Confirm(ctx context.Context, token string) error {
	parsed, err := domain.ParseToken(token)
	if err != nil {
		return err
	}

	subscriberID, err := s.store.SubscriberIDForToken(ctx, parsed, s.tokenTTL)
	if err != nil {
		return err
	}

	if err := s.store.ConfirmSubscriber(ctx, subscriberID); err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}

	return nil
}

func (s *SubscriptionService) sendConfirmationEmail(ctx context.Context, recipient, token string) error {
	link := fmt.Sprintf("%s/subscriptions/confirm?subscription_token=%s", s.baseURL, token)
	textBody := fmt.Sprintf("Welcome to our newsletter!\nVisit %s to confirm your subscription.", link)
	htmlBody := fmt.Sprintf(`Welcome to our newsletter!<br />Click <a href=%q>here</a> to confirm your subscription.`, link)
	return s.emails.Send(ctx, recipient, "Welcome to our newsletter!", htmlBody, textBody)
}

