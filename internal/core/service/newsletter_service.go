package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// NewsletterService delivers issues to confirmed subscribers, guarded by
// the idempotency store so retried submissions never dispatch twice.
type NewsletterService struct {
	idempotency ports.IdempotencyStore
	subscribers ports.SubscriberRepository
	emails      ports.EmailSender
	log         zerolog.Logger
}

func NewNewsletterService(idempotency ports.IdempotencyStore, subscribers ports.SubscriberRepository, emails ports.EmailSender, log zerolog.Logger) *NewsletterService {
	return &NewsletterService{
		idempotency: idempotency,
		subscribers: subscribers,
		emails:      emails,
		log:         log,
	}
}

type publishResult struct {
	Message    string `json:"message"`
	Recipients int    `json:"recipients"`
}

// Publish runs the idempotent publish sequence: claim the key, and either
// replay the recorded response or deliver the issue and record the outcome.
// Subscribers whose stored email no longer validates are skipped with a
// warning; a transport failure releases the claim and propagates.
func (s *NewsletterService) Publish(ctx context.Context, userID uuid.UUID, key string, issue domain.Issue) (ports.SavedResponse, error) {
	claim, saved, err := s.idempotency.TryClaim(ctx, userID, key)
	if err != nil {
		return ports.SavedResponse{}, fmt.Errorf("claim idempotency key: %w", err)
	}
	if saved != nil {
		s.log.Info().Str("idempotency_key", key).Msg("replaying recorded publish response")
		return *saved, nil
	}

	sent, err := s.deliver(ctx, issue)
	if err != nil {
		if releaseErr := claim.Release(ctx); releaseErr != nil {
			s.log.Error().Err(releaseErr).Str("idempotency_key", key).Msg("failed to release idempotency claim")
		}
		return ports.SavedResponse{}, err
	}

	resp, err := buildPublishResponse(sent)
	if err != nil {
		if releaseErr := claim.Release(ctx); releaseErr != nil {
			s.log.Error().Err(releaseErr).Str("idempotency_key", key).Msg("failed to release idempotency claim")
		}
		return ports.SavedResponse{}, err
	}

	if err := claim.Complete(ctx, resp); err != nil {
		return ports.SavedResponse{}, fmt.Errorf("record publish response: %w", err)
	}

	s.log.Info().Int("recipients", sent).Msg("newsletter issue delivered")
	return resp, nil
}

func (s *NewsletterService) deliver(ctx context.Context, issue domain.Issue) (int, error) {
	emails, err := s.subscribers.ConfirmedEmails(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch confirmed subscribers: %w", err)
	}

	sent := 0
	for _, stored := range emails {
		email, err := domain.ParseSubscriberEmail(stored)
		if err != nil {
			s.log.Warn().Str("email", stored).
				Msg("skipping confirmed subscriber with invalid stored contact details")
			continue
		}
		if err := s.emails.Send(ctx, email.String(), issue.Title, issue.ContentHTML, issue.ContentText); err != nil {
			return sent, fmt.Errorf("send newsletter issue to %s: %w", email, err)
		}
		sent++
	}
	return sent, nil
}

func buildPublishResponse(recipients int) (ports.SavedResponse, error) {
	body, err := json.Marshal(publishResult{
		Message:    "newsletter issue delivered",
		Recipients: recipients,
	})
	if err != nil {
		return ports.SavedResponse{}, fmt.Errorf("encode publish response: %w", err)
	}
	return ports.SavedResponse{
		StatusCode: http.StatusOK,
		Headers: []ports.HeaderPair{
			{Name: "Content-Type", Value: []byte("application/json; charset=UTF-8")},
		},
		Body: body,
	}, nil
}
