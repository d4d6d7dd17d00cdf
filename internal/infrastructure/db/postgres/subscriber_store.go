package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// SubscriberStore implements ports.SubscriberStore on Postgres. Direct
// calls run on the pool; InTx runs the given function against a single
// transaction and rolls everything back if it fails.
type SubscriberStore struct {
	pool *pgxpool.Pool
	subscriberQueries
}

func NewSubscriberStore(pool *pgxpool.Pool) *SubscriberStore {
	return &SubscriberStore{
		pool:              pool,
		subscriberQueries: subscriberQueries{db: pool},
	}
}

// InTx executes fn inside one Postgres transaction. The repo handed to fn
// writes through the transaction; returning an error rolls it back.
func (s *SubscriberStore) InTx(ctx context.Context, fn func(ctx context.Context, repo ports.SubscriberRepository) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &subscriberQueries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// subscriberQueries holds the statements shared between pooled and
// transactional execution.
type subscriberQueries struct {
	db DBTX
}

func (q *subscriberQueries) InsertPending(ctx context.Context, sub domain.NewSubscriber) (uuid.UUID, error) {
	id := uuid.New()
	_, err := q.db.Exec(ctx,
		`INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, sub.Email.String(), sub.Name.String(), time.Now().UTC(), domain.StatusPendingConfirmation,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return uuid.Nil, domain.ErrAlreadySubscribed
		}
		return uuid.Nil, fmt.Errorf("insert subscriber: %w", err)
	}
	return id, nil
}

func (q *subscriberQueries) StoreToken(ctx context.Context, token string, subscriberID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`INSERT INTO subscription_tokens (subscription_token, subscriber_id, generated_at)
		 VALUES ($1, $2, $3)`,
		token, subscriberID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert subscription token: %w", err)
	}
	return nil
}

func (q *subscriberQueries) SubscriberIDForToken(ctx context.Context, token string, validity time.Duration) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx,
		`SELECT subscriber_id FROM subscription_tokens
		 WHERE subscription_token = $1 AND generated_at > $2`,
		token, time.Now().UTC().Add(-validity),
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, domain.ErrTokenNotFound
		}
		return uuid.Nil, fmt.Errorf("resolve subscription token: %w", err)
	}
	return id, nil
}

func (q *subscriberQueries) ConfirmSubscriber(ctx context.Context, subscriberID uuid.UUID) error {
	_, err := q.db.Exec(ctx,
		`UPDATE subscriptions SET status = $1 WHERE id = $2`,
		domain.StatusConfirmed, subscriberID,
	)
	if err != nil {
		return fmt.Errorf("confirm subscriber: %w", err)
	}
	return nil
}

func (q *subscriberQueries) ConfirmedEmails(ctx context.Context) ([]string, error) {
	rows, err := q.db.Query(ctx,
		`SELECT email FROM subscriptions WHERE status = $1`,
		domain.StatusConfirmed,
	)
	if err != nil {
		return nil, fmt.Errorf("query confirmed subscribers: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan subscriber email: %w", err)
		}
		emails = append(emails, email)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirmed subscribers: %w", err)
	}
	return emails, nil
}
