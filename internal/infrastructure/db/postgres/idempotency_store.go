package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reingma/newsletter/internal/core/ports"
)

// IdempotencyStore implements ports.IdempotencyStore on Postgres. The
// primary key on (user_id, idempotency_key) arbitrates concurrent first
// attempts: the winner's claim row stays uncommitted while its side
// effects run, so a concurrent loser blocks on the conflicting insert
// until the winner commits (then replays) or rolls back (then wins).
type IdempotencyStore struct {
	pool *pgxpool.Pool
}

func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool}
}

func (s *IdempotencyStore) TryClaim(ctx context.Context, userID uuid.UUID, key string) (ports.IdempotencyClaim, *ports.SavedResponse, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("begin idempotency transaction: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO idempotency (user_id, idempotency_key, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (user_id, idempotency_key) DO NOTHING`,
		userID, key, time.Now().UTC(),
	)
	if err != nil {
		_ = tx.Rollback(ctx)
		return nil, nil, fmt.Errorf("claim idempotency key: %w", err)
	}

	if tag.RowsAffected() == 1 {
		// This request won the key. The open transaction is the claim.
		return &claim{tx: tx, userID: userID, key: key}, nil, nil
	}

	// Lost the race (or the key was completed earlier): the canonical
	// response is committed by now, read it back.
	if err := tx.Rollback(ctx); err != nil {
		return nil, nil, fmt.Errorf("release empty claim transaction: %w", err)
	}
	saved, err := s.savedResponse(ctx, userID, key)
	if err != nil {
		return nil, nil, err
	}
	return nil, saved, nil
}

func (s *IdempotencyStore) savedResponse(ctx context.Context, userID uuid.UUID, key string) (*ports.SavedResponse, error) {
	var (
		status int
		names  []string
		values [][]byte
		body   []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT response_status_code, response_header_names, response_header_values, response_body
		 FROM idempotency
		 WHERE user_id = $1 AND idempotency_key = $2 AND response_status_code IS NOT NULL`,
		userID, key,
	).Scan(&status, &names, &values, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("idempotency record for key %q vanished mid-race", key)
		}
		return nil, fmt.Errorf("load saved response: %w", err)
	}
	if len(names) != len(values) {
		return nil, fmt.Errorf("idempotency record for key %q has mismatched headers", key)
	}

	headers := make([]ports.HeaderPair, len(names))
	for i := range names {
		headers[i] = ports.HeaderPair{Name: names[i], Value: values[i]}
	}
	return &ports.SavedResponse{StatusCode: status, Headers: headers, Body: body}, nil
}

type claim struct {
	tx     pgx.Tx
	userID uuid.UUID
	key    string
}

func (c *claim) Complete(ctx context.Context, resp ports.SavedResponse) error {
	names := make([]string, len(resp.Headers))
	values := make([][]byte, len(resp.Headers))
	for i, h := range resp.Headers {
		names[i] = h.Name
		values[i] = h.Value
	}

	_, err := c.tx.Exec(ctx,
		`UPDATE idempotency
		 SET response_status_code = $1,
		     response_header_names = $2,
		     response_header_values = $3,
		     response_body = $4
		 WHERE user_id = $5 AND idempotency_key = $6`,
		resp.StatusCode, names, values, resp.Body, c.userID, c.key,
	)
	if err != nil {
		_ = c.tx.Rollback(ctx)
		return fmt.Errorf("record response: %w", err)
	}
	if err := c.tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit idempotency record: %w", err)
	}
	return nil
}

func (c *claim) Release(ctx context.Context) error {
	if err := c.tx.Rollback(ctx); err != nil {
		return fmt.Errorf("release idempotency claim: %w", err)
	}
	return nil
}
