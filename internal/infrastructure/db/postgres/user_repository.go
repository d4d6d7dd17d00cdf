package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/reingma/newsletter/internal/core/domain"
)

// UserRepository implements ports.UserRepository on Postgres.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Credentials(ctx context.Context, username string) (uuid.UUID, string, error) {
	var (
		id   uuid.UUID
		hash string
	)
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, password_hash FROM users WHERE username = $1`,
		username,
	).Scan(&id, &hash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, "", domain.ErrUserNotFound
		}
		return uuid.Nil, "", fmt.Errorf("query credentials: %w", err)
	}
	return id, hash, nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET password_hash = $1 WHERE user_id = $2`,
		passwordHash, userID,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UsernameByID(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx,
		`SELECT username FROM users WHERE user_id = $1`,
		userID,
	).Scan(&username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrUserNotFound
		}
		return "", fmt.Errorf("query username: %w", err)
	}
	return username, nil
}
