package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reingma/newsletter/internal/core/domain"
	"github.com/reingma/newsletter/internal/core/ports"
)

// fallbackPasswordHash is verified against when the username does not
// exist, so the wall-clock cost of "unknown user" matches "known user,
// wrong password". It is a real argon2id digest of a throwaway password
// with the production parameters.
const fallbackPasswordHash = "$argon2id$v=19$m=15000,t=2,p=1$" +
	"gZiV/M1gPc22ElAH/Jh1Hw$CWOrkoo7oJBQ/iyh7uJ0LO2aLEfrHwTWllSAxT0zRno"

// AuthService implements credential validation and password changes.
type AuthService struct {
	users  ports.UserRepository
	hasher *PasswordHasher
	pool   ports.Offloader
	log    zerolog.Logger
}

func NewAuthService(users ports.UserRepository, hasher *PasswordHasher, pool ports.Offloader, log zerolog.Logger) *AuthService {
	return &AuthService{users: users, hasher: hasher, pool: pool, log: log}
}

// ValidateCredentials checks a username/password pair and returns the
// principal id on success. Unknown usernames still pay for a full
// verification cycle against fallbackPasswordHash before failing, and both
// failure modes surface as domain.ErrInvalidCredentials.
func (s *AuthService) ValidateCredentials(ctx context.Context, username, password string) (uuid.UUID, error) {
	expectedHash := fallbackPasswordHash
	var userID uuid.UUID
	known := false

	id, storedHash, err := s.users.Credentials(ctx, username)
	switch {
	case err == nil:
		userID, expectedHash, known = id, storedHash, true
	case errors.Is(err, domain.ErrUserNotFound):
		// Fall through to the dummy verification below.
	default:
		return uuid.Nil, fmt.Errorf("fetch stored credentials: %w", err)
	}

	var (
		match     bool
		verifyErr error
	)
	if err := s.pool.Do(ctx, func() {
		match, verifyErr = s.hasher.Verify(password, expectedHash)
	}); err != nil {
		return uuid.Nil, fmt.Errorf("dispatch password verification: %w", err)
	}
	if verifyErr != nil {
		return uuid.Nil, fmt.Errorf("verify password: %w", verifyErr)
	}

	if !known {
		s.log.Info().Str("username", username).Msg("login attempt for unknown username")
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	if !match {
		s.log.Info().Str("username", username).Msg("login attempt with wrong password")
		return uuid.Nil, domain.ErrInvalidCredentials
	}
	return userID, nil
}

// ChangePassword hashes newPassword off the request path and persists it.
// Policy checks (length, confirmation match) belong to the caller; the
// current-password re-check goes through ValidateCredentials.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, newPassword string) error {
	var (
		hash    string
		hashErr error
	)
	if err := s.pool.Do(ctx, func() {
		hash, hashErr = s.hasher.Hash(newPassword)
	}); err != nil {
		return fmt.Errorf("dispatch password hashing: %w", err)
	}
	if hashErr != nil {
		return fmt.Errorf("hash new password: %w", hashErr)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("persist new password: %w", err)
	}
	return nil
}

// Username resolves a principal id for display purposes.
func (s *AuthService) Username(ctx context.Context, userID uuid.UUID) (string, error) {
	username, err := s.users.UsernameByID(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("resolve username: %w", err)
	}
	return username, nil
}
