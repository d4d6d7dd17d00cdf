package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reingma/newsletter/internal/core/domain"
)

// syncOffloader runs tasks inline; tests do not need worker isolation.
type syncOffloader struct{}

func (syncOffloader) Do(_ context.Context, task func()) error {
	task()
	return nil
}

type stubUserRepo struct {
	id       uuid.UUID
	username string
	hash     string
	err      error

	updatedHash string
}

func (r *stubUserRepo) Credentials(_ context.Context, username string) (uuid.UUID, string, error) {
	if r.err != nil {
		return uuid.Nil, "", r.err
	}
	if username != r.username {
		return uuid.Nil, "", domain.ErrUserNotFound
	}
	return r.id, r.hash, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, _ uuid.UUID, passwordHash string) error {
	r.updatedHash = passwordHash
	return nil
}

func (r *stubUserRepo) UsernameByID(_ context.Context, userID uuid.UUID) (string, error) {
	if userID != r.id {
		return "", domain.ErrUserNotFound
	}
	return r.username, nil
}

func newTestAuthService(t *testing.T, repo *stubUserRepo) *AuthService {
	t.Helper()
	return NewAuthService(repo, NewPasswordHasherForTest(), syncOffloader{}, zerolog.Nop())
}

func seedUser(t *testing.T, password string) *stubUserRepo {
	t.Helper()
	hash, err := NewPasswordHasherForTest().Hash(password)
	if err != nil {
		t.Fatalf("seed hash failed: %v", err)
	}
	return &stubUserRepo{id: uuid.New(), username: "admin", hash: hash}
}

func TestValidateCredentials_Success(t *testing.T) {
	repo := seedUser(t, "s3cret-enough")
	svc := newTestAuthService(t, repo)

	userID, err := svc.ValidateCredentials(context.Background(), "admin", "s3cret-enough")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if userID != repo.id {
		t.Fatalf("unexpected user id: %s", userID)
	}
}

func TestValidateCredentials_WrongPassword(t *testing.T) {
	repo := seedUser(t, "s3cret-enough")
	svc := newTestAuthService(t, repo)

	_, err := svc.ValidateCredentials(context.Background(), "admin", "not the password")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

// Unknown usernames must be reported identically to wrong passwords.
func TestValidateCredentials_UnknownUsername(t *testing.T) {
	repo := seedUser(t, "s3cret-enough")
	svc := newTestAuthService(t, repo)

	_, err := svc.ValidateCredentials(context.Background(), "ghost", "whatever-here")
	if !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestValidateCredentials_StorageFailure(t *testing.T) {
	repo := &stubUserRepo{err: errors.New("connection refused")}
	svc := newTestAuthService(t, repo)

	_, err := svc.ValidateCredentials(context.Background(), "admin", "whatever-here")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatal("storage failure must not look like bad credentials")
	}
}

func TestValidateCredentials_CorruptStoredHash(t *testing.T) {
	repo := &stubUserRepo{id: uuid.New(), username: "admin", hash: "garbage"}
	svc := newTestAuthService(t, repo)

	_, err := svc.ValidateCredentials(context.Background(), "admin", "whatever-here")
	if !errors.Is(err, domain.ErrHashFormat) {
		t.Fatalf("expected ErrHashFormat, got %v", err)
	}
	if errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatal("hash corruption must not look like bad credentials")
	}
}

func TestChangePassword_PersistsVerifiableHash(t *testing.T) {
	repo := seedUser(t, "old-password-1")
	svc := newTestAuthService(t, repo)

	if err := svc.ChangePassword(context.Background(), repo.id, "new-password-22"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if repo.updatedHash == "" {
		t.Fatal("no hash persisted")
	}

	match, err := NewPasswordHasherForTest().Verify("new-password-22", repo.updatedHash)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !match {
		t.Fatal("persisted hash does not match the new password")
	}
}

func TestUsername(t *testing.T) {
	repo := seedUser(t, "s3cret-enough")
	svc := newTestAuthService(t, repo)

	username, err := svc.Username(context.Background(), repo.id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if username != "admin" {
		t.Fatalf("unexpected username: %q", username)
	}
}
