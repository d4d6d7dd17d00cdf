package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/reingma/newsletter/internal/core/domain"
)

func TestPasswordHasher_RoundTrip(t *testing.T) {
	hasher := NewPasswordHasherForTest()

	encoded, err := hasher.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if !strings.HasPrefix(encoded, "$argon2id$v=19$") {
		t.Fatalf("unexpected hash format: %q", encoded)
	}

	match, err := hasher.Verify("correct horse battery staple", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !match {
		t.Fatal("correct password did not verify")
	}

	match, err = hasher.Verify("wrong password", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if match {
		t.Fatal("wrong password verified")
	}
}

func TestPasswordHasher_SaltsDiffer(t *testing.T) {
	hasher := NewPasswordHasherForTest()

	first, err := hasher.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	second, err := hasher.Hash("hunter2hunter2")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}
	if first == second {
		t.Fatal("two hashes of the same password are identical")
	}
}

// A hash carries its own parameters, so a hasher configured differently
// must still verify it.
func TestPasswordHasher_VerifyUsesEmbeddedParams(t *testing.T) {
	cheap := NewPasswordHasherForTest()
	encoded, err := cheap.Hash("some passphrase")
	if err != nil {
		t.Fatalf("hash failed: %v", err)
	}

	match, err := NewPasswordHasher().Verify("some passphrase", encoded)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if !match {
		t.Fatal("hash with embedded params did not verify under other defaults")
	}
}

func TestPasswordHasher_MalformedStoredHash(t *testing.T) {
	hasher := NewPasswordHasherForTest()

	for _, encoded := range []string{
		"",
		"not a phc string",
		"$bcrypt$v=19$m=8,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=18$m=8,t=1,p=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=8,t=1$c2FsdA$ZGlnZXN0",
		"$argon2id$v=19$m=8,t=1,p=1$!!!$ZGlnZXN0",
		"$argon2id$v=19$m=8,t=1,p=1$c2FsdA$!!!",
	} {
		_, err := hasher.Verify("whatever", encoded)
		if err == nil {
			t.Fatalf("expected error for %q", encoded)
		}
		if !errors.Is(err, domain.ErrHashFormat) {
			t.Fatalf("expected ErrHashFormat for %q, got %v", encoded, err)
		}
	}
}

// The fallback hash burned on unknown usernames must stay parseable.
func TestFallbackPasswordHash_Parses(t *testing.T) {
	hasher := NewPasswordHasher()
	match, err := hasher.Verify("definitely not the password", fallbackPasswordHash)
	if err != nil {
		t.Fatalf("fallback hash failed to parse: %v", err)
	}
	if match {
		t.Fatal("arbitrary candidate matched the fallback hash")
	}
}
