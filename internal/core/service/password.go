package service

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"

	"github.com/reingma/newsletter/internal/core/domain"
)

// PasswordHasher derives and verifies argon2id password hashes in the PHC
// string format:
//
//	$argon2id$v=19$m=15000,t=2,p=1$<b64 salt>$<b64 digest>
//
// The parameters are embedded in the string, so Verify works across
// deployments even after the defaults change. Hashing is deliberately slow
// (tens of milliseconds); callers run it through an Offloader, never inline
// on the request path.
type PasswordHasher struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
	saltLength  uint32
	keyLength   uint32
}

// Production parameters: ~15 MiB memory, 2 iterations, 1 lane.
const (
	defaultMemoryKiB   = 15000
	defaultIterations  = 2
	defaultParallelism = 1
	defaultSaltLength  = 16
	defaultKeyLength   = 32
)

// NewPasswordHasher returns a hasher with the production parameters.
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		memoryKiB:   defaultMemoryKiB,
		iterations:  defaultIterations,
		parallelism: defaultParallelism,
		saltLength:  defaultSaltLength,
		keyLength:   defaultKeyLength,
	}
}

// NewPasswordHasherForTest returns a hasher with deliberately cheap
// parameters. Test use only.
func NewPasswordHasherForTest() *PasswordHasher {
	return &PasswordHasher{
		memoryKiB:   8,
		iterations:  1,
		parallelism: 1,
		saltLength:  8,
		keyLength:   16,
	}
}

// Hash derives a salted hash of password and encodes it as a PHC string.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	digest := argon2.IDKey([]byte(password), salt, h.iterations, h.memoryKiB, h.parallelism, h.keyLength)

	encoded := fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.memoryKiB, h.iterations, h.parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(digest),
	)
	return encoded, nil
}

// Verify re-derives the digest of candidate using the parameters embedded
// in encoded and compares in constant time. A stored hash that cannot be
// parsed returns domain.ErrHashFormat; that is an operational fault, not a
// wrong password.
func (h *PasswordHasher) Verify(candidate, encoded string) (bool, error) {
	salt, expected, params, err := decodePHC(encoded)
	if err != nil {
		return false, err
	}

	derived := argon2.IDKey([]byte(candidate), salt, params.iterations, params.memoryKiB, params.parallelism, uint32(len(expected)))
	return subtle.ConstantTimeCompare(derived, expected) == 1, nil
}

type phcParams struct {
	memoryKiB   uint32
	iterations  uint32
	parallelism uint8
}

func decodePHC(encoded string) (salt, digest []byte, params phcParams, err error) {
	parts := strings.Split(encoded, "$")
	// Leading '$' yields an empty first element.
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return nil, nil, params, fmt.Errorf("%w: not an argon2id PHC string", domain.ErrHashFormat)
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return nil, nil, params, fmt.Errorf("%w: bad version segment", domain.ErrHashFormat)
	}
	if version != argon2.Version {
		return nil, nil, params, fmt.Errorf("%w: unsupported argon2 version %d", domain.ErrHashFormat, version)
	}

	var p uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &params.memoryKiB, &params.iterations, &p); err != nil {
		return nil, nil, params, fmt.Errorf("%w: bad parameter segment", domain.ErrHashFormat)
	}
	params.parallelism = p

	salt, err = base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, params, fmt.Errorf("%w: bad salt encoding", domain.ErrHashFormat)
	}
	digest, err = base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return nil, nil, params, fmt.Errorf("%w: bad digest encoding", domain.ErrHashFormat)
	}
	return salt, digest, params, nil
}
