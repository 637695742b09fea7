package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"auth_api/internal/common"
)

// MinPasswordLength is the weakest plaintext the hasher will accept.
const MinPasswordLength = 6

// PasswordHasher wraps bcrypt with a tunable work factor. Hashing is
// deliberately slow; the cost knob exists so tests can turn it down.
type PasswordHasher struct {
	cost int
}

func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash salts and hashes plaintext. Each call produces a different digest
// for the same input; Verify is the only way to compare.
func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	if len(plaintext) < MinPasswordLength {
		return "", common.ErrPasswordTooShort
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether plaintext matches digest. A malformed digest is
// treated as a mismatch, never an error.
func (h *PasswordHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
