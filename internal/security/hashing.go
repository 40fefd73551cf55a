package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var errEmptySecret = errors.New("security: empty secret")

// Hasher hashes one-time codes and other short secrets with bcrypt. Callers must not log or
// persist the plaintext.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher with the given bcrypt cost, clamped to bcrypt's bounds. A
// non-positive cost means bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	if cost < bcrypt.MinCost {
		cost = bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of secret, suitable for storage.
func (h *Hasher) Hash(secret []byte) (string, error) {
	if len(secret) == 0 {
		return "", errEmptySecret
	}
	b, err := bcrypt.GenerateFromPassword(secret, h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Compare returns nil when secret matches hash. Mismatches return
// bcrypt.ErrMismatchedHashAndPassword.
func (h *Hasher) Compare(hash string, secret []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), secret)
}
