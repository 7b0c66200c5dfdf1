// Package auth implements the security primitives of the service: bcrypt
// password digests and HS256 access tokens.
package auth

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordLength is the longest password bcrypt accepts, in bytes.
const MaxPasswordLength = 72

// BcryptHasher derives and verifies salted bcrypt digests. It holds no
// mutable state and is safe for concurrent use.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher using the given work factor.
func NewBcryptHasher(cost int) (*BcryptHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &BcryptHasher{cost: cost}, nil
}

// Cost reports the configured work factor.
func (h *BcryptHasher) Cost() int {
	return h.cost
}

// Hash returns a digest of password with a fresh random salt embedded, so
// two calls never yield the same string.
func (h *BcryptHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("%w: password is empty", common.ErrHashing)
	}
	if len(password) > MaxPasswordLength {
		return "", fmt.Errorf("%w: password exceeds %d bytes", common.ErrHashing, MaxPasswordLength)
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	digest, err := bcrypt.GenerateFromPassword(pw, h.cost)
	if err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrHashing, err)
	}

	return string(digest), nil
}

// Verify reports whether password matches digest. A mismatch is (false, nil);
// only a digest that bcrypt cannot parse is an error.
func (h *BcryptHasher) Verify(password, digest string) (bool, error) {
	if _, err := bcrypt.Cost([]byte(digest)); err != nil {
		return false, fmt.Errorf("%w: malformed digest: %w", common.ErrHashing, err)
	}

	// Nothing outside these bounds was ever hashed.
	if password == "" || len(password) > MaxPasswordLength {
		return false, nil
	}

	pw := []byte(password)
	defer common.WipeByteArray(pw)

	err := bcrypt.CompareHashAndPassword([]byte(digest), pw)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", common.ErrHashing, err)
	}
}
