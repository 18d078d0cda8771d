package services

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// PasswordHasher is the one-way salted hasher for account passwords.
// Hash failures are fatal to the calling operation: a credential must
// never be persisted with a plaintext password.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type bcryptHasher struct{}

func NewPasswordHasher() PasswordHasher {
	return &bcryptHasher{}
}

func (h *bcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("bcrypt generate: %w", err)
	}
	return string(b), nil
}

func (h *bcryptHasher) Verify(plain, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain)) == nil
}
