package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost stays at the minimum: PASS is verified on the reactor thread.
const bcryptCost = bcrypt.MinCost

// HashPassword generates a bcrypt hash of the password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePassword compares a bcrypt hashed password with its plaintext version.
func ComparePassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// Secret is the connection password held only in hashed form.
type Secret struct {
	hash string
}

// NewSecret hashes the configured connection password.
func NewSecret(password string) (*Secret, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &Secret{hash: hash}, nil
}

// Verify reports whether candidate matches the connection password.
func (s *Secret) Verify(candidate string) bool {
	return ComparePassword(s.hash, candidate) == nil
}
