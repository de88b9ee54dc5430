package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrWeakPassword indicates a password below the minimum length
var ErrWeakPassword = errors.New("password must be at least 8 characters")

const minPasswordLength = 8

// HashPassword hashes a password with bcrypt at the default cost
func HashPassword(password string) ([]byte, error) {
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	return hash, nil
}

// CheckPassword reports whether the password matches the stored hash
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
