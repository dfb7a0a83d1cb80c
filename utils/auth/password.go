package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password does not match")

// bcrypt cost 12 keeps a single verify around 250ms, slow enough to blunt
// offline guessing without hurting interactive login
const hashCost = 12

const minPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt. Length is checked
// here too so a service-level caller cannot store a hash of a password the
// API would reject.
func HashPassword(password string) (string, error) {
	if !IsPasswordValid(password) {
		return "", errors.New("password must be at least 8 characters")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword compares a plaintext password against a stored hash,
// returning ErrPasswordMismatch for a wrong password
func VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}

// IsPasswordValid reports whether a password meets the minimum length
func IsPasswordValid(password string) bool {
	return len(password) >= minPasswordLength
}
