package utils

import (
	"errors"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the shortest password accepted on registration.
const MinPasswordLength = 8

// ErrWeakPassword is returned by ValidatePassword for short passwords.
var ErrWeakPassword = errors.New("password must be at least 8 characters")

// ValidatePassword checks the registration rules for a plain password.
// bcrypt ignores everything past 72 bytes, so longer inputs are refused.
func ValidatePassword(plain string) error {
	if utf8.RuneCountInString(plain) < MinPasswordLength {
		return ErrWeakPassword
	}
	if len(plain) > 72 {
		return errors.New("password must be at most 72 bytes")
	}
	return nil
}

// HashPassword returns bcrypt hash using the given cost.
func HashPassword(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword safely compares bcrypt hash and plain password.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
