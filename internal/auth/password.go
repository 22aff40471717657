package auth

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/seansyed/parafort-sub010/pkg/errors"
)

// DefaultBcryptCost is the cost factor for bcrypt password hashing.
const DefaultBcryptCost = 12

// MinPasswordLength is the minimum password length required.
const MinPasswordLength = 8

// ValidatePassword enforces length and character-class rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.InvalidInput("password must contain at least one uppercase letter, one lowercase letter, and one digit")
	}
	return nil
}

// HashPassword hashes password with bcrypt at cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CheckPassword reports whether password matches hash.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
