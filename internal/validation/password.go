package validation

import (
	"errors"
	"strings"
	"unicode"
)

const (
	minPasswordLength = 8
	// bcrypt silently truncates input beyond 72 bytes
	maxPasswordLength = 72
)

var commonPatterns = []string{
	"password", "123456", "qwerty", "admin", "letmein",
	"welcome", "monkey", "dragon", "master", "sunshine",
}

// ValidatePassword enforces length, mixed case and a small blocklist of common patterns.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return errors.New("password must be at least 8 characters")
	}

	if len(password) > maxPasswordLength {
		return errors.New("password must not exceed 72 characters")
	}

	var hasUpper, hasLower bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		}
	}
	if !hasUpper || !hasLower {
		return errors.New("password must contain both uppercase and lowercase letters")
	}

	lower := strings.ToLower(password)
	for _, pattern := range commonPatterns {
		if strings.Contains(lower, pattern) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
