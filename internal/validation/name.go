package validation

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateName validates a display name. Names are optional at signup,
// so callers only validate a name that was provided.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name must not be blank")
	}

	if utf8.RuneCountInString(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}
