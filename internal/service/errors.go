package service

import (
	"errors"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicateIdentity = errors.New("email already registered")
	ErrNotFound          = errors.New("not found")
	ErrAccessDenied      = errors.New("access denied")
	ErrTokenMissing      = errors.New("token missing")
	ErrTokenInvalid      = errors.New("token invalid")
	ErrTooManyTags       = errors.New("too many tags")
	ErrInvalidCredential = errors.New("invalid email or password")
	ErrStorageDisabled   = errors.New("file storage is not configured")
)

// ValidationError reports which input field was rejected and why.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Message: err.Error()}
}
