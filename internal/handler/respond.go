package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/templui/secondbrain/internal/ctxkeys"
	"github.com/templui/secondbrain/internal/service"
)

const (
	maxJSONBody      = 1 << 20  // 1MB
	maxMultipartBody = 11 << 20 // 10MB document plus form overhead
)

var errInvalidBody = errors.New("invalid JSON body")

type errorResponse struct {
	Code  string `json:"code"`
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Error: message})
}

// handleError maps a service error onto the HTTP error taxonomy. Anything
// unrecognised is logged here and reported as a bare 500.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Code: "VALIDATION_ERROR", Error: verr.Message, Field: verr.Field})
		return
	}

	status, code, message := mapError(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", ctxkeys.UserID(r.Context()),
		)
	}
	writeError(w, status, code, message)
}

func mapError(err error) (status int, code, message string) {
	switch {
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, "INVALID_BODY", err.Error()
	case errors.Is(err, service.ErrTooManyTags):
		return http.StatusBadRequest, "TOO_MANY_TAGS", "at most 10 tags are allowed"
	case errors.Is(err, service.ErrDuplicateIdentity):
		return http.StatusConflict, "DUPLICATE_IDENTITY", "email already registered"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND", "not found"
	case errors.Is(err, service.ErrAccessDenied):
		return http.StatusForbidden, "ACCESS_DENIED", "access denied"
	case errors.Is(err, service.ErrTokenMissing), errors.Is(err, service.ErrTokenInvalid):
		return http.StatusUnauthorized, "UNAUTHORIZED", "authentication required"
	case errors.Is(err, service.ErrInvalidCredential):
		return http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password"
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusServiceUnavailable, "UNAVAILABLE", "document storage is not configured"
	}
	return http.StatusInternalServerError, "INTERNAL", "internal server error"
}

// decodeJSON reads a single JSON object of at most 1MB into target. Type
// mismatches are reported against the offending field.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	defer func() { _ = r.Body.Close() }()

	decoder := json.NewDecoder(r.Body)
	err := decoder.Decode(target)
	if err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return &service.ValidationError{
				Field:   typeErr.Field,
				Message: fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type.Kind().String())),
			}
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: body exceeds %d bytes", errInvalidBody, maxErr.Limit)
		}
		return errInvalidBody
	}

	// Exactly one JSON value
	if decoder.More() {
		return errInvalidBody
	}

	return nil
}

func jsonKind(kind string) string {
	switch kind {
	case "bool":
		return "boolean"
	case "slice":
		return "list"
	case "ptr":
		return "value"
	}
	return kind
}
