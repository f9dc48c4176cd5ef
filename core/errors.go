package core

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// ErrorCode tags an APIError with one of a closed set of error kinds.
// Every kind maps to a fixed HTTP status; clients dispatch on the code
// without needing to know which subsystem produced the failure.
type ErrorCode string

const (
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	ErrCodeForbidden          ErrorCode = "FORBIDDEN"
	ErrCodeMustChangePassword ErrorCode = "MUST_CHANGE_PASSWORD"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeValidation         ErrorCode = "VALIDATION_ERROR"
	ErrCodeConflict           ErrorCode = "CONFLICT"
	ErrCodeRateLimitExceeded  ErrorCode = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal           ErrorCode = "INTERNAL_ERROR"
)

var errorCodeStatuses = map[ErrorCode]int{
	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,
	ErrCodeMustChangePassword: http.StatusForbidden,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeRateLimitExceeded:  http.StatusTooManyRequests,
	ErrCodeInternal:           http.StatusInternalServerError,
}

// Status returns the HTTP status the code maps to. Unknown codes are server errors.
func (c ErrorCode) Status() int {
	if status, ok := errorCodeStatuses[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// APIError is the typed error raised by services, repositories and middleware
// whenever a request must fail with a well-known kind. It is consumed exactly
// once, by the HTTP error handler at the request boundary.
type APIError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

var _ error = (*APIError)(nil)

func (e *APIError) Error() string { return e.Message }

func (e *APIError) StatusCode() int { return e.Code.Status() }

func NewAPIError(code ErrorCode, msg string) *APIError {
	return &APIError{Code: code, Message: msg}
}

func NewUnauthorizedError(msg string) *APIError {
	return NewAPIError(ErrCodeUnauthorized, msg)
}

func NewInvalidCredentialsError(msg string) *APIError {
	return NewAPIError(ErrCodeInvalidCredentials, msg)
}

func NewForbiddenError(msg string) *APIError {
	return NewAPIError(ErrCodeForbidden, msg)
}

func NewMustChangePasswordError() *APIError {
	return NewAPIError(ErrCodeMustChangePassword, "password change required before any other action")
}

func NewNotFoundError(msg string) *APIError {
	return NewAPIError(ErrCodeNotFound, msg)
}

func NewBadRequestError(msg string) *APIError {
	return NewAPIError(ErrCodeBadRequest, msg)
}

// NewConflictError reports a uniqueness or state conflict; flds names the
// offending columns/fields when known.
func NewConflictError(msg string, flds ...string) *APIError {
	err := NewAPIError(ErrCodeConflict, msg)
	if len(flds) > 0 {
		err.Details = map[string]interface{}{"fields": flds}
	}
	return err
}

// NewRateLimitError reports a limiter rejection; retryAfter is in seconds.
func NewRateLimitError(retryAfter int) *APIError {
	err := NewAPIError(ErrCodeRateLimitExceeded, "too many requests")
	err.Details = map[string]interface{}{"retryAfter": retryAfter}
	return err
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries field-level issues raised by service-side checks
// (as opposed to validator.v10 struct validation).
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

// RedactedValue replaces the value of any sensitive key in error details.
const RedactedValue = "[REDACTED]"

var sensitiveKeyParts = []string{"password", "token", "secret", "apikey", "accesstoken"}

func isSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(key, part) {
			return true
		}
	}
	return false
}

// Redact returns a copy of details where every key containing a sensitive
// substring (case-insensitive) maps to RedactedValue, recursively through
// nested maps. The input is never mutated.
func Redact(details map[string]interface{}) map[string]interface{} {
	if details == nil {
		return nil
	}
	out := make(map[string]interface{}, len(details))
	for key, val := range details {
		if isSensitiveKey(key) {
			out[key] = RedactedValue
			continue
		}
		if nested, ok := val.(map[string]interface{}); ok {
			out[key] = Redact(nested)
			continue
		}
		out[key] = val
	}
	return out
}
