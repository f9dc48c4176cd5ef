package core

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeUnauthorized, http.StatusUnauthorized},
		{ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{ErrCodeForbidden, http.StatusForbidden},
		{ErrCodeMustChangePassword, http.StatusForbidden},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeConflict, http.StatusConflict},
		{ErrCodeRateLimitExceeded, http.StatusTooManyRequests},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrorCode("BOGUS"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.Status())
		})
	}
}

func TestAPIError(t *testing.T) {
	err := NewNotFoundError("group not found")
	assert.EqualError(t, err, "group not found")
	assert.Equal(t, ErrCodeNotFound, err.Code)
	assert.Equal(t, http.StatusNotFound, err.StatusCode())

	rlErr := NewRateLimitError(42)
	assert.Equal(t, http.StatusTooManyRequests, rlErr.StatusCode())
	assert.Equal(t, 42, rlErr.Details["retryAfter"])

	cErr := NewConflictError("already exists", "email")
	assert.Equal(t, []string{"email"}, cErr.Details["fields"])
}

func TestRedact(t *testing.T) {
	details := map[string]interface{}{
		"password":    "hunter2",
		"apiKey":      "sk-123",
		"accessToken": "tok",
		"reason":      "nope",
		"nested": map[string]interface{}{
			"clientSecret": "shhh",
			"count":        3,
		},
	}

	got := Redact(details)

	assert.Equal(t, RedactedValue, got["password"])
	assert.Equal(t, RedactedValue, got["apiKey"])
	assert.Equal(t, RedactedValue, got["accessToken"])
	assert.Equal(t, "nope", got["reason"])

	nested := got["nested"].(map[string]interface{})
	assert.Equal(t, RedactedValue, nested["clientSecret"])
	assert.Equal(t, 3, nested["count"])

	// input must not be mutated
	assert.Equal(t, "hunter2", details["password"])
	assert.Equal(t, "shhh", details["nested"].(map[string]interface{})["clientSecret"])
}

func TestRedactNil(t *testing.T) {
	assert.Nil(t, Redact(nil))
}

func TestIsShutdown(t *testing.T) {
	assert.True(t, IsShutdown(NewShutdownError("going down")))
	assert.False(t, IsShutdown(NewNotFoundError("nope")))
}
