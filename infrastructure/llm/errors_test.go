package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderErrorMessage(t *testing.T) {
	err := NewProviderError("openai", ErrorTypeRateLimit, 429, "rate limit exceeded", errors.New("too many requests"))
	msg := err.Error()
	assert.Contains(t, msg, "openai error")
	assert.Contains(t, msg, "HTTP 429")
	assert.Contains(t, msg, "[rate_limit]")
	assert.Contains(t, msg, "rate limit exceeded")
}

func TestProviderErrorUnwrap(t *testing.T) {
	inner := errors.New("boom")
	err := NewProviderError("google", ErrorTypeServerError, 500, "server error", inner)
	assert.ErrorIs(t, err, inner)
}

func TestProviderErrorIsRetryable(t *testing.T) {
	tests := []struct {
		errType   ErrorType
		retryable bool
	}{
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeNetwork, true},
		{ErrorTypeTimeout, true},
		{ErrorTypeAuthentication, false},
		{ErrorTypeBadRequest, false},
		{ErrorTypeNotFound, false},
		{ErrorTypeContentPolicy, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		err := NewProviderError("test", tt.errType, 0, "", nil)
		assert.Equal(t, tt.retryable, err.IsRetryable(), "type %v", tt.errType)
	}
}

func TestErrorClassifierHTTP(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "anthropic"}

	tests := []struct {
		name       string
		statusCode int
		wantType   ErrorType
	}{
		{"unauthorized", 401, ErrorTypeAuthentication},
		{"forbidden", 403, ErrorTypeAuthentication},
		{"rate limited", 429, ErrorTypeRateLimit},
		{"bad request", 400, ErrorTypeBadRequest},
		{"not found", 404, ErrorTypeNotFound},
		{"server error", 500, ErrorTypeServerError},
		{"bad gateway", 502, ErrorTypeServerError},
		{"other 4xx", 422, ErrorTypeBadRequest},
		{"other 5xx", 599, ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classifier.ClassifyHTTPError(tt.statusCode, "msg", nil)
			assert.Equal(t, tt.wantType, err.Type)
			assert.Equal(t, "anthropic", err.Provider)
			assert.Equal(t, tt.statusCode, err.StatusCode)
		})
	}
}

func TestErrorClassifierContext(t *testing.T) {
	classifier := &ErrorClassifier{Provider: "gpt"}

	err := classifier.ClassifyContextError(context.DeadlineExceeded)
	require.NotNil(t, err)
	assert.Equal(t, ErrorTypeTimeout, err.Type)
	assert.True(t, err.IsRetryable())

	err = classifier.ClassifyContextError(context.Canceled)
	assert.Equal(t, ErrorTypeNetwork, err.Type)
}
