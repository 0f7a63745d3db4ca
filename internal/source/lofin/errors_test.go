package lofin

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		code int
		want ErrorClass
	}{
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusBadGateway, ErrorClassServer},
		{http.StatusServiceUnavailable, ErrorClassServer},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusUnauthorized, ErrorClassClient},
		{http.StatusMultipleChoices, ErrorClassClient}, // the API's "missing required values"
		{http.StatusNotFound, ErrorClassClient},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, classifyStatus(tt.code), "status %d", tt.code)
	}
}

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&APIError{Class: ErrorClassNetwork}))
	assert.True(t, retryable(&APIError{Class: ErrorClassServer, StatusCode: 500}))
	assert.True(t, retryable(&APIError{Class: ErrorClassRateLimit, StatusCode: 429}))
	assert.False(t, retryable(&APIError{Class: ErrorClassClient, StatusCode: 400}))
	assert.False(t, retryable(&APIError{Class: ErrorClassMalformed}))
	assert.False(t, retryable(errors.New("plain error")))

	wrapped := fmt.Errorf("fetch page 3: %w", &APIError{Class: ErrorClassServer, StatusCode: 503})
	assert.True(t, retryable(wrapped))
}

func TestAPIError_Error(t *testing.T) {
	err := &APIError{StatusCode: 500, Class: ErrorClassServer, Message: "boom"}
	assert.Contains(t, err.Error(), "server")
	assert.Contains(t, err.Error(), "500")

	inner := errors.New("connection reset")
	err = &APIError{Class: ErrorClassNetwork, Message: "execute request", Err: inner}
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "connection reset")
}
