package lofin

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors surfaced to callers.
var (
	// ErrRetryExhausted is returned when all retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrDataAnomaly is returned when pagination turns inconsistent, e.g.
	// the server repeats a page verbatim.
	ErrDataAnomaly = errors.New("pagination data anomaly")
)

// ErrorClass classifies a failed page request.
type ErrorClass string

const (
	// ErrorClassNetwork covers transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassServer covers 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit covers 429 responses.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassClient covers 4xx responses and API-level error codes,
	// including the API's status 300 for missing required parameters.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassMalformed covers undecodable response payloads.
	ErrorClassMalformed ErrorClass = "malformed"
)

// APIError is a typed failure from one page request.
type APIError struct {
	StatusCode int
	Class      ErrorClass
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("lofin %s error (status %d): %s: %v", e.Class, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("lofin %s error (status %d): %s", e.Class, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to an error class.
func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassClient
	}
}

// retryable reports whether a failure is transient. Client errors and
// malformed payloads fail immediately; everything else gets another attempt.
func retryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Class {
		case ErrorClassNetwork, ErrorClassServer, ErrorClassRateLimit:
			return true
		default:
			return false
		}
	}
	return false
}
