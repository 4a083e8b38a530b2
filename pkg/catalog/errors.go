package catalog

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRetryExhausted is returned when every attempt failed with a
	// retryable error.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context ends during a backoff.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the shared rate limit budget is
	// critically low and the request was not sent.
	ErrRateLimited = errors.New("catalog rate limit critical")
)

// ErrorClass groups failures by how they should be handled.
type ErrorClass string

const (
	// ErrorClassClient is a 4xx response other than 404 and 429.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer is a 5xx response.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassRateLimit is a 429 response.
	ErrorClassRateLimit ErrorClass = "rate_limit"

	// ErrorClassNetwork is a transport failure or timeout.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassInvalidResponse is a 200 response with an undecodable body.
	ErrorClassInvalidResponse ErrorClass = "invalid_response"
)

// CatalogError describes a failed catalog request.
type CatalogError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string
	Err        error
}

func (e *CatalogError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("catalog %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("catalog %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

func (e *CatalogError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an unsuccessful status code to its class.
func classifyStatus(code int) ErrorClass {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrorClassRateLimit
	case code >= 400 && code < 500:
		return ErrorClassClient
	case code >= 500:
		return ErrorClassServer
	default:
		return ErrorClassInvalidResponse
	}
}

// classOf returns the class of err, or "" when err is not a CatalogError.
func classOf(err error) ErrorClass {
	var ce *CatalogError
	if errors.As(err, &ce) {
		return ce.ErrorClass
	}
	return ""
}

// shouldRetry reports whether a failure of the given class is worth
// another attempt.
func shouldRetry(class ErrorClass) bool {
	switch class {
	case ErrorClassServer, ErrorClassRateLimit, ErrorClassNetwork:
		return true
	default:
		return false
	}
}
