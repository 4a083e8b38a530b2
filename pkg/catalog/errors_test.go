package catalog

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected bool
	}{
		{ErrorClassClient, false},
		{ErrorClassServer, true},
		{ErrorClassRateLimit, true},
		{ErrorClassNetwork, true},
		{ErrorClassInvalidResponse, false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.class), func(t *testing.T) {
			if got := shouldRetry(tt.class); got != tt.expected {
				t.Errorf("shouldRetry(%q) = %v, want %v", tt.class, got, tt.expected)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status   int
		expected ErrorClass
	}{
		{http.StatusBadRequest, ErrorClassClient},
		{http.StatusForbidden, ErrorClassClient},
		{http.StatusTooManyRequests, ErrorClassRateLimit},
		{http.StatusInternalServerError, ErrorClassServer},
		{http.StatusServiceUnavailable, ErrorClassServer},
		{http.StatusNoContent, ErrorClassInvalidResponse},
	}

	for _, tt := range tests {
		if got := classifyStatus(tt.status); got != tt.expected {
			t.Errorf("classifyStatus(%d) = %q, want %q", tt.status, got, tt.expected)
		}
	}
}

func TestCatalogError(t *testing.T) {
	inner := errors.New("connection refused")
	wrapped := &CatalogError{ErrorClass: ErrorClassNetwork, Message: "request failed", Err: inner}

	if got, want := wrapped.Error(), "catalog network error (status 0): request failed: connection refused"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(wrapped, inner) {
		t.Error("errors.Is should find the wrapped error")
	}

	bare := &CatalogError{StatusCode: 503, ErrorClass: ErrorClassServer, Message: "503 Service Unavailable"}
	if got, want := bare.Error(), "catalog server error (status 503): 503 Service Unavailable"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if bare.Unwrap() != nil {
		t.Error("Unwrap() should be nil without an inner error")
	}
}

func TestClassOf(t *testing.T) {
	ce := &CatalogError{ErrorClass: ErrorClassServer}
	if got := classOf(fmt.Errorf("fetch: %w", ce)); got != ErrorClassServer {
		t.Errorf("classOf(wrapped) = %q, want %q", got, ErrorClassServer)
	}
	if got := classOf(errors.New("plain")); got != "" {
		t.Errorf("classOf(plain) = %q, want empty", got)
	}
}
