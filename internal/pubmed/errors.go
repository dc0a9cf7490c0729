package pubmed

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common errors returned by the PubMed client.
var (
	// ErrNotFound indicates no article matched.
	ErrNotFound = errors.New("not found in PubMed")

	// ErrAuthError indicates a rejected API key.
	ErrAuthError = errors.New("PubMed authentication error")

	// ErrRateLimited indicates NCBI throttled the request.
	ErrRateLimited = errors.New("PubMed rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("PubMed API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with PubMed")

	// ErrInvalidResponse indicates a response body that could not be parsed.
	ErrInvalidResponse = errors.New("invalid response from PubMed")
)

// APIError represents an HTTP error from an E-utilities endpoint.
type APIError struct {
	StatusCode int
	Endpoint   string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("PubMed API error (status %d, %s): %s", e.StatusCode, e.Endpoint, e.Message)
}

// Is lets errors.Is match any APIError against ErrAPIError.
func (e *APIError) Is(target error) bool {
	return target == ErrAPIError
}

// IsNotFound returns true if the error indicates nothing was found.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
