package clinicaltrials

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Common errors returned by the ClinicalTrials.gov client.
var (
	// ErrNotFound indicates the requested study does not exist.
	ErrNotFound = errors.New("study not found on ClinicalTrials.gov")

	// ErrRateLimited indicates the API throttled the request.
	ErrRateLimited = errors.New("ClinicalTrials.gov rate limit exceeded")

	// ErrAPIError indicates a general API error.
	ErrAPIError = errors.New("ClinicalTrials.gov API error")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with ClinicalTrials.gov")

	// ErrInvalidResponse indicates a response body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response from ClinicalTrials.gov")
)

// APIError represents an HTTP error from the studies endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("ClinicalTrials.gov API error (status %d): %s", e.StatusCode, e.Message)
}

// Is lets errors.Is match any APIError against ErrAPIError.
func (e *APIError) Is(target error) bool {
	return target == ErrAPIError
}

// IsNotFound returns true if the error indicates the study was not found.
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
	return errors.Is(err, ErrRateLimited)
}
