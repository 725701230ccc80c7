package github

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrNotConfigured means the session was built but never given a token.
	ErrNotConfigured = errors.New("github: not configured")

	// ErrNotAuthenticated means there is no valid session for the call.
	ErrNotAuthenticated = errors.New("github: not authenticated")

	// ErrInvalidResponse means the API answered with a payload we could
	// not decode or with an unexpected shape.
	ErrInvalidResponse = errors.New("github: invalid response")
)

// APIError wraps an unrecoverable transport or API failure.
type APIError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("github: API error %d: %s", e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("github: API error %d", e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("github: API error: %v", e.Err)
	}
	return "github: API error"
}

func (e *APIError) Unwrap() error { return e.Err }

// RateLimitError is returned when the quota is exhausted. ResetAt is the
// time the quota is restored.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("github: rate limited until %s", e.ResetAt.Format(time.RFC3339))
}

// Kind is the closed failure taxonomy every error surfaced by the session
// or fetcher maps into.
type Kind int

const (
	KindAPI Kind = iota
	KindNotAuthenticated
	KindNotConfigured
	KindRateLimited
	KindInvalidResponse
)

func (k Kind) String() string {
	switch k {
	case KindNotAuthenticated:
		return "not_authenticated"
	case KindNotConfigured:
		return "not_configured"
	case KindRateLimited:
		return "rate_limited"
	case KindInvalidResponse:
		return "invalid_response"
	}
	return "api_error"
}

// Classify maps an error onto the taxonomy. Unknown errors are API errors.
func Classify(err error) Kind {
	var rl *RateLimitError
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return KindNotAuthenticated
	case errors.Is(err, ErrNotConfigured):
		return KindNotConfigured
	case errors.As(err, &rl):
		return KindRateLimited
	case errors.Is(err, ErrInvalidResponse):
		return KindInvalidResponse
	}
	return KindAPI
}

// IsAuthFailure reports whether err indicates an HTTP unauthorized
// condition. Callers use this to trigger credential revocation.
func IsAuthFailure(err error) bool {
	if errors.Is(err, ErrNotAuthenticated) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
