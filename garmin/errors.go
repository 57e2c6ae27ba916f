package garmin

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrAuthentication is matched by errors caused by missing or rejected credentials
	ErrAuthentication = errors.New("garmin: authentication failed")
	// ErrRateLimited is matched by errors caused by an HTTP 429 from the API
	ErrRateLimited = errors.New("garmin: rate limited")
	// ErrSessionClosed is returned by calls on a logged out Session
	ErrSessionClosed = errors.New("garmin: session closed")
)

// APIError represents a non-2xx response from the Garmin API
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("garmin: %s returned %d", e.Path, e.StatusCode)
	}

	return fmt.Sprintf("garmin: %s returned %d: %s", e.Path, e.StatusCode, e.Body)
}

// Is lets errors.Is match an APIError against ErrRateLimited
// and ErrAuthentication by status code
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrAuthentication:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}

	return false
}

// IsRateLimited reports whether err was caused by an HTTP 429
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

type authError struct {
	err error
}

func (e *authError) Error() string {
	return "garmin: authentication failed: " + e.err.Error()
}

func (e *authError) Unwrap() error {
	return e.err
}

func (e *authError) Is(target error) bool {
	return target == ErrAuthentication
}
