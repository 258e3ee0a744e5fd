package authsdk

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// DefaultLoginMessage is shown when a failed login response carries no
// message of its own.
const DefaultLoginMessage = "authentication failed, please verify your credentials"

var (
	// ErrMissingAccessToken is returned when the API reports success but
	// sends no usable access token.
	ErrMissingAccessToken = errors.New("authsdk: response did not include an access token")

	// ErrMissingCredentials is returned by Refresh when called without both
	// credentials.
	ErrMissingCredentials = errors.New("authsdk: access and refresh tokens are required")
)

// APIError is a failure reported by the authentication API, either through a
// non-2xx status or through success=false in the envelope.
type APIError struct {
	// StatusCode is the HTTP status of the response
	StatusCode int

	// Message is the user-facing description, never empty
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("authsdk: HTTP %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether the API rejected the credentials themselves.
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// ============================================================================
// Error Parsing Helpers
// ============================================================================

// parseErrorResponse turns a decoded envelope into an error. It returns nil
// when the response is a success. fallback is used when the envelope names no
// message.
func parseErrorResponse(resp *http.Response, env *TokenResponse, fallback string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && env.Success {
		return nil
	}

	msg := strings.TrimSpace(env.Message)
	if msg == "" {
		msg = strings.TrimSpace(env.Error)
	}
	if msg == "" {
		msg = fallback
	}

	return &APIError{StatusCode: resp.StatusCode, Message: msg}
}
