package authsdk

import (
	"bytes"
	"strconv"
)

// ============================================================================
// Request Types
// ============================================================================

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ============================================================================
// Response Types
// ============================================================================

// TokenResponse is the envelope returned by both /auth/login and
// /auth/refresh. Failure responses reuse the same shape with Success false and
// Message or Error set.
type TokenResponse struct {
	Success bool `json:"success"`

	// AccessToken is the bearer JWT forwarded to the portals
	AccessToken string `json:"access_token,omitempty"`

	// RefreshToken is opaque. A refresh response may omit it, in which case
	// the caller keeps the one it already has.
	RefreshToken string `json:"refresh_token,omitempty"`

	TokenType string  `json:"token_type,omitempty"`
	ExpiresIn Seconds `json:"expires_in,omitempty"`

	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Seconds is a lifetime in seconds. The API sends it as a number, some
// deployments send a numeric string. Anything else decodes as zero rather than
// failing the whole envelope.
type Seconds int64

func (s *Seconds) UnmarshalJSON(b []byte) error {
	f, err := strconv.ParseFloat(string(bytes.Trim(bytes.TrimSpace(b), `"`)), 64)
	if err != nil {
		*s = 0
		return nil
	}
	*s = Seconds(f)
	return nil
}

// HealthResponse is returned by the front door's own /livez endpoint.
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`
}
