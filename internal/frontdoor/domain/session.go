package domain

import (
	"strconv"
	"strings"
)

// Storage keys. The durable keys survive a browser restart, the tab keys live
// only as long as the tab (or CLI process) that wrote them.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenType    = "token_type"
	KeyExpiresIn    = "expires_in"

	KeyExternalAccessToken = "external_access_token"
	KeyPendingRedirect     = "post_login_redirect_url"
	KeyContinuationState   = "continuation_state"
)

// DurableKeys and TabKeys list every key a logout must remove.
var (
	DurableKeys = []string{KeyAccessToken, KeyRefreshToken, KeyTokenType, KeyExpiresIn}
	TabKeys     = []string{KeyExternalAccessToken, KeyPendingRedirect, KeyContinuationState}
)

// SessionRecord is the unit of "being logged in". Only the credential store
// writes it, and only as a whole.
type SessionRecord struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	ExpiresIn    string // seconds, kept in its stored (string) form
}

// HasAccess reports whether an access credential is present.
func (r SessionRecord) HasAccess() bool { return strings.TrimSpace(r.AccessToken) != "" }

// HasRefresh reports whether a refresh credential is present. Refresh
// credentials are opaque, presence is all the front door can check.
func (r SessionRecord) HasRefresh() bool { return strings.TrimSpace(r.RefreshToken) != "" }

// IsZero reports whether nothing at all is stored.
func (r SessionRecord) IsZero() bool { return r == SessionRecord{} }

// FormatExpiresIn renders an expires_in value the way it is persisted.
func FormatExpiresIn(seconds int64) string {
	return strconv.FormatInt(seconds, 10)
}
