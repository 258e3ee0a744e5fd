package http

import "github.com/aussiebroadwan/frontdoor/pkg/jwtx"

// EntryResponse describes the state of the entry page.
type EntryResponse struct {
	PendingDestination string `json:"pending_destination,omitempty" example:"https://campus.example.edu/courses"`
	ContinuationState  string `json:"continuation_state" example:"idle"`
	SignedIn           bool   `json:"signed_in"`
	Error              string `json:"error,omitempty" example:"session_expired"`
	Tab                string `json:"tab" example:"01JAFQ6XK3B5W2M8R0T4V7Y9ZC"`
}

// LoginForm is the body of POST /auth/login, as JSON or form fields.
type LoginForm struct {
	Email    string `json:"email" example:"ada@example.edu"`
	Password string `json:"password" example:"correct horse battery staple"`
}

// ContinuationResponse is returned when a login submit was replaced by the
// continue prompt.
type ContinuationResponse struct {
	ContinuationState  string `json:"continuation_state" example:"awaiting-confirmation"`
	PendingDestination string `json:"pending_destination" example:"https://campus.example.edu/courses"`
}

// Viewer is the signed-in user as read from the access token.
type Viewer struct {
	Name    string        `json:"name"`
	Email   string        `json:"email,omitempty"`
	Role    string        `json:"role"`
	SubRole string        `json:"sub_role,omitempty"`
	OrgUnit *jwtx.OrgUnit `json:"org_unit,omitempty"`
}

// PortalView is one dashboard card.
type PortalView struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	OpenURL string `json:"open_url"`
}

// HomeResponse is the dashboard.
type HomeResponse struct {
	Viewer  Viewer       `json:"viewer"`
	Portals []PortalView `json:"portals"`
}
