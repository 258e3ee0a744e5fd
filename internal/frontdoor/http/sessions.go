package http

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/idx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// Paths the front door navigates to.
const (
	entryPath = "/"
	homePath  = "/home"
)

// Error codes carried on the entry redirect and in JSON error bodies.
const (
	codeInvalidRequest      = "invalid_request"
	codeInvalidCredentials  = "invalid_credentials"
	codeUpstreamUnavailable = "upstream_unavailable"
	codeContinuationFailed  = "continuation_failed"
	codeSessionExpired      = "session_expired"
	codeNoSession           = "no_session"
	codeConflict            = "conflict"
	codeNotFound            = "not_found"
	codeServerError         = "server_error"
)

// sessions builds the per-request flows over the cookie jar.
type sessions struct {
	engine *service.Engine
	jar    *CookieJar
}

func (s *sessions) open(w http.ResponseWriter, r *http.Request) (*service.Flow, store.CredentialStore, idx.ID) {
	st, tab := s.jar.Open(w, r)
	return s.engine.For(st), st, tab
}

// navigate answers a flow outcome with 303 See Other. A failed outcome sends
// the user to the entry point with an error code.
func navigate(w http.ResponseWriter, r *http.Request, out service.Outcome, errCode string) {
	switch out.Route {
	case service.RouteExternal:
		httpx.SeeOther(w, r, out.Location)
	case service.RouteHome:
		httpx.SeeOther(w, r, homePath)
	default:
		if out.Err != nil && errCode != "" {
			httpx.SeeOther(w, r, entryPath+"?"+url.Values{"error": {errCode}}.Encode())
			return
		}
		httpx.SeeOther(w, r, entryPath)
	}
}

// writeAPIError maps a remote API failure onto a JSON error.
func writeAPIError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *authsdk.APIError
	switch {
	case errors.Is(err, authsdk.ErrMissingCredentials):
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidRequest, "email and password are required")
	case errors.As(err, &apiErr) && apiErr.IsUnauthorized():
		httpx.WriteError(w, http.StatusUnauthorized, codeInvalidCredentials, apiErr.Message)
	case errors.Is(err, authsdk.ErrMissingAccessToken):
		httpx.WriteError(w, http.StatusBadGateway, codeUpstreamUnavailable, "the authentication service sent no access token")
	case errors.As(err, &apiErr):
		httpx.WriteError(w, http.StatusBadGateway, codeUpstreamUnavailable, apiErr.Message)
	default:
		slogx.FromContext(r.Context()).Error("authentication API unreachable", "error", err)
		httpx.WriteError(w, http.StatusBadGateway, codeUpstreamUnavailable, "the authentication service is unavailable, please try again")
	}
}
