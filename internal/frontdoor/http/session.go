package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// SessionHandler exposes the expiry watchdog to the dashboard.
type SessionHandler struct {
	sessions *sessions
}

func (h *SessionHandler) watchdog(w http.ResponseWriter, r *http.Request) *service.Watchdog {
	st, _ := h.sessions.jar.Open(w, r)
	return h.sessions.engine.NewWatchdog(st, service.WatchdogHooks{
		OnLogout: func(ctx context.Context, reason error) {
			slogx.FromContext(ctx).Info("session ended by watchdog", "reason", reason)
		},
	})
}

// HandleStatus runs one expiry check.
//
//	@Summary		Session status
//	@Description	Decodes the stored access token and reports not-monitoring, healthy, near-expiry or expired.
//	@Description	An expired or malformed token clears the session.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	service.Report	"status and seconds left"
//	@Router			/session/status [get]
func (h *SessionHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	report, err := h.watchdog(w, r).Check(r.Context())
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, report)
}

// HandleRenew exchanges the refresh token for a new access token.
//
//	@Summary		Renew the session
//	@Description	Any failure clears the session.
//	@Tags			Session
//	@Produce		json
//	@Success		200	{object}	service.Report		"renewed session status"
//	@Failure		401	{object}	httpx.ErrorResponse	"No session, or the session could not be renewed"
//	@Router			/session/renew [post]
func (h *SessionHandler) HandleRenew(w http.ResponseWriter, r *http.Request) {
	report, err := h.watchdog(w, r).Renew(r.Context())
	switch {
	case err == nil:
		httpx.WriteJSON(w, http.StatusOK, report)
	case errors.Is(err, service.ErrNoSession):
		httpx.WriteError(w, http.StatusUnauthorized, codeNoSession, "no session to renew")
	case report.Status == service.StatusExpired:
		httpx.WriteError(w, http.StatusUnauthorized, codeSessionExpired, "the session could not be renewed, please log in again")
	default:
		slogx.FromContext(r.Context()).Error("renewal failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to renew session")
	}
}

// HandleLogout clears the session.
//
//	@Summary		Log out
//	@Description	Removes every session key from both cookies.
//	@Tags			Session
//	@Success		303	{string}	string	"Entry point"
//	@Router			/logout [get]
//	@Router			/logout [post]
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	flow, _, _ := h.sessions.open(w, r)
	if err := flow.Guard.Logout(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Error("failed to clear session", "error", err)
	}
	httpx.SeeOther(w, r, entryPath)
}
