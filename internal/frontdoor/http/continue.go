package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// ContinueHandler answers the continue prompt.
type ContinueHandler struct {
	sessions *sessions
}

// HandleConfirm refreshes the session and hands off to the pending portal.
//
//	@Summary		Continue into the portal
//	@Description	Spends the stored refresh token and sends the browser to the pending portal with the new access token.
//	@Description	Any failure clears the session and sends the browser to the entry point with error=continuation_failed.
//	@Tags			Continuation
//	@Produce		json
//	@Success		303	{string}	string				"Portal handoff, or entry point on failure"
//	@Failure		409	{object}	httpx.ErrorResponse	"A confirm is already in progress"
//	@Router			/continue/confirm [post]
func (h *ContinueHandler) HandleConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, _, _ := h.sessions.open(w, r)

	out := flow.Continuation.Confirm(ctx)
	switch {
	case ctx.Err() != nil:
		return
	case out.State == domain.ContinuationRefreshing && errors.Is(out.Err, service.ErrInvalidTransition):
		httpx.WriteError(w, http.StatusConflict, codeConflict, "a continuation is already in progress")
		return
	case out.Err != nil:
		slogx.FromContext(ctx).Warn("continuation failed", "error", out.Err)
	}
	navigate(w, r, out, codeContinuationFailed)
}

// HandleCancel declines the prompt.
//
//	@Summary		Decline the continue prompt
//	@Description	Clears the session and the pending destination. The browser returns to the entry point.
//	@Tags			Continuation
//	@Success		303	{string}	string	"Entry point"
//	@Router			/continue/cancel [post]
func (h *ContinueHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	flow, _, _ := h.sessions.open(w, r)

	out := flow.Continuation.Cancel(r.Context())
	if out.Err != nil {
		slogx.FromContext(r.Context()).Error("failed to cancel continuation", "error", out.Err)
	}
	navigate(w, r, out, "")
}
