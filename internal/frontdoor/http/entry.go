package http

import (
	"net/http"

	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
)

// EntryHandler serves the unauthenticated entry point.
type EntryHandler struct {
	sessions *sessions
}

// entryErrors are the codes the entry page repeats back. Anything else in
// the query is ignored.
var entryErrors = map[string]bool{
	codeContinuationFailed: true,
	codeSessionExpired:     true,
}

// ServeHTTP captures the redirectUrl parameter and reports the entry state
// of the calling tab.
//
//	@Summary		Entry point
//	@Description	Captures redirectUrl when its origin is an allowed portal. Untrusted destinations are dropped silently.
//	@Description	A destination equal to the front door's own root counts as no destination.
//	@Description	The destination and continuation state belong to the tab named by X-Frontdoor-Tab or the tab query
//	@Description	parameter. A request naming no tab starts a new one and the response carries its id.
//	@Tags			Login
//	@Produce		json
//	@Param			redirectUrl	query		string			false	"Portal to return to after login"	example(https://campus.example.edu/courses)
//	@Param			tab			query		string			false	"Tab id from an earlier response"
//	@Success		200			{object}	EntryResponse	"pending destination and continuation state"
//	@Router			/ [get]
func (h *EntryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	flow, st, tab := h.sessions.open(w, r)

	if _, err := flow.Gate.Capture(ctx, r.URL.Query()); err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to store destination")
		return
	}

	pending, err := st.Pending(ctx)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
		return
	}
	state, err := flow.Continuation.State(ctx)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
		return
	}
	rec, err := st.Read(ctx)
	if err != nil {
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
		return
	}

	resp := EntryResponse{
		PendingDestination: pending,
		ContinuationState:  string(state),
		SignedIn:           rec.HasAccess(),
		Tab:                tab.String(),
	}
	if code := r.URL.Query().Get("error"); entryErrors[code] {
		resp.Error = code
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
