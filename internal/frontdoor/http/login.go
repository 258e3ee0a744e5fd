package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

const maxLoginBody = 16 << 10

// LoginHandler handles credential submits.
type LoginHandler struct {
	sessions *sessions
}

// ServeHTTP runs the continuation check and falls back to a normal login.
//
//	@Summary		Log in
//	@Description	If a portal destination is pending and the stored session can still be refreshed, the submit is
//	@Description	replaced by a continue prompt (200). Otherwise the credentials are checked against the authentication API.
//	@Description	On success the browser is sent to the pending portal with the access token attached, or to /home.
//	@Description	A failed login leaves any stored session untouched.
//	@Tags			Login
//	@Accept			json,x-www-form-urlencoded
//	@Produce		json
//	@Param			body	body		LoginForm				true	"Credentials"
//	@Success		200		{object}	ContinuationResponse	"Continue prompt instead of a login"
//	@Success		303		{string}	string					"Portal handoff or /home"
//	@Failure		400		{object}	httpx.ErrorResponse		"Missing credentials"
//	@Failure		401		{object}	httpx.ErrorResponse		"Rejected credentials"
//	@Failure		429		{object}	httpx.ErrorResponse		"Too many attempts"
//	@Failure		502		{object}	httpx.ErrorResponse		"Authentication API unavailable"
//	@Router			/auth/login [post]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := slogx.FromContext(ctx)

	form, err := readLoginForm(r)
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, codeInvalidRequest, "malformed login body")
		return
	}

	flow, st, _ := h.sessions.open(w, r)

	intercepted, err := flow.Continuation.InterceptSubmit(ctx)
	if err != nil {
		logger.Error("continuation check failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, codeServerError, "failed to read session")
		return
	}
	if intercepted {
		pending, _ := st.Pending(ctx)
		httpx.WriteJSON(w, http.StatusOK, ContinuationResponse{
			ContinuationState:  string(domain.ContinuationAwaitingConfirmation),
			PendingDestination: pending,
		})
		return
	}

	out := flow.Login.Submit(ctx, form.Email, form.Password)
	if out.Err != nil {
		writeAPIError(w, r, out.Err)
		return
	}
	navigate(w, r, out, "")
}

func readLoginForm(r *http.Request) (LoginForm, error) {
	var form LoginForm
	if httpx.IsJSON(r) {
		err := json.NewDecoder(io.LimitReader(r.Body, maxLoginBody)).Decode(&form)
		return form, err
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxLoginBody)
	if err := r.ParseForm(); err != nil {
		return form, err
	}
	form.Email = strings.TrimSpace(r.PostForm.Get("email"))
	form.Password = r.PostForm.Get("password")
	return form, nil
}
