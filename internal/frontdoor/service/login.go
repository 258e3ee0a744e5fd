package service

import (
	"context"
	"strings"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/cryptox"
)

// LoginService performs the normal credential login.
type LoginService struct {
	engine *Engine
	store  store.CredentialStore
	gate   *RedirectGate
}

// Submit exchanges email and password for a session. On success the user is
// handed off to the pending destination if there is an allowed one, or sent
// home. A failed login leaves whatever is stored untouched.
func (s *LoginService) Submit(ctx context.Context, email, password string) Outcome {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Outcome{Route: RouteEntry, Err: authsdk.ErrMissingCredentials}
	}

	resp, err := s.engine.Auth.Login(ctx, email, password)
	if err != nil {
		s.engine.Logger.InfoContext(ctx, "login rejected", "error", err)
		return Outcome{Route: RouteEntry, Err: err}
	}

	rec := recordFromLogin(resp)
	if err := s.store.Save(ctx, rec); err != nil {
		return Outcome{Route: RouteEntry, Err: err}
	}
	s.engine.Logger.InfoContext(ctx, "login succeeded", "token", cryptox.Fingerprint(rec.AccessToken))

	dest, err := s.store.Pending(ctx)
	if err != nil {
		s.engine.Logger.WarnContext(ctx, "failed to read pending destination", "error", err)
		return Outcome{Route: RouteHome}
	}
	if dest == "" {
		return Outcome{Route: RouteHome}
	}

	location, err := s.gate.Handoff(dest, rec.AccessToken)
	if discardErr := s.store.DiscardPending(ctx); discardErr != nil {
		s.engine.Logger.WarnContext(ctx, "failed to discard pending destination", "error", discardErr)
	}
	if err != nil {
		s.engine.Logger.WarnContext(ctx, "pending destination no longer allowed", "origin", originOf(dest))
		return Outcome{Route: RouteHome}
	}
	return Outcome{Route: RouteExternal, Location: location}
}
