package service

import (
	"context"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

// Guard protects the dashboard. Anything it rejects goes to the entry point.
type Guard struct {
	engine *Engine
	store  store.CredentialStore
}

// Check returns the claims of a usable session. An expired or malformed
// credential is cleared before ErrSessionExpired is returned.
func (g *Guard) Check(ctx context.Context) (*jwtx.Claims, error) {
	rec, err := g.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	if !rec.HasAccess() {
		return nil, ErrNoSession
	}

	claims, err := jwtx.Validate(rec.AccessToken, g.engine.Skew, g.engine.now())
	if err != nil {
		if clearErr := g.store.Clear(ctx); clearErr != nil {
			g.engine.Logger.ErrorContext(ctx, "failed to clear session", "error", clearErr)
		}
		return nil, ErrSessionExpired
	}
	if claims.ResolvedRole() == "" {
		return nil, ErrNoRole
	}
	return claims, nil
}

// Logout removes every session key.
func (g *Guard) Logout(ctx context.Context) error {
	return g.store.Clear(ctx)
}
