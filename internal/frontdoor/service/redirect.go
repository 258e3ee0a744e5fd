package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/cryptox"
)

// RedirectParam is the query parameter portals use to ask for a return trip.
const RedirectParam = "redirectUrl"

// RedirectGate validates return destinations against the portal allow-list.
// Handoff is the only place an outbound URL carrying a credential is built.
type RedirectGate struct {
	store   store.CredentialStore
	allow   domain.AllowList
	appRoot *url.URL
	param   string
	logger  *slog.Logger
}

// Capture reads redirectUrl from query and persists it as the pending
// destination if it is allowed. It returns the stored destination or "".
//
// A query without the parameter leaves any earlier pending destination in
// place. A present but rejected parameter discards it: the newest request
// wins, and a rejected one must not revive an older target.
func (g *RedirectGate) Capture(ctx context.Context, query url.Values) (string, error) {
	raw, ok := query[RedirectParam]
	if !ok || len(raw) == 0 || strings.TrimSpace(raw[0]) == "" {
		return "", nil
	}

	dest := raw[0]
	// Tolerate a double-encoded value. A decode failure keeps the raw text.
	if decoded, err := url.PathUnescape(dest); err == nil {
		dest = decoded
	}

	u, err := g.Authorize(dest)
	switch {
	case err == nil:
	case g.isHomeString(dest):
		g.logger.DebugContext(ctx, "redirect target is the app root, treating as no destination")
		return "", g.store.DiscardPending(ctx)
	default:
		g.logger.WarnContext(ctx, "dropping untrusted redirect target", "origin", originOf(dest))
		return "", g.store.DiscardPending(ctx)
	}

	normalized := u.String()
	if err := g.store.SavePending(ctx, normalized); err != nil {
		return "", err
	}
	g.logger.InfoContext(ctx, "captured pending destination", "origin", domain.Origin(u))
	return normalized, nil
}

// Authorize parses dest and checks it against the allow-list. It is called
// at every point of use, never cached from capture time.
func (g *RedirectGate) Authorize(dest string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil || !u.IsAbs() {
		return nil, ErrUntrustedDestination
	}
	if g.IsHome(u) {
		return nil, ErrUntrustedDestination
	}
	if !g.allow.Contains(domain.Origin(u)) {
		return nil, ErrUntrustedDestination
	}
	if u.Path == "" {
		u.Path = "/"
	}
	return u, nil
}

// Handoff returns dest with token attached under the handoff parameter. It
// re-runs Authorize, so no credential is ever attached to a destination
// outside the allow-list.
func (g *RedirectGate) Handoff(dest, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrSessionExpired
	}
	u, err := g.Authorize(dest)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set(g.handoffParam(), token)
	u.RawQuery = q.Encode()
	u.Fragment, u.RawFragment = "", ""
	return u.String(), nil
}

// Launch hands the stored access credential to dest. The record is written
// back first so the tab slot holds the token the portal receives, even when
// this tab never logged in itself.
func (g *RedirectGate) Launch(ctx context.Context, dest string) (string, error) {
	rec, err := g.store.Read(ctx)
	if err != nil {
		return "", err
	}
	if !rec.HasAccess() {
		return "", ErrNoSession
	}

	location, err := g.Handoff(dest, rec.AccessToken)
	if err != nil {
		return "", err
	}
	if err := g.store.Save(ctx, rec); err != nil {
		return "", err
	}
	g.logger.InfoContext(ctx, "handing off to portal",
		"origin", originOf(dest),
		"token", cryptox.Fingerprint(rec.AccessToken),
	)
	return location, nil
}

// IsHome reports whether u points at the front door itself.
func (g *RedirectGate) IsHome(u *url.URL) bool {
	if g.appRoot == nil || u == nil {
		return false
	}
	if domain.Origin(u) == "" || domain.Origin(u) != domain.Origin(g.appRoot) {
		return false
	}
	return strings.TrimSuffix(u.Path, "/") == strings.TrimSuffix(g.appRoot.Path, "/")
}

func (g *RedirectGate) isHomeString(dest string) bool {
	u, err := url.Parse(strings.TrimSpace(dest))
	return err == nil && g.IsHome(u)
}

func (g *RedirectGate) handoffParam() string {
	if g.param == "" {
		return DefaultHandoffParam
	}
	return g.param
}

// originOf is for log lines only.
func originOf(dest string) string {
	u, err := url.Parse(strings.TrimSpace(dest))
	if err != nil {
		return "unparseable"
	}
	if o := domain.Origin(u); o != "" {
		return o
	}
	return "invalid"
}
