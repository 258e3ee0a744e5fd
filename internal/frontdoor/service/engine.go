package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

// AuthClient is the remote authentication API. *authsdk.SDKClient
// implements it.
type AuthClient interface {
	Login(ctx context.Context, email, password string) (*authsdk.TokenResponse, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*authsdk.TokenResponse, error)
}

var _ AuthClient = (*authsdk.SDKClient)(nil)

const (
	DefaultCheckInterval   = 15 * time.Second
	DefaultExpiryThreshold = 120 * time.Second
	DefaultHandoffParam    = "access_token"
)

// Engine holds what every flow shares: the API client, the allow-list and
// the timing knobs. It is safe for concurrent use. Per-tab pieces are built
// with For and NewWatchdog around a CredentialStore.
type Engine struct {
	Auth         AuthClient
	AllowList    domain.AllowList
	AppRoot      *url.URL
	HandoffParam string

	Skew      time.Duration
	Threshold time.Duration
	Interval  time.Duration

	Logger *slog.Logger
	Now    func() time.Time
}

// NewEngine fills unset fields with defaults.
func NewEngine(auth AuthClient, allow domain.AllowList, appRoot *url.URL, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		Auth:         auth,
		AllowList:    allow,
		AppRoot:      appRoot,
		HandoffParam: DefaultHandoffParam,
		Skew:         jwtx.DefaultSkew,
		Threshold:    DefaultExpiryThreshold,
		Interval:     DefaultCheckInterval,
		Logger:       logger,
		Now:          time.Now,
	}
}

func (e *Engine) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Flow bundles the per-tab services that share one CredentialStore.
type Flow struct {
	Gate         *RedirectGate
	Continuation *Continuation
	Login        *LoginService
	Guard        *Guard
}

// For builds the services for one tab's store.
func (e *Engine) For(st store.CredentialStore) *Flow {
	gate := &RedirectGate{
		store:   st,
		allow:   e.AllowList,
		appRoot: e.AppRoot,
		param:   e.HandoffParam,
		logger:  e.Logger,
	}
	return &Flow{
		Gate:         gate,
		Continuation: &Continuation{engine: e, store: st, gate: gate},
		Login:        &LoginService{engine: e, store: st, gate: gate},
		Guard:        &Guard{engine: e, store: st},
	}
}

// recordFromRefresh merges a refresh response into the current record. The
// refresh credential is kept when the server does not rotate it, token_type
// and expires_in only change when the response carries them.
func recordFromRefresh(prev domain.SessionRecord, resp *authsdk.TokenResponse) domain.SessionRecord {
	next := prev
	next.AccessToken = resp.AccessToken
	if resp.RefreshToken != "" {
		next.RefreshToken = resp.RefreshToken
	}
	if resp.TokenType != "" {
		next.TokenType = resp.TokenType
	}
	if resp.ExpiresIn > 0 {
		next.ExpiresIn = domain.FormatExpiresIn(int64(resp.ExpiresIn))
	}
	return next
}

// recordFromLogin builds a fresh record from a login response.
func recordFromLogin(resp *authsdk.TokenResponse) domain.SessionRecord {
	rec := domain.SessionRecord{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		TokenType:    resp.TokenType,
	}
	if resp.ExpiresIn > 0 {
		rec.ExpiresIn = domain.FormatExpiresIn(int64(resp.ExpiresIn))
	}
	return rec
}
