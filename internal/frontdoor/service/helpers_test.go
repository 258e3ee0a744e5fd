package service_test

import (
	"context"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store/drivers/memory"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

const (
	portalOrigin = "https://portal.example.edu"
	lmsOrigin    = "https://lms.example.edu:8443"
	appRoot      = "https://sso.example.edu/"
)

// fakeAuth is a scripted AuthClient. When hold is set, Refresh blocks until
// it is closed.
type fakeAuth struct {
	mu          sync.Mutex
	loginResp   *authsdk.TokenResponse
	loginErr    error
	refreshResp *authsdk.TokenResponse
	refreshErr  error

	hold    chan struct{}
	started chan struct{}

	loginCalls   atomic.Int32
	refreshCalls atomic.Int32
	lastRefresh  [2]string
}

func (f *fakeAuth) Login(_ context.Context, email, password string) (*authsdk.TokenResponse, error) {
	f.loginCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loginResp, f.loginErr
}

func (f *fakeAuth) Refresh(_ context.Context, access, refresh string) (*authsdk.TokenResponse, error) {
	f.refreshCalls.Add(1)
	f.mu.Lock()
	f.lastRefresh = [2]string{access, refresh}
	hold, started := f.hold, f.started
	f.started = nil
	f.mu.Unlock()

	if started != nil {
		close(started)
	}
	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshResp, f.refreshErr
}

type harness struct {
	now     time.Time
	auth    *fakeAuth
	engine  *service.Engine
	durable *memory.Bucket
	tab     *memory.Bucket
	store   *store.KV
	flow    *service.Flow
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	root, err := url.Parse(appRoot)
	require.NoError(t, err)

	h := &harness{
		now:     time.Unix(1_800_000_000, 0),
		auth:    &fakeAuth{},
		durable: memory.New(),
		tab:     memory.New(),
	}
	h.engine = service.NewEngine(h.auth, domain.NewAllowList(portalOrigin, lmsOrigin), root, slogx.Discard())
	h.engine.Now = func() time.Time { return h.now }
	h.store = store.NewKV(h.durable, h.tab)
	h.flow = h.engine.For(h.store)
	return h
}

// token returns an access token expiring d from the harness clock.
func (h *harness) token(d time.Duration) string {
	return jwtxtest.Expiring(jwtx.RoleStudent, h.now.Add(d))
}

func (h *harness) signIn(t *testing.T, access, refresh string) {
	t.Helper()
	require.NoError(t, h.store.Save(context.Background(), domain.SessionRecord{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    "3600",
	}))
}

func (h *harness) record(t *testing.T) domain.SessionRecord {
	t.Helper()
	rec, err := h.store.Read(context.Background())
	require.NoError(t, err)
	return rec
}

func (h *harness) requireCleared(t *testing.T) {
	t.Helper()
	require.Zero(t, h.durable.Len(), "durable keys left: %v", h.durable.Snapshot())
	require.Zero(t, h.tab.Len(), "tab keys left: %v", h.tab.Snapshot())
}

func refreshed(access string) *authsdk.TokenResponse {
	return &authsdk.TokenResponse{Success: true, AccessToken: access}
}
