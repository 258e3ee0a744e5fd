package http_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	frontdoorhttp "github.com/aussiebroadwan/frontdoor/internal/frontdoor/http"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/httpx"
	"github.com/aussiebroadwan/frontdoor/pkg/idx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx/jwtxtest"
)

func TestEntryCapturesDestination(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	got := fd.entry(redirectQuery(campusOrigin + "/courses?id=7"))
	require.Equal(t, campusOrigin+"/courses?id=7", got.PendingDestination)
	require.Equal(t, "idle", got.ContinuationState)
	require.False(t, got.SignedIn)

	// Reloading without the parameter keeps it.
	got = fd.entry("")
	require.Equal(t, campusOrigin+"/courses?id=7", got.PendingDestination)

	// An untrusted destination is dropped without an error.
	got = fd.entry(redirectQuery("https://evil.example.com/steal"))
	require.Empty(t, got.PendingDestination)
	require.Empty(t, got.Error)
}

func TestEntryErrorCodes(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	require.Equal(t, "session_expired", fd.entry("?error=session_expired").Error)
	require.Empty(t, fd.entry("?error=<script>").Error)
}

func TestLoginToHome(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	access := jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(time.Hour))
	fd.api.issues(access)

	resp := fd.login()
	require.Equal(t, "/home", location(t, resp))

	session := setCookie(resp, frontdoorhttp.SessionCookie)
	require.NotNil(t, session)
	require.True(t, session.HttpOnly)
	require.Equal(t, int(time.Hour/time.Second), session.MaxAge)
	require.NotContains(t, session.Value, access, "cookie is sealed")

	require.NotEmpty(t, fd.tab)
	tab := setCookie(resp, frontdoorhttp.TabCookieName(idx.ID(fd.tab)))
	require.NotNil(t, tab)
	require.Zero(t, tab.MaxAge, "tab cookie lives for the browser session")

	home := fd.do(http.MethodGet, "/home", nil)
	require.Equal(t, http.StatusOK, home.StatusCode)
	body := decode[frontdoorhttp.HomeResponse](t, home)
	require.Equal(t, "Ada Lovelace", body.Viewer.Name)
	require.Equal(t, jwtx.RoleStudent, body.Viewer.Role)
	require.Len(t, body.Portals, 1, "grades is hidden from students")
	require.Equal(t, "campus", body.Portals[0].ID)
	require.Equal(t, "/portals/campus/open?tab="+fd.tab, body.Portals[0].OpenURL)
}

func TestLoginWithForm(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.api.issues(jwtxtest.Expiring(jwtx.RoleTeacher, time.Now().Add(time.Hour)))
	resp := fd.do(http.MethodPost, "/auth/login", url.Values{"email": {testEmail}, "password": {"pw"}})
	require.Equal(t, "/home", location(t, resp))
}

func TestLoginHandsOffToPortal(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.entry(redirectQuery(campusOrigin + "/courses"))

	access := jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(time.Hour))
	fd.api.issues(access)
	require.Equal(t, campusOrigin+"/courses?access_token="+access, location(t, fd.login()))

	got := fd.entry("")
	require.Empty(t, got.PendingDestination, "destination is consumed")
	require.True(t, got.SignedIn)
}

func TestLoginFailureKeepsSession(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.signIn()
	fd.api.rejects(http.StatusUnauthorized, `{"success":false,"message":"bad password"}`)

	resp := fd.login()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	body := decode[httpx.ErrorResponse](t, resp)
	require.Equal(t, "invalid_credentials", body.Error)
	require.Equal(t, "bad password", body.ErrorDescription)
	require.Nil(t, setCookie(resp, frontdoorhttp.SessionCookie), "session cookie untouched")

	require.Equal(t, http.StatusOK, fd.do(http.MethodGet, "/home", nil).StatusCode)
}

func TestLoginErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing credentials", func(t *testing.T) {
		fd := newFrontDoor(t)
		resp := fd.do(http.MethodPost, "/auth/login", frontdoorhttp.LoginForm{Email: testEmail})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("malformed body", func(t *testing.T) {
		fd := newFrontDoor(t)
		resp := fd.do(http.MethodPost, "/auth/login", "not an object")
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("upstream failure", func(t *testing.T) {
		fd := newFrontDoor(t)
		fd.api.rejects(http.StatusInternalServerError, `<html>down</html>`)
		resp := fd.login()
		require.Equal(t, http.StatusBadGateway, resp.StatusCode)
		require.Equal(t, authsdk.DefaultLoginMessage, decode[httpx.ErrorResponse](t, resp).ErrorDescription)
	})
}

func TestLoginRateLimited(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	fd.api.rejects(http.StatusUnauthorized, `{}`)

	var last *http.Response
	for range httpx.StrictLimit.Burst + 1 {
		last = fd.login()
	}
	require.Equal(t, http.StatusTooManyRequests, last.StatusCode)
}

func TestContinueIntoPortal(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	old := fd.signIn()
	fd.entry(redirectQuery(campusOrigin + "/courses"))

	resp := fd.login()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prompt := decode[frontdoorhttp.ContinuationResponse](t, resp)
	require.Equal(t, "awaiting-confirmation", prompt.ContinuationState)
	require.Equal(t, campusOrigin+"/courses", prompt.PendingDestination)
	require.Equal(t, "awaiting-confirmation", fd.entry("").ContinuationState)

	fresh := jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(2*time.Hour))
	fd.api.refreshes(refreshOK(t, fresh, &old))

	resp = fd.do(http.MethodPost, "/continue/confirm", nil)
	require.Equal(t, campusOrigin+"/courses?access_token="+fresh, location(t, resp))
	require.Equal(t, int32(1), fd.api.refreshCalls.Load())

	got := fd.entry("")
	require.Equal(t, "idle", got.ContinuationState)
	require.Empty(t, got.PendingDestination)
	require.True(t, got.SignedIn)
}

func TestContinueRefreshFailure(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.signIn()
	fd.entry(redirectQuery(campusOrigin + "/"))
	require.Equal(t, http.StatusOK, fd.login().StatusCode)

	fd.api.refreshes(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"success":false,"error":"refresh token revoked"}`))
	})

	resp := fd.do(http.MethodPost, "/continue/confirm", nil)
	require.Equal(t, "/?error=continuation_failed", location(t, resp))

	got := fd.entry("")
	require.False(t, got.SignedIn)
	require.Empty(t, got.PendingDestination)
	require.Equal(t, "idle", got.ContinuationState)
}

func TestConfirmWithoutPrompt(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.signIn()
	resp := fd.do(http.MethodPost, "/continue/confirm", nil)
	require.Equal(t, "/?error=continuation_failed", location(t, resp))
	require.Zero(t, fd.api.refreshCalls.Load())
	require.False(t, fd.entry("").SignedIn)
}

func TestContinueCancel(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.signIn()
	fd.entry(redirectQuery(campusOrigin + "/"))
	require.Equal(t, http.StatusOK, fd.login().StatusCode)

	resp := fd.do(http.MethodPost, "/continue/cancel", nil)
	require.Equal(t, "/", location(t, resp))
	require.Equal(t, -1, setCookie(resp, frontdoorhttp.SessionCookie).MaxAge)

	require.Equal(t, "/", location(t, fd.do(http.MethodGet, "/home", nil)))
	got := fd.entry("")
	require.False(t, got.SignedIn)
	require.Empty(t, got.PendingDestination)
}

func TestTabsKeepOwnState(t *testing.T) {
	t.Parallel()
	first := newFrontDoor(t)

	first.signIn()
	first.entry(redirectQuery(campusOrigin + "/courses"))
	require.Equal(t, http.StatusOK, first.login().StatusCode)
	require.Equal(t, "awaiting-confirmation", first.entry("").ContinuationState)

	// A second tab of the same browser shares the session cookie only.
	second := first.newTab()
	entry := second.entry("")
	require.True(t, entry.SignedIn)
	require.Empty(t, entry.PendingDestination)
	require.Equal(t, "idle", entry.ContinuationState)
	require.NotEmpty(t, entry.Tab)
	require.NotEqual(t, first.tab, entry.Tab)

	// Logging in there goes home rather than answering the first tab's prompt.
	require.Equal(t, "/home", location(t, second.login()))

	got := first.entry("")
	require.Equal(t, campusOrigin+"/courses", got.PendingDestination)
	require.Equal(t, "awaiting-confirmation", got.ContinuationState)
}

func TestTabFromQuery(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	tab := fd.entry(redirectQuery(campusOrigin + "/courses")).Tab
	require.Equal(t, tab, fd.tab)

	same := fd.newTab()
	got := same.entry("?" + url.Values{frontdoorhttp.TabParam: {tab}}.Encode())
	require.Equal(t, tab, got.Tab)
	require.Equal(t, campusOrigin+"/courses", got.PendingDestination)

	other := fd.newTab()
	got = other.entry("?tab=not-a-tab")
	require.NotEqual(t, "not-a-tab", got.Tab)
	require.NotEqual(t, tab, got.Tab)
	require.Empty(t, got.PendingDestination)
}

func TestHomeGuard(t *testing.T) {
	t.Parallel()

	t.Run("signed out", func(t *testing.T) {
		fd := newFrontDoor(t)
		require.Equal(t, "/", location(t, fd.do(http.MethodGet, "/home", nil)))
	})

	t.Run("expired", func(t *testing.T) {
		fd := newFrontDoor(t)
		fd.api.issues(jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(10*time.Second)))
		require.Equal(t, "/home", location(t, fd.login()))

		resp := fd.do(http.MethodGet, "/home", nil)
		require.Equal(t, "/?error=session_expired", location(t, resp))
		require.False(t, fd.entry("").SignedIn)
	})

	t.Run("no role", func(t *testing.T) {
		fd := newFrontDoor(t)
		fd.api.issues(jwtxtest.Token(map[string]any{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()}))
		fd.login()
		require.Equal(t, "/", location(t, fd.do(http.MethodGet, "/home", nil)))
	})
}

func TestOpenPortal(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	access := fd.signIn()

	resp := fd.do(http.MethodGet, "/portals/campus/open", nil)
	require.Equal(t, campusOrigin+"/?access_token="+access, location(t, resp))

	require.Equal(t, http.StatusNotFound, fd.do(http.MethodGet, "/portals/grades/open", nil).StatusCode)
	require.Equal(t, http.StatusNotFound, fd.do(http.MethodGet, "/portals/nope/open", nil).StatusCode)
}

func TestSessionStatusAndRenew(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	resp := fd.do(http.MethodGet, "/session/status", nil)
	require.Equal(t, service.StatusNotMonitoring, decode[service.Report](t, resp).Status)

	old := fd.signIn()
	resp = fd.do(http.MethodGet, "/session/status", nil)
	report := decode[service.Report](t, resp)
	require.Equal(t, service.StatusHealthy, report.Status)
	require.Greater(t, report.SecondsLeft, 3000)

	fd.api.refreshes(refreshOK(t, jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(2*time.Hour)), &old))
	resp = fd.do(http.MethodPost, "/session/renew", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report = decode[service.Report](t, resp)
	require.Equal(t, service.StatusHealthy, report.Status)
	require.Greater(t, report.SecondsLeft, 7000)
}

func TestRenewFailureEndsSession(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	resp := fd.do(http.MethodPost, "/session/renew", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "no_session", decode[httpx.ErrorResponse](t, resp).Error)

	fd.signIn()
	fd.api.refreshes(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	resp = fd.do(http.MethodPost, "/session/renew", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, "session_expired", decode[httpx.ErrorResponse](t, resp).Error)
	require.False(t, fd.entry("").SignedIn)
}

func TestStatusClearsExpiredSession(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	fd.api.issues(jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(-time.Second)))
	fd.login()

	resp := fd.do(http.MethodGet, "/session/status", nil)
	require.Equal(t, service.StatusExpired, decode[service.Report](t, resp).Status)
	require.False(t, fd.entry("").SignedIn)
}

func TestLogout(t *testing.T) {
	t.Parallel()

	for _, method := range []string{http.MethodGet, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			fd := newFrontDoor(t)
			fd.signIn()

			require.Equal(t, "/", location(t, fd.do(method, "/logout", nil)))
			require.False(t, fd.entry("").SignedIn)
		})
	}
}

func TestTamperedCookieReadsAsSignedOut(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)
	fd.signIn()

	u, err := url.Parse(fd.srv.URL)
	require.NoError(t, err)
	fd.client.Jar.SetCookies(u, []*http.Cookie{{Name: frontdoorhttp.SessionCookie, Value: "dGFtcGVyZWQ", Path: "/"}})

	require.False(t, fd.entry("").SignedIn)
	require.Equal(t, "/", location(t, fd.do(http.MethodGet, "/home", nil)))
}

func TestLivezAndHeaders(t *testing.T) {
	t.Parallel()
	fd := newFrontDoor(t)

	resp := fd.do(http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decode[authsdk.HealthResponse](t, resp).Status)
	require.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	require.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
