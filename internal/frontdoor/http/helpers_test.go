package http_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	frontdoorhttp "github.com/aussiebroadwan/frontdoor/internal/frontdoor/http"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx/jwtxtest"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

const (
	campusOrigin = "https://campus.example.edu"
	gradesOrigin = "https://grades.example.edu"
	testEmail    = "ada@example.edu"
)

var testPortals = []domain.Portal{
	{ID: "campus", Title: "Campus", URL: campusOrigin + "/"},
	{ID: "grades", Title: "Grades", URL: gradesOrigin + "/", HiddenFor: []string{jwtx.RoleStudent}},
}

// authAPI stands in for the federation's authentication API.
type authAPI struct {
	mu          sync.Mutex
	loginStatus int
	loginBody   string
	refreshFn   func(w http.ResponseWriter, r *http.Request)

	refreshCalls atomic.Int32
}

func (a *authAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch r.URL.Path {
	case "/auth/login":
		w.WriteHeader(a.loginStatus)
		_, _ = w.Write([]byte(a.loginBody))
	case "/auth/refresh":
		a.refreshCalls.Add(1)
		a.refreshFn(w, r)
	default:
		http.NotFound(w, r)
	}
}

// issues makes the next login succeed with access.
func (a *authAPI) issues(access string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginStatus = http.StatusOK
	a.loginBody = fmt.Sprintf(`{"success":true,"access_token":%q,"refresh_token":"refresh-1","token_type":"Bearer","expires_in":3600}`, access)
}

func (a *authAPI) rejects(status int, body string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loginStatus = status
	a.loginBody = body
}

func (a *authAPI) refreshes(fn func(w http.ResponseWriter, r *http.Request)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.refreshFn = fn
}

// frontDoor is one browser tab on a test server. The tab id is taken from
// the first response and sent on every later request.
type frontDoor struct {
	t      *testing.T
	api    *authAPI
	srv    *httptest.Server
	client *http.Client
	tab    string
}

func newFrontDoor(t *testing.T) *frontDoor {
	t.Helper()

	api := &authAPI{}
	apiSrv := httptest.NewServer(api)
	t.Cleanup(apiSrv.Close)

	root, err := url.Parse("https://sso.example.edu/")
	require.NoError(t, err)

	engine := service.NewEngine(authsdk.NewSDKClient(apiSrv.URL), domain.NewAllowList(campusOrigin, gradesOrigin), root, slogx.Discard())
	jar, err := frontdoorhttp.NewCookieJar(bytes.Repeat([]byte("k"), 32), false, time.Hour)
	require.NoError(t, err)

	router := frontdoorhttp.NewRouter(engine, jar, testPortals, "test", slogx.Discard())
	router.ApplyRoutes()
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	cookies, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &frontDoor{
		t:   t,
		api: api,
		srv: srv,
		client: &http.Client{
			Jar: cookies,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (fd *frontDoor) do(method, path string, body any) *http.Response {
	fd.t.Helper()

	var (
		rdr         *bytes.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case url.Values:
		rdr = bytes.NewReader([]byte(b.Encode()))
		contentType = "application/x-www-form-urlencoded"
	default:
		raw, err := json.Marshal(b)
		require.NoError(fd.t, err)
		rdr = bytes.NewReader(raw)
		contentType = "application/json"
	}

	req, err := http.NewRequest(method, fd.srv.URL+path, rdr)
	require.NoError(fd.t, err)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if fd.tab != "" {
		req.Header.Set(frontdoorhttp.TabHeader, fd.tab)
	}

	resp, err := fd.client.Do(req)
	require.NoError(fd.t, err)
	fd.t.Cleanup(func() { _ = resp.Body.Close() })
	if fd.tab == "" {
		fd.tab = resp.Header.Get(frontdoorhttp.TabHeader)
	}
	return resp
}

// newTab opens another tab in the same browser. It shares the cookie jar
// and starts without a tab id.
func (fd *frontDoor) newTab() *frontDoor {
	return &frontDoor{t: fd.t, api: fd.api, srv: fd.srv, client: fd.client}
}

func (fd *frontDoor) login() *http.Response {
	fd.t.Helper()
	return fd.do(http.MethodPost, "/auth/login", frontdoorhttp.LoginForm{Email: testEmail, Password: "pw"})
}

// signIn logs in with a student token valid for an hour and returns it.
func (fd *frontDoor) signIn() string {
	fd.t.Helper()
	access := jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(time.Hour))
	fd.api.issues(access)
	resp := fd.login()
	require.Equal(fd.t, http.StatusSeeOther, resp.StatusCode)
	return access
}

func (fd *frontDoor) entry(query string) frontdoorhttp.EntryResponse {
	fd.t.Helper()
	resp := fd.do(http.MethodGet, "/"+query, nil)
	require.Equal(fd.t, http.StatusOK, resp.StatusCode)
	return decode[frontdoorhttp.EntryResponse](fd.t, resp)
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func redirectQuery(dest string) string {
	return "?" + url.Values{service.RedirectParam: {dest}}.Encode()
}

func setCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func refreshOK(t *testing.T, access string, expectOld *string) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		if expectOld != nil {
			require.Equal(t, "Bearer "+*expectOld, r.Header.Get("Authorization"))
		}
		require.Equal(t, "refresh-1", r.Header.Get(authsdk.DefaultRefreshHeader))
		_, _ = fmt.Fprintf(w, `{"success":true,"access_token":%q}`, access)
	}
}

func location(t *testing.T, resp *http.Response) string {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	return strings.TrimSpace(resp.Header.Get("Location"))
}
