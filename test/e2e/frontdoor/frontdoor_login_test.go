package frontdoor_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	frontdoorhttp "github.com/aussiebroadwan/frontdoor/internal/frontdoor/http"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx/jwtxtest"
)

func studentToken(d time.Duration) string {
	return jwtxtest.Expiring(jwtx.RoleStudent, time.Now().Add(d))
}

// handedToken returns the access token carried by a portal handoff URL.
func handedToken(t *testing.T, loc string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(loc, storeOrigin), "handoff goes to the portal, got %s", loc)
	u, err := url.Parse(loc)
	require.NoError(t, err)
	return u.Query().Get(service.DefaultHandoffParam)
}

// TestLoginToDashboard signs in without a destination and reads the dashboard.
func TestLoginToDashboard(t *testing.T) {
	fd := setupFrontDoor(t)
	fd.api.issues(studentToken(time.Hour), "")

	require.Equal(t, "/home", location(t, fd.login(testPassword)))

	home := fd.get("/home")
	require.Equal(t, http.StatusOK, home.StatusCode)
	body := decode[frontdoorhttp.HomeResponse](t, home)
	require.Equal(t, jwtx.RoleStudent, body.Viewer.Role)

	ids := make([]string, 0, len(body.Portals))
	for _, p := range body.Portals {
		ids = append(ids, p.ID)
	}
	require.ElementsMatch(t, []string{"alumnos", "tienda", "comedor", "biblioteca", "eventos"}, ids)

	status := fd.get("/session/status")
	require.Equal(t, http.StatusOK, status.StatusCode)
	report := decode[service.Report](t, status)
	require.Equal(t, service.StatusHealthy, report.Status)
}

// TestLoginRejected verifies a failed login reports the API's message and
// stores nothing.
func TestLoginRejected(t *testing.T) {
	fd := setupFrontDoor(t)

	resp := fd.login("wrong")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	entry := decode[frontdoorhttp.EntryResponse](t, fd.get("/"))
	require.False(t, entry.SignedIn)
}

// TestLoginHandsOffToPortal follows a portal's redirect through the login.
func TestLoginHandsOffToPortal(t *testing.T) {
	fd := setupFrontDoor(t)
	access := studentToken(time.Hour)
	fd.api.issues(access, "")

	entry := decode[frontdoorhttp.EntryResponse](t, fd.enter(storeOrigin+"/cart"))
	require.Equal(t, storeOrigin+"/cart", entry.PendingDestination)

	require.Equal(t, access, handedToken(t, location(t, fd.login(testPassword))))

	// The destination is spent.
	entry = decode[frontdoorhttp.EntryResponse](t, fd.get("/"))
	require.Empty(t, entry.PendingDestination)
}

// TestUntrustedRedirectIgnored verifies a foreign destination never receives
// the credential.
func TestUntrustedRedirectIgnored(t *testing.T) {
	fd := setupFrontDoor(t)
	fd.api.issues(studentToken(time.Hour), "")

	entry := decode[frontdoorhttp.EntryResponse](t, fd.enter("https://evil.example.com/steal"))
	require.Empty(t, entry.PendingDestination)

	require.Equal(t, "/home", location(t, fd.login(testPassword)))
}

// TestContinuationConfirm verifies a signed-in user arriving from a portal is
// offered to continue and is handed a refreshed credential.
func TestContinuationConfirm(t *testing.T) {
	fd := setupFrontDoor(t)
	fd.api.issues(studentToken(time.Hour), "")
	require.Equal(t, "/home", location(t, fd.login(testPassword)))

	fresh := studentToken(2 * time.Hour)
	fd.api.issues("", fresh)
	fd.enter(storeOrigin + "/")

	resp := fd.login(testPassword)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	prompt := decode[frontdoorhttp.ContinuationResponse](t, resp)
	require.Equal(t, "awaiting-confirmation", prompt.ContinuationState)
	require.Equal(t, storeOrigin+"/", prompt.PendingDestination)

	require.Equal(t, fresh, handedToken(t, location(t, fd.post("/continue/confirm", ""))))
	require.Equal(t, int32(1), fd.api.refreshCalls.Load())
	require.Equal(t, int32(1), fd.api.loginCalls.Load(), "the prompt replaced the second login")
}

// TestContinuationCancel verifies declining the prompt signs the user out.
func TestContinuationCancel(t *testing.T) {
	fd := setupFrontDoor(t)
	fd.api.issues(studentToken(time.Hour), "")
	require.Equal(t, "/home", location(t, fd.login(testPassword)))

	fd.enter(storeOrigin + "/")
	require.Equal(t, http.StatusOK, fd.login(testPassword).StatusCode)

	require.Equal(t, "/", location(t, fd.post("/continue/cancel", "")))

	entry := decode[frontdoorhttp.EntryResponse](t, fd.get("/"))
	require.False(t, entry.SignedIn)
	require.Empty(t, entry.PendingDestination)
	require.Zero(t, fd.api.refreshCalls.Load())
}

// TestOpenPortalAndLogout launches a portal from the dashboard and signs out.
func TestOpenPortalAndLogout(t *testing.T) {
	fd := setupFrontDoor(t)
	access := studentToken(time.Hour)
	fd.api.issues(access, "")
	require.Equal(t, "/home", location(t, fd.login(testPassword)))

	require.Equal(t, access, handedToken(t, location(t, fd.get("/portals/tienda/open"))))

	// Hidden from students.
	require.Equal(t, http.StatusNotFound, fd.get("/portals/gestion/open").StatusCode)

	require.Equal(t, "/", location(t, fd.post("/logout", "")))
	require.Equal(t, "/", location(t, fd.get("/home")), "the dashboard sends signed-out users to the entry point")
}

// TestSessionSharedAcrossTabs verifies a second tab of the same browser sees
// the persistent session but not the first tab's destination.
func TestSessionSharedAcrossTabs(t *testing.T) {
	fd := setupFrontDoor(t)
	fd.api.issues(studentToken(time.Hour), "")
	fd.enter(storeOrigin + "/cart")

	other := fd.newTab()
	require.Equal(t, "/home", location(t, other.login(testPassword)))

	entry := decode[frontdoorhttp.EntryResponse](t, other.get("/"))
	require.True(t, entry.SignedIn)
	require.Empty(t, entry.PendingDestination)
	require.NotEqual(t, fd.tab, entry.Tab)

	entry = decode[frontdoorhttp.EntryResponse](t, fd.get("/"))
	require.True(t, entry.SignedIn)
	require.Equal(t, storeOrigin+"/cart", entry.PendingDestination)
}
