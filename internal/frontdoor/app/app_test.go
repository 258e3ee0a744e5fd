package app

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		APIBase:             "https://api.example.edu/api",
		AppRoot:             "https://sso.example.edu/",
		AllowedOrigins:      []string{"https://lms.example.edu"},
		CookieSecret:        strings.Repeat("k", 32),
		HandoffParam:        "JWT",
		CheckInterval:       time.Second,
		Env:                 "test",
		LogLevel:            "error",
		Port:                0,
		ShutdownGracePeriod: time.Second,
	}
}

func TestNewWiresEngine(t *testing.T) {
	app, err := New(testConfig())
	require.NoError(t, err)

	require.Equal(t, "JWT", app.engine.HandoffParam)
	require.Equal(t, time.Second, app.engine.Interval)
	require.Equal(t, 30*time.Second, app.engine.Skew)
	require.True(t, app.engine.AllowList.Contains("https://lms.example.edu"))
	require.True(t, app.engine.AllowList.Contains("https://biblioteca-uade.vercel.app"))

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.APIBase = ""
	_, err := New(cfg)
	require.ErrorIs(t, err, ErrMissingAPIBase)

	cfg = testConfig()
	cfg.AppRoot = "not a url"
	_, err = New(cfg)
	require.Error(t, err)

	cfg = testConfig()
	cfg.CookieSecret = ""
	_, err = New(cfg)
	require.Error(t, err, "secret is mandatory outside dev")

	cfg.Env = "dev"
	_, err = New(cfg)
	require.NoError(t, err, "dev falls back to an ephemeral secret")

	cfg = testConfig()
	cfg.CookieSecret = "short"
	_, err = New(cfg)
	require.Error(t, err)
}
