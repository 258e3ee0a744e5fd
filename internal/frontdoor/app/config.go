package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	frontdoorhttp "github.com/aussiebroadwan/frontdoor/internal/frontdoor/http"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

// DefaultAppRoot is where the front door is served during local development.
const DefaultAppRoot = "http://localhost:5173/"

type Config struct {
	APIBase        string   // Required: base URL of the authentication API
	AppRoot        string   // Optional: public root of the front door (default: http://localhost:5173/)
	PortalsFile    string   // Optional: TOML portal catalogue (default: built-in catalogue)
	AllowedOrigins []string // Optional: extra trusted origins, comma separated

	CookieSecret string        // Required outside dev: secret sealing the session cookies (min 32 bytes)
	CookieSecure bool          // Optional: mark cookies Secure (default: true unless ENV=dev)
	DurableTTL   time.Duration // Optional: lifetime of the session cookie (default: 30 days)

	RefreshHeader   string        // Optional: header carrying the refresh token (default: refreshtoken)
	HandoffParam    string        // Optional: query parameter carrying the forwarded token (default: access_token)
	CheckInterval   time.Duration // Optional: watchdog cadence (default: 15s)
	ExpiryThreshold time.Duration // Optional: near-expiry warning window (default: 120s)
	Skew            time.Duration // Optional: clock skew tolerance on exp (default: 30s)

	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	env := getEnvOrDefault("ENV", "dev")

	cfg := Config{
		APIBase:        os.Getenv("FRONTDOOR_API_BASE"),
		AppRoot:        getEnvOrDefault("FRONTDOOR_APP_ROOT", DefaultAppRoot),
		PortalsFile:    os.Getenv("FRONTDOOR_PORTALS_FILE"), // Empty means the built-in catalogue
		AllowedOrigins: getEnvListOrDefault("FRONTDOOR_ALLOWED_ORIGINS", nil),

		CookieSecret: os.Getenv("FRONTDOOR_COOKIE_SECRET"),
		CookieSecure: getEnvBoolOrDefault("FRONTDOOR_COOKIE_SECURE", env != "dev"),
		DurableTTL:   getEnvDurationOrDefault("FRONTDOOR_DURABLE_TTL", frontdoorhttp.DefaultDurableTTL),

		RefreshHeader:   getEnvOrDefault("FRONTDOOR_REFRESH_HEADER", authsdk.DefaultRefreshHeader),
		HandoffParam:    getEnvOrDefault("FRONTDOOR_HANDOFF_PARAM", service.DefaultHandoffParam),
		CheckInterval:   getEnvDurationOrDefault("FRONTDOOR_CHECK_INTERVAL", service.DefaultCheckInterval),
		ExpiryThreshold: getEnvDurationOrDefault("FRONTDOOR_EXPIRY_THRESHOLD", service.DefaultExpiryThreshold),
		Skew:            getEnvDurationOrDefault("FRONTDOOR_SKEW", jwtx.DefaultSkew),

		Env:                 env,
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

// getEnvListOrDefault splits a comma separated value, dropping blanks.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	var out []string
	for part := range strings.SplitSeq(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Plain integers are seconds, the unit the auth API reports lifetimes in
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
