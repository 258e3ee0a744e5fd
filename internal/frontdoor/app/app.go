package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	frontdoorhttp "github.com/aussiebroadwan/frontdoor/internal/frontdoor/http"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/authsdk"
	"github.com/aussiebroadwan/frontdoor/pkg/cryptox"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"
)

var ErrMissingAPIBase = errors.New("FRONTDOOR_API_BASE is required")

// Application encapsulates the front door with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	portals []domain.Portal
	engine  *service.Engine
	jar     *frontdoorhttp.CookieJar

	// HTTP server
	server *http.Server
	router *frontdoorhttp.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "frontdoor",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	portals, err := LoadPortals(cfg.PortalsFile)
	if err != nil {
		return nil, err
	}
	app.portals = portals

	engine, err := NewEngine(cfg, portals, app.logger)
	if err != nil {
		return nil, err
	}
	app.engine = engine

	if err := app.initCookies(); err != nil {
		return nil, err
	}

	app.initHTTP()

	return app, nil
}

// NewEngine builds the session engine shared by the server and the CLI.
func NewEngine(cfg Config, portals []domain.Portal, logger *slog.Logger) (*service.Engine, error) {
	if cfg.APIBase == "" {
		return nil, ErrMissingAPIBase
	}
	if _, err := url.Parse(cfg.APIBase); err != nil {
		return nil, fmt.Errorf("invalid FRONTDOOR_API_BASE: %w", err)
	}

	appRoot, err := url.Parse(cfg.AppRoot)
	if err != nil || domain.Origin(appRoot) == "" {
		return nil, fmt.Errorf("invalid FRONTDOOR_APP_ROOT %q", cfg.AppRoot)
	}

	client := authsdk.NewSDKClient(cfg.APIBase)
	if cfg.RefreshHeader != "" {
		client.RefreshHeader = cfg.RefreshHeader
	}

	allow := AllowListFor(portals, cfg.AllowedOrigins)
	engine := service.NewEngine(client, allow, appRoot, logger)
	if cfg.HandoffParam != "" {
		engine.HandoffParam = cfg.HandoffParam
	}
	if cfg.Skew > 0 {
		engine.Skew = cfg.Skew
	}
	if cfg.ExpiryThreshold > 0 {
		engine.Threshold = cfg.ExpiryThreshold
	}
	if cfg.CheckInterval > 0 {
		engine.Interval = cfg.CheckInterval
	}

	logger.Info("session engine configured",
		"api_base", cfg.APIBase,
		"app_root", appRoot.String(),
		"trusted_origins", allow.Origins(),
	)
	return engine, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("front door starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down front door...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
			return err
		}
	}

	app.logger.Info("front door stopped")
	return nil
}

// Handler exposes the routed handler, for tests.
func (app *Application) Handler() http.Handler { return app.router }

// initCookies sets up the sealed cookie jar. Outside dev a secret is
// mandatory; in dev a random one is generated, so sessions do not survive a
// restart.
func (app *Application) initCookies() error {
	secret := []byte(app.cfg.CookieSecret)
	if len(secret) == 0 {
		if app.cfg.Env != "dev" {
			return errors.New("FRONTDOOR_COOKIE_SECRET is required outside dev")
		}
		generated, err := cryptox.GenerateSecret(cryptox.SecretSize)
		if err != nil {
			return err
		}
		secret = generated
		app.logger.Warn("no cookie secret configured, using an ephemeral one")
	}

	jar, err := frontdoorhttp.NewCookieJar(secret, app.cfg.CookieSecure, app.cfg.DurableTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize cookie jar: %w", err)
	}
	app.jar = jar
	return nil
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := frontdoorhttp.NewRouter(
		app.engine,
		app.jar,
		app.portals,
		BuildVersion,
		app.logger,
	)
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
