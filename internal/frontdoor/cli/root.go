// Package cli implements the frontdoor command line: the HTTP server plus a
// terminal rendition of the login, continuation and watchdog flows over a
// local or shared state store.
package cli

import (
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/app"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
	"github.com/aussiebroadwan/frontdoor/pkg/slogx"
)

// options are the persistent flags. Flags win over the environment.
type options struct {
	store       string
	tab         string
	apiBase     string
	portalsFile string
	logLevel    string
}

// NewRootCommand creates the root cobra command for the frontdoor CLI.
func NewRootCommand() *cobra.Command {
	o := &options{}

	cmd := &cobra.Command{
		Use:   "frontdoor",
		Short: "Frontdoor - single sign-on entry point for the portal federation",
		Long: `Frontdoor signs users in against the federation's authentication API,
keeps their session fresh and hands the credential to trusted portals.

"frontdoor serve" runs the browser-facing front door. The other commands run
the same flows in a terminal, keeping state in a sqlite file or in redis.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&o.store, "store", os.Getenv("FRONTDOOR_STORE"), "State store: sqlite://PATH or redis://HOST:PORT/DB (default: sqlite in the user config dir)")
	cmd.PersistentFlags().StringVar(&o.tab, "tab", os.Getenv("FRONTDOOR_TAB"), "Tab scope id for pending destinations (default: a fresh id per process)")
	cmd.PersistentFlags().StringVar(&o.apiBase, "api-base", "", "Authentication API base URL (overrides FRONTDOOR_API_BASE)")
	cmd.PersistentFlags().StringVar(&o.portalsFile, "portals", "", "Portal catalogue TOML file (overrides FRONTDOOR_PORTALS_FILE)")
	cmd.PersistentFlags().StringVar(&o.logLevel, "log-level", "warn", "Log level for terminal commands (debug, info, warn, error)")

	cmd.AddCommand(
		newServeCommand(o),
		newLoginCommand(o),
		newWatchCommand(o),
		newOpenCommand(o),
		newLogoutCommand(o),
		newPruneCommand(o),
		newTokenCommand(),
		newVersionCommand(),
	)

	return cmd
}

// config loads the environment and applies flag overrides.
func (o *options) config() app.Config {
	cfg := app.LoadConfig()
	if o.apiBase != "" {
		cfg.APIBase = o.apiBase
	}
	if o.portalsFile != "" {
		cfg.PortalsFile = o.portalsFile
	}
	return cfg
}

// session is what a terminal command works with: the engine and one tab's
// view of the state store.
type session struct {
	engine  *service.Engine
	portals []domain.Portal
	state   store.ScopedStore
	store   *store.KV
	tab     string
	logger  *slog.Logger
}

func (o *options) open(cmd *cobra.Command) (*session, error) {
	cfg := o.config()
	logger := slogx.New(slogx.Config{
		Service: "frontdoor-cli",
		Version: app.BuildVersion,
		Env:     cfg.Env,
		Level:   o.logLevel,
		Format:  "text",
		Output:  cmd.ErrOrStderr(),
	})

	portals, err := app.LoadPortals(cfg.PortalsFile)
	if err != nil {
		return nil, err
	}
	engine, err := app.NewEngine(cfg, portals, logger)
	if err != nil {
		return nil, err
	}

	state, err := openState(cmd.Context(), o.store)
	if err != nil {
		return nil, err
	}

	tab := o.tab
	if tab == "" {
		tab = uuid.NewString()
	}
	logger.Debug("state store opened", "tab", tab)

	return &session{
		engine:  engine,
		portals: portals,
		state:   state,
		store:   store.Open(state, tab),
		tab:     tab,
		logger:  logger,
	}, nil
}

func (s *session) Close() error { return s.state.Close() }

func (s *session) portal(id string) (domain.Portal, bool) {
	for _, p := range s.portals {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Portal{}, false
}
