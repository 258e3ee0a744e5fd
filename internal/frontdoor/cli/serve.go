package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/app"
)

func newServeCommand(o *options) *cobra.Command {
	var (
		port    int
		appRoot string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser-facing front door",
		Long: `Run the HTTP front door. Configuration comes from the FRONTDOOR_* environment
variables; flags given here take precedence.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := o.config()
			if port > 0 {
				cfg.Port = port
			}
			if appRoot != "" {
				cfg.AppRoot = appRoot
			}

			application, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}
			return application.Run()
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP port (overrides PORT)")
	cmd.Flags().StringVar(&appRoot, "app-root", "", "Public root URL of the front door (overrides FRONTDOOR_APP_ROOT)")

	return cmd
}
