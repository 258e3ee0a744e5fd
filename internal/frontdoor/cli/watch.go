package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
)

// housekeepingInterval is how often a long-running watch purges abandoned
// tab scopes from a sqlite state file.
const housekeepingInterval = time.Hour

func newWatchCommand(o *options) *cobra.Command {
	var (
		autoRenew bool
		once      bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Monitor the stored session until it ends",
		Long: `Check the stored session on an interval. A warning is printed when it is
about to expire; with --auto-renew the session is renewed at that point
instead. An expired session is cleared and the command exits.

--once runs a single check and prints the report as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			return runWatch(cmd, s, autoRenew, once)
		},
	}

	cmd.Flags().BoolVar(&autoRenew, "auto-renew", false, "Renew the session when it nears expiry")
	cmd.Flags().BoolVar(&once, "once", false, "Run a single check and exit")

	return cmd
}

func runWatch(cmd *cobra.Command, s *session, autoRenew, once bool) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	var wd *service.Watchdog
	wd = s.engine.NewWatchdog(s.store, service.WatchdogHooks{
		OnNearExpiry: func(ctx context.Context, r service.Report) {
			if !autoRenew {
				fmt.Fprintf(stderr, "session expires in %ds, run with --auto-renew or log in again\n", r.SecondsLeft)
				return
			}
			next, err := wd.Renew(ctx)
			if err != nil {
				fmt.Fprintf(stderr, "renewal failed: %v\n", err)
				return
			}
			fmt.Fprintf(stderr, "session renewed, %ds left\n", next.SecondsLeft)
		},
		OnLogout: func(_ context.Context, reason error) {
			fmt.Fprintf(stderr, "signed out: %v\n", reason)
		},
	})

	if once {
		r, err := wd.Check(ctx)
		if err != nil {
			return err
		}
		r.Status = wd.Status()
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}

	if purger, ok := s.state.(store.TabPurger); ok {
		hk := service.NewHousekeepingService(purger, s.logger, housekeepingInterval, service.DefaultTabIdleTimeout)
		hk.Start()
		defer hk.Stop()
	}

	wd.Start()
	select {
	case <-ctx.Done():
		wd.Stop()
	case <-wd.Done():
	}

	fmt.Fprintln(cmd.OutOrStdout(), wd.Status())
	return nil
}
