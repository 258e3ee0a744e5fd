package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/store"
)

func newLogoutCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			if err := s.engine.For(s.store).Guard.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newPruneCommand(o *options) *cobra.Command {
	var idle time.Duration

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Drop abandoned tab scopes from the state file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			purger, ok := s.state.(store.TabPurger)
			if !ok {
				fmt.Fprintln(cmd.ErrOrStderr(), "this store expires tab scopes on its own, nothing to do")
				return nil
			}

			hk := service.NewHousekeepingService(purger, s.logger, 0, idle)
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d keys\n", hk.Cleanup(cmd.Context()))
			return nil
		},
	}

	cmd.Flags().DurationVar(&idle, "idle", service.DefaultTabIdleTimeout, "Drop tab scopes untouched for this long")

	return cmd
}
