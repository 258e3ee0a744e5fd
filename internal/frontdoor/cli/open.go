package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
)

var errNotSignedIn = errors.New("not signed in, run \"frontdoor login\" first")

func newOpenCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "open <portal-id|url>",
		Short: "Print a handoff URL for a portal",
		Long: `Print the URL that opens a portal with the current session attached. The
argument is a portal id from the catalogue or a URL on a trusted portal.
Portals hidden from your role are not offered.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			return runOpen(cmd, s, args[0])
		},
	}
}

func runOpen(cmd *cobra.Command, s *session, target string) error {
	ctx := cmd.Context()
	flow := s.engine.For(s.store)

	claims, err := flow.Guard.Check(ctx)
	switch {
	case errors.Is(err, service.ErrNoSession), errors.Is(err, service.ErrNoRole):
		return errNotSignedIn
	case errors.Is(err, service.ErrSessionExpired):
		return fmt.Errorf("session expired, run \"frontdoor login\" again")
	case err != nil:
		return err
	}

	dest := target
	if p, ok := s.portal(target); ok {
		if !p.VisibleTo(claims.ResolvedRole()) {
			return fmt.Errorf("portal %q is not available to %s", p.ID, claims.ResolvedRole())
		}
		dest = p.URL
	}

	location, err := flow.Gate.Launch(ctx, dest)
	if errors.Is(err, service.ErrUntrustedDestination) {
		return fmt.Errorf("%s is neither a portal id nor a trusted portal URL", target)
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), location)
	return nil
}
