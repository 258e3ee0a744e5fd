package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/domain"
	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/service"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

func newLoginCommand(o *options) *cobra.Command {
	var (
		email       string
		redirectURL string
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in, or continue an existing session into a portal",
		Long: `Sign in with email and password. The password is read from the first line
of standard input.

With --redirect-url the destination is checked against the trusted portals. If
a session already exists you are offered to continue into it without signing
in again; answering anything but "y" signs you out and asks for a password.

On success the handoff URL is printed, or "home" when there is no destination.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := o.open(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			return runLogin(cmd, s, email, redirectURL)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&redirectURL, "redirect-url", "", "Portal URL to return to after signing in")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func runLogin(cmd *cobra.Command, s *session, email, redirectURL string) error {
	ctx := cmd.Context()
	flow := s.engine.For(s.store)
	in := bufio.NewReader(cmd.InOrStdin())
	prompt := cmd.ErrOrStderr()

	if redirectURL != "" {
		dest, err := flow.Gate.Capture(ctx, url.Values{service.RedirectParam: {redirectURL}})
		if err != nil {
			return err
		}
		if dest == "" {
			fmt.Fprintf(prompt, "warning: %s is not a trusted portal, ignoring it\n", redirectURL)
		}
	}

	intercepted, err := flow.Continuation.InterceptSubmit(ctx)
	if err != nil {
		return err
	}
	if intercepted {
		fmt.Fprintf(prompt, "Already signed in as %s. Continue to %s? [y/N] ",
			signedInAs(ctx, s), pendingOrigin(ctx, s))
		answer, err := readLine(in)
		if err != nil {
			return err
		}
		if strings.EqualFold(answer, "y") || strings.EqualFold(answer, "yes") {
			return printOutcome(cmd.OutOrStdout(), flow.Continuation.Confirm(ctx))
		}
		if out := flow.Continuation.Cancel(ctx); out.Err != nil {
			return out.Err
		}
	}

	fmt.Fprint(prompt, "Password: ")
	password, err := readLine(in)
	if err != nil {
		return err
	}
	fmt.Fprintln(prompt)

	return printOutcome(cmd.OutOrStdout(), flow.Login.Submit(ctx, email, password))
}

// printOutcome writes where the user ends up: a handoff URL, "home" or
// "signed out".
func printOutcome(w io.Writer, out service.Outcome) error {
	if out.Err != nil {
		return out.Err
	}
	switch out.Route {
	case service.RouteExternal:
		fmt.Fprintln(w, out.Location)
	case service.RouteHome:
		fmt.Fprintln(w, "home")
	default:
		fmt.Fprintln(w, "signed out")
	}
	return nil
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func signedInAs(ctx context.Context, s *session) string {
	rec, err := s.store.Read(ctx)
	if err != nil {
		return jwtx.DefaultDisplayName
	}
	c, ok := jwtx.Decode(rec.AccessToken)
	if !ok {
		return jwtx.DefaultDisplayName
	}
	return c.DisplayName()
}

func pendingOrigin(ctx context.Context, s *session) string {
	dest, err := s.store.Pending(ctx)
	if err != nil {
		return "the portal"
	}
	u, err := url.Parse(dest)
	if err != nil || domain.Origin(u) == "" {
		return "the portal"
	}
	return domain.Origin(u)
}
