package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/aussiebroadwan/frontdoor/internal/frontdoor/app"
	"github.com/aussiebroadwan/frontdoor/pkg/jwtx"
)

func newTokenCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Work with access tokens",
	}
	cmd.AddCommand(newTokenInspectCommand())
	return cmd
}

// tokenReport is what "token inspect" prints.
type tokenReport struct {
	Role        string         `json:"role,omitempty"`
	Name        string         `json:"name"`
	Email       string         `json:"email,omitempty"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Expired     bool           `json:"expired"`
	SecondsLeft int            `json:"seconds_left"`
	Claims      map[string]any `json:"claims"`
}

func newTokenInspectCommand() *cobra.Command {
	var skew time.Duration

	cmd := &cobra.Command{
		Use:   "inspect <token|->",
		Short: "Decode a token's claims without verifying it",
		Long: `Decode the payload of an access token and report how long it remains usable
under the clock skew tolerance. "-" reads the token from standard input.
The signature is not checked.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			token := args[0]
			if token == "-" {
				line, err := readLine(bufio.NewReader(cmd.InOrStdin()))
				if err != nil {
					return err
				}
				token = line
			}

			claims, err := jwtx.Parse(token)
			if err != nil {
				return err
			}

			left := jwtx.TimeRemaining(claims, skew, time.Now())
			report := tokenReport{
				Role:        claims.ResolvedRole(),
				Name:        claims.DisplayName(),
				Email:       claims.Email,
				Expired:     left.Expired,
				SecondsLeft: left.SecondsLeft,
				Claims:      claims.Raw,
			}
			if claims.ExpiresAt != nil {
				exp := claims.ExpiresAt.UTC()
				report.ExpiresAt = &exp
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().DurationVar(&skew, "skew", jwtx.DefaultSkew, "Clock skew tolerance applied to exp")

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "frontdoor version %s\n", app.BuildVersion)
			fmt.Fprintf(cmd.OutOrStdout(), "  go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "  platform:   %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
