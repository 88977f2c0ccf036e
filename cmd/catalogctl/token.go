package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sipico/catalog-backend/internal/config"
	"github.com/sipico/catalog-backend/internal/token"
)

func newTokenCmd(opts *options) *cobra.Command {
	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Issue and verify admin tokens",
	}

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "issue",
		Short: "Issue an admin token signed with the configured secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.TokenSecretSource != config.SecretFromEnv {
				for _, w := range opts.cfg.Warnings() {
					fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
				}
			}
			t := token.NewCodec(opts.cfg.TokenSecret, opts.cfg.TokenTTL).Issue()
			fmt.Fprintln(cmd.OutOrStdout(), t.Format())
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", t.ExpiresAtTime().UTC().Format(time.RFC3339))
			return nil
		},
	})

	tokenCmd.AddCommand(&cobra.Command{
		Use:   "verify TOKEN",
		Short: "Check a token's signature and expiry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := token.NewCodec(opts.cfg.TokenSecret, opts.cfg.TokenTTL).Verify(args[0])
			if err != nil {
				return fmt.Errorf("token rejected: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "valid until %s\n", t.ExpiresAtTime().UTC().Format(time.RFC3339))
			return nil
		},
	})

	return tokenCmd
}
