// AngelaMos | 2026
// token.go

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/episode-ledger/internal/assets"
	"github.com/carterperez-dev/episode-ledger/internal/auth"
	"github.com/carterperez-dev/episode-ledger/internal/middleware"
)

// newTokenCmd mints access tokens for local testing. Production tokens come
// from the account service.
func newTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		userID string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return fmt.Errorf("refusing to mint tokens in production")
			}

			m, err := auth.NewJWTManager(cfg.JWT)
			if err != nil {
				return err
			}

			token, err := m.CreateAccessToken(middleware.AccessTokenClaims{
				UserID: userID,
				Role:   role,
			}, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&role, "role", "user", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "lifetime, defaults to jwt.access_token_expire")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newVerifyURLCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-url URL",
		Short: "Check a signed playback URL against the configured key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			signer, err := assets.NewSigner(cfg.Assets)
			if err != nil {
				return err
			}

			if err := signer.Verify(args[0]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "signature ok")
			return nil
		},
	}
}
