// AngelaMos | 2026
// keygen.go

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/episode-ledger/internal/auth"
	"github.com/carterperez-dev/episode-ledger/internal/core"
)

const signingKeyBytes = 32

func newKeygenCmd() *cobra.Command {
	var (
		dir   string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate an ES256 key pair and an asset signing key",
		RunE: func(cmd *cobra.Command, _ []string) error {
			private := filepath.Join(dir, "private.pem")
			public := filepath.Join(dir, "public.pem")

			if !force {
				for _, path := range []string{private, public} {
					if _, err := os.Stat(path); err == nil {
						return fmt.Errorf("%s already exists, pass --force to overwrite", path)
					}
				}
			}

			if err := os.MkdirAll(dir, 0o700); err != nil {
				return fmt.Errorf("create key dir: %w", err)
			}

			if err := auth.GenerateKeyPair(private, public); err != nil {
				return err
			}

			signingKey, err := core.GenerateSecureToken(signingKeyBytes)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "wrote", private)
			fmt.Fprintln(out, "wrote", public)
			fmt.Fprintln(out, "ASSETS_SIGNING_KEY="+signingKey)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "keys", "directory for the PEM files")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing keys")

	return cmd
}
