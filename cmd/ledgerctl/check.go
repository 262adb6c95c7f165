// AngelaMos | 2026
// check.go

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/episode-ledger/internal/assets"
	"github.com/carterperez-dev/episode-ledger/internal/auth"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/schema"
)

const checkTimeout = 10 * time.Second

func newCheckCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate config and reach every dependency",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
			defer cancel()

			out := cmd.OutOrStdout()
			failed := 0
			report := func(name string, err error) {
				if err != nil {
					failed++
					fmt.Fprintf(out, "FAIL  %-10s %v\n", name, err)
					return
				}
				fmt.Fprintf(out, "ok    %s\n", name)
			}

			report("config", nil)

			db, err := core.NewDatabase(ctx, cfg.Database)
			report("database", err)
			if err == nil {
				defer func() { _ = db.Close() }()

				pending, pendErr := schema.Pending(ctx, db.DB)
				if pendErr == nil && len(pending) > 0 {
					pendErr = fmt.Errorf("%d pending schema files, run ledgerctl migrate", len(pending))
				}
				report("schema", pendErr)
			}

			rdb, err := core.NewRedis(ctx, cfg.Redis)
			report("redis", err)
			if err == nil {
				defer func() { _ = rdb.Close() }()
			}

			_, err = auth.NewJWTManager(cfg.JWT)
			report("jwt", err)

			_, err = assets.NewSigner(cfg.Assets)
			report("assets", err)

			if failed > 0 {
				return fmt.Errorf("%d checks failed", failed)
			}
			return nil
		},
	}
}
