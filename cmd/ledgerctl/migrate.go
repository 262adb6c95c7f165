// AngelaMos | 2026
// migrate.go

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/episode-ledger/internal/config"
	"github.com/carterperez-dev/episode-ledger/internal/core"
	"github.com/carterperez-dev/episode-ledger/internal/schema"
)

func newMigrateCmd(flags *globalFlags) *cobra.Command {
	var (
		driver string
		dbURL  string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema files",
		Long: `Apply the embedded schema files that have not run yet, in order.

Examples:
  ledgerctl migrate                                  # use DATABASE_URL from config
  ledgerctl migrate --driver sqlite --db ./ledger.db # local SQLite file
  ledgerctl migrate --dry-run                        # list pending files only`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbCfg := config.DatabaseConfig{Driver: driver, URL: dbURL, MaxOpenConns: 1}
			if dbURL == "" {
				cfg, err := flags.load()
				if err != nil {
					return err
				}
				dbCfg = cfg.Database
			}

			ctx := cmd.Context()
			db, err := core.NewDatabase(ctx, dbCfg)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			out := cmd.OutOrStdout()

			if dryRun {
				pending, err := schema.Pending(ctx, db.DB)
				if err != nil {
					return err
				}
				if len(pending) == 0 {
					fmt.Fprintln(out, "schema is up to date")
				}
				for _, name := range pending {
					fmt.Fprintln(out, "pending", name)
				}
				return nil
			}

			applied, err := schema.Apply(ctx, db.DB)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(out, "schema is up to date")
			}
			for _, name := range applied {
				fmt.Fprintln(out, "applied", name)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&driver, "driver", core.DriverPostgres, "database driver (pgx or sqlite) when --db is set")
	cmd.Flags().StringVar(&dbURL, "db", "", "database URL or SQLite path, overriding config")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list pending files without applying them")

	return cmd
}
