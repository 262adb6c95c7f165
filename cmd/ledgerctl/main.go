// AngelaMos | 2026
// main.go

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carterperez-dev/episode-ledger/internal/config"
)

var version = "dev"

type globalFlags struct {
	configPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "ledgerctl",
		Short:         "Operate the episode ledger",
		Long:          "ledgerctl applies the schema, manages signing keys and checks a deployment's dependencies.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(
		&flags.configPath, "config", "", "path to config file (env vars override it)",
	)

	root.AddCommand(
		newMigrateCmd(flags),
		newKeygenCmd(),
		newCheckCmd(flags),
		newTokenCmd(flags),
		newVerifyURLCmd(flags),
	)

	return root
}

func (f *globalFlags) load() (*config.Config, error) {
	return config.Load(f.configPath)
}
