// vaultctl is the operator CLI for filevault.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filevault/internal/shared/config"
	"filevault/internal/shared/telemetry"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var logLevel string
	root := &cobra.Command{
		Use:           "vaultctl",
		Short:         "Operate a filevault deployment",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			telemetry.Setup(logLevel, true)
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(newTokenCmd(config.Load))
	root.AddCommand(newObjectsCmd(config.Load))
	root.AddCommand(newMigrateCmd(config.Load))
	return root
}
