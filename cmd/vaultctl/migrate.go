package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"filevault/internal/shared/config"
	"filevault/internal/shared/storage/db"
)

func newMigrateCmd(load func() config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := load()
			dialect, err := db.DialectFor(cfg.DatabaseURL)
			if err != nil {
				return err
			}
			sqlDB, err := db.Connect(cmd.Context(), cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()

			if err := db.RunMigrations(cmd.Context(), sqlDB, dialect); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", dialect)
			return nil
		},
	}
}
