package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/dareg/internal/repository/sqlstore"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending SQL schema migrations",
	Long:  "Apply the embedded migrations to the configured postgres or sqlite database.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Database.IsSQL() {
			return fmt.Errorf("driver %q has no migrations", cfg.Database.Driver)
		}

		v, err := sqlstore.Migrate(cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Schema at version %d\n", v)
		return nil
	},
}
