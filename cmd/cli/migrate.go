package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/infrastructure/persistence/postgres"
	"github.com/logigrain/portauth/pkg/logger"
)

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(logger.NewNoopLogger())
			if err != nil {
				return err
			}

			db, err := postgres.NewDBConnection(&cfg.Database)
			if err != nil {
				return err
			}
			if err := postgres.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrating schema: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
			return nil
		},
	}
}
