package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/infrastructure/persistence/postgres"
	"github.com/logigrain/portauth/pkg/logger"
)

func newSweepCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cached tickets from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(logger.NewNoopLogger())
			if err != nil {
				return err
			}

			db, err := postgres.NewDBConnection(&cfg.Database)
			if err != nil {
				return err
			}

			repo := postgres.NewTicketRepository(db, logger.NewNoopLogger())
			deleted, err := repo.DeleteExpired(cmd.Context(), time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired tickets\n", deleted)
			return nil
		},
	}
}
