package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/internal/infrastructure/persistence/postgres"
	"github.com/logigrain/portauth/pkg/logger"
)

func newSeedCommand() *cobra.Command {
	var (
		username string
		password string
		fullName string
		facility string
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create an operator account with a facility grant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(logger.NewNoopLogger())
			if err != nil {
				return err
			}

			db, err := postgres.NewDBConnection(&cfg.Database)
			if err != nil {
				return err
			}

			operatorRepo := postgres.NewOperatorRepository(db)
			grantRepo := postgres.NewGrantRepository(db)

			hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}

			operator := &models.Operator{
				Username:     username,
				FullName:     fullName,
				PasswordHash: string(hash),
				Enabled:      true,
			}
			if err := operatorRepo.Create(cmd.Context(), operator); err != nil {
				return err
			}

			if facility != "" {
				if err := grantRepo.CreateFacility(cmd.Context(), &models.Facility{
					Code:    facility,
					Name:    facility,
					Enabled: true,
				}); err != nil {
					// The facility may already exist; the grant is what matters.
					fmt.Fprintf(cmd.ErrOrStderr(), "facility insert: %v\n", err)
				}
				if err := grantRepo.CreateGrant(cmd.Context(), &models.FacilityGrant{
					OperatorID:   operator.ID,
					FacilityCode: facility,
					Enabled:      true,
				}); err != nil {
					return err
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "operator %s created (id %d)\n", username, operator.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "operator username")
	cmd.Flags().StringVar(&password, "password", "", "operator password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "operator full name")
	cmd.Flags().StringVar(&facility, "facility", "", "facility code to grant access to")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("password")

	return cmd
}
