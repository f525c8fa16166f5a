//go:build integration

package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/logger"
)

func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if os.Getenv("SKIP_DOCKER_TESTS") == "true" {
		t.Skip("Skipping Docker-dependent tests")
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("portauth_test"),
		tcpostgres.WithUsername("portauth"),
		tcpostgres.WithPassword("portauth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, container.Terminate(ctx))
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestTicketRepository_ReplaceTransactionOnPostgres(t *testing.T) {
	db := newPostgresDB(t)
	repo := NewTicketRepository(db, logger.NewNoopLogger())
	ctx := context.Background()

	key := models.TicketKey{OperatorID: 7, FacilityCode: "TRP1", ServiceKind: constants.ServiceKindCPE}
	issued := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Replace(ctx, models.NewTicket(key, "token-1", "sign-1", constants.WSAATestURL, issued)))
	require.NoError(t, repo.Replace(ctx, models.NewTicket(key, "token-2", "sign-2", constants.WSAATestURL, issued.Add(time.Hour))))

	count, err := repo.CountByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repo.FindByKey(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "token-2", stored.Token)
	assert.Equal(t, constants.WSAATestURL, stored.WSAAURL)
}

func TestGrantRepository_AuthorizedOnPostgres(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	operatorRepo := NewOperatorRepository(db)
	grantRepo := NewGrantRepository(db)

	operator := &models.Operator{Username: "jperez", PasswordHash: "x", Enabled: true}
	require.NoError(t, operatorRepo.Create(ctx, operator))
	require.NoError(t, grantRepo.CreateFacility(ctx, &models.Facility{Code: "TRP1", Name: "Truck yard 1", Enabled: true}))
	require.NoError(t, grantRepo.CreateGrant(ctx, &models.FacilityGrant{OperatorID: operator.ID, FacilityCode: "TRP1", Enabled: true}))

	authorized, err := grantRepo.Authorized(ctx, operator.ID, "TRP1")
	require.NoError(t, err)
	assert.True(t, authorized)

	authorized, err = grantRepo.Authorized(ctx, operator.ID, "TSL1")
	require.NoError(t, err)
	assert.False(t, authorized)
}
