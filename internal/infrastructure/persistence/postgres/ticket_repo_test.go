package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/pkg/constants"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// The repositories only use portable GORM operations, so an in-memory SQLite
// database covers their behavior; the postgres-specific path is exercised by
// the tagged integration test.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A pooled second connection to an in-memory database would see its own
	// empty schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, AutoMigrate(db))
	return db
}

func ticketKey() models.TicketKey {
	return models.TicketKey{OperatorID: 7, FacilityCode: "TRP1", ServiceKind: constants.ServiceKindCPE}
}

func TestTicketRepository_FindByKeyNotFound(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t), logger.NewNoopLogger())

	_, err := repo.FindByKey(context.Background(), ticketKey())
	assert.True(t, errors.IsNotFound(err))
}

func TestTicketRepository_ReplaceKeepsOneRowPerKey(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	issued := time.Date(2025, 12, 10, 9, 0, 0, 0, time.UTC)

	first := models.NewTicket(ticketKey(), "token-1", "sign-1", constants.WSAATestURL, issued)
	require.NoError(t, repo.Replace(ctx, first))

	second := models.NewTicket(ticketKey(), "token-2", "sign-2", constants.WSAATestURL, issued.Add(time.Hour))
	require.NoError(t, repo.Replace(ctx, second))

	count, err := repo.CountByKey(ctx, ticketKey())
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	stored, err := repo.FindByKey(ctx, ticketKey())
	require.NoError(t, err)
	assert.Equal(t, "token-2", stored.Token)
	assert.Equal(t, "sign-2", stored.Sign)
}

func TestTicketRepository_FindByKeyReturnsExpiredRows(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	issued := time.Now().Add(-2 * constants.TicketTTL)
	require.NoError(t, repo.Replace(ctx, models.NewTicket(ticketKey(), "tok", "sig", constants.WSAATestURL, issued)))

	// Expiry is the caller's concern: the repository hands the row back.
	stored, err := repo.FindByKey(ctx, ticketKey())
	require.NoError(t, err)
	assert.True(t, stored.IsExpired(time.Now()))
}

func TestTicketRepository_DeleteByKey(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()

	require.NoError(t, repo.Replace(ctx, models.NewTicket(ticketKey(), "tok", "sig", constants.WSAATestURL, time.Now())))

	deleted, err := repo.DeleteByKey(ctx, ticketKey())
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	deleted, err = repo.DeleteByKey(ctx, ticketKey())
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestTicketRepository_DeleteExpiredBoundaryInclusive(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	now := time.Date(2025, 12, 10, 17, 0, 0, 0, time.UTC)

	expiredExactlyNow := models.NewTicket(ticketKey(), "old", "old", constants.WSAATestURL, now.Add(-constants.TicketTTL))
	require.NoError(t, repo.Replace(ctx, expiredExactlyNow))

	liveKey := models.TicketKey{OperatorID: 8, FacilityCode: "TSL1", ServiceKind: constants.ServiceKindEmbarques}
	require.NoError(t, repo.Replace(ctx, models.NewTicket(liveKey, "new", "new", constants.WSAATestURL, now)))

	deleted, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = repo.FindByKey(ctx, ticketKey())
	assert.True(t, errors.IsNotFound(err))
	_, err = repo.FindByKey(ctx, liveKey)
	assert.NoError(t, err)
}

func TestTicketRepository_KeysAreDisjoint(t *testing.T) {
	repo := NewTicketRepository(newTestDB(t), logger.NewNoopLogger())
	ctx := context.Background()
	now := time.Now()

	otherKind := models.TicketKey{OperatorID: 7, FacilityCode: "TRP1", ServiceKind: constants.ServiceKindFacturacion}
	otherFacility := models.TicketKey{OperatorID: 7, FacilityCode: "TSL1", ServiceKind: constants.ServiceKindCPE}

	require.NoError(t, repo.Replace(ctx, models.NewTicket(ticketKey(), "a", "a", constants.WSAATestURL, now)))
	require.NoError(t, repo.Replace(ctx, models.NewTicket(otherKind, "b", "b", constants.WSAATestURL, now)))
	require.NoError(t, repo.Replace(ctx, models.NewTicket(otherFacility, "c", "c", constants.WSAATestURL, now)))

	for _, key := range []models.TicketKey{ticketKey(), otherKind, otherFacility} {
		count, err := repo.CountByKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	}
}
