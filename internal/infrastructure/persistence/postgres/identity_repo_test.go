package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/pkg/errors"
)

func seedGrant(t *testing.T, db *gorm.DB, operatorEnabled, facilityEnabled, grantEnabled bool) int64 {
	t.Helper()
	ctx := context.Background()

	operatorRepo := NewOperatorRepository(db)
	grantRepo := NewGrantRepository(db)

	operator := &models.Operator{Username: "jperez", PasswordHash: "x", Enabled: operatorEnabled}
	require.NoError(t, operatorRepo.Create(ctx, operator))
	require.NoError(t, grantRepo.CreateFacility(ctx, &models.Facility{Code: "TRP1", Name: "Truck yard 1", Enabled: facilityEnabled}))
	require.NoError(t, grantRepo.CreateGrant(ctx, &models.FacilityGrant{OperatorID: operator.ID, FacilityCode: "TRP1", Enabled: grantEnabled}))
	return operator.ID
}

func TestGrantRepository_AuthorizedRequiresAllEnabled(t *testing.T) {
	cases := []struct {
		name                                          string
		operatorEnabled, facilityEnabled, grantEnabled bool
		want                                          bool
	}{
		{"all enabled", true, true, true, true},
		{"operator disabled", false, true, true, false},
		{"facility disabled", true, false, true, false},
		{"grant disabled", true, true, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newTestDB(t)
			operatorID := seedGrant(t, db, tc.operatorEnabled, tc.facilityEnabled, tc.grantEnabled)

			authorized, err := NewGrantRepository(db).Authorized(context.Background(), operatorID, "TRP1")
			require.NoError(t, err)
			assert.Equal(t, tc.want, authorized)
		})
	}
}

func TestGrantRepository_NoGrantMeansDenied(t *testing.T) {
	db := newTestDB(t)
	operatorID := seedGrant(t, db, true, true, true)

	authorized, err := NewGrantRepository(db).Authorized(context.Background(), operatorID, "TSL9")
	require.NoError(t, err)
	assert.False(t, authorized)

	authorized, err = NewGrantRepository(db).Authorized(context.Background(), operatorID+100, "TRP1")
	require.NoError(t, err)
	assert.False(t, authorized)
}

func TestOperatorRepository_FindByUsername(t *testing.T) {
	db := newTestDB(t)
	seedGrant(t, db, true, true, true)
	repo := NewOperatorRepository(db)

	operator, err := repo.FindByUsername(context.Background(), "jperez")
	require.NoError(t, err)
	assert.Equal(t, "jperez", operator.Username)

	byID, err := repo.FindByID(context.Background(), operator.ID)
	require.NoError(t, err)
	assert.Equal(t, operator.Username, byID.Username)

	_, err = repo.FindByUsername(context.Background(), "missing")
	assert.True(t, errors.IsNotFound(err))
}
