package repository

import (
	"context"

	"github.com/logigrain/portauth/internal/domain/models"
)

// OperatorRepository reads and writes operator accounts in the identity store.
type OperatorRepository interface {
	// FindByUsername returns the operator with the given username, or a
	// not_found error.
	FindByUsername(ctx context.Context, username string) (*models.Operator, error)

	// FindByID returns the operator with the given id, or a not_found error.
	FindByID(ctx context.Context, id int64) (*models.Operator, error)

	// Create inserts a new operator account.
	Create(ctx context.Context, operator *models.Operator) error
}

// GrantRepository is the access-control gate: it answers whether an operator
// may request tickets for a facility. Grants change rarely; callers may cache.
type GrantRepository interface {
	// Authorized reports whether an enabled grant links an enabled operator
	// to an enabled facility.
	Authorized(ctx context.Context, operatorID int64, facilityCode string) (bool, error)

	// CreateFacility inserts a facility record.
	CreateFacility(ctx context.Context, facility *models.Facility) error

	// CreateGrant inserts a grant linking an operator to a facility.
	CreateGrant(ctx context.Context, grant *models.FacilityGrant) error
}
