package postgres

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"

	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/internal/domain/repository"
	"github.com/logigrain/portauth/pkg/errors"
)

// OperatorRepositoryImpl persists operator accounts through GORM.
type OperatorRepositoryImpl struct {
	db *gorm.DB
}

// NewOperatorRepository creates a GORM-backed operator repository.
func NewOperatorRepository(db *gorm.DB) repository.OperatorRepository {
	return &OperatorRepositoryImpl{db: db}
}

func (r *OperatorRepositoryImpl) FindByUsername(ctx context.Context, username string) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&operator).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("operator")
		}
		return nil, errors.ErrInternal("operator lookup failed").WithCause(err)
	}
	return &operator, nil
}

func (r *OperatorRepositoryImpl) FindByID(ctx context.Context, id int64) (*models.Operator, error) {
	var operator models.Operator
	err := r.db.WithContext(ctx).First(&operator, id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("operator")
		}
		return nil, errors.ErrInternal("operator lookup failed").WithCause(err)
	}
	return &operator, nil
}

func (r *OperatorRepositoryImpl) Create(ctx context.Context, operator *models.Operator) error {
	if err := r.db.WithContext(ctx).Create(operator).Error; err != nil {
		return errors.ErrInternal("operator insert failed").WithCause(err)
	}
	return nil
}

// GrantRepositoryImpl answers the facility access question with a three-way
// join over enabled flags.
type GrantRepositoryImpl struct {
	db *gorm.DB
}

// NewGrantRepository creates a GORM-backed grant repository.
func NewGrantRepository(db *gorm.DB) repository.GrantRepository {
	return &GrantRepositoryImpl{db: db}
}

// Authorized reports whether an enabled grant links an enabled operator to an
// enabled facility. Any missing or disabled link yields false, not an error.
func (r *GrantRepositoryImpl) Authorized(ctx context.Context, operatorID int64, facilityCode string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.FacilityGrant{}).
		Joins("JOIN operators ON operators.id = facility_grants.operator_id").
		Joins("JOIN facilities ON facilities.code = facility_grants.facility_code").
		Where("facility_grants.operator_id = ? AND facility_grants.facility_code = ?", operatorID, facilityCode).
		Where("facility_grants.enabled AND operators.enabled AND facilities.enabled").
		Count(&count).Error
	if err != nil {
		return false, errors.ErrInternal("grant lookup failed").WithCause(err)
	}
	return count > 0, nil
}

func (r *GrantRepositoryImpl) CreateFacility(ctx context.Context, facility *models.Facility) error {
	if err := r.db.WithContext(ctx).Create(facility).Error; err != nil {
		return errors.ErrInternal("facility insert failed").WithCause(err)
	}
	return nil
}

func (r *GrantRepositoryImpl) CreateGrant(ctx context.Context, grant *models.FacilityGrant) error {
	if err := r.db.WithContext(ctx).Create(grant).Error; err != nil {
		return errors.ErrInternal("grant insert failed").WithCause(err)
	}
	return nil
}
