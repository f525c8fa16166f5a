package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	"github.com/logigrain/portauth/internal/domain/models"
	"github.com/logigrain/portauth/internal/domain/repository"
	"github.com/logigrain/portauth/pkg/errors"
	"github.com/logigrain/portauth/pkg/logger"
)

// TicketRepositoryImpl persists tickets through GORM. The delete-then-insert
// transaction in Replace is what keeps the at-most-one-live-row invariant.
type TicketRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Logger
}

// NewTicketRepository creates a GORM-backed ticket repository.
func NewTicketRepository(db *gorm.DB, log logger.Logger) repository.TicketRepository {
	return &TicketRepositoryImpl{db: db, logger: log}
}

func keyScope(key models.TicketKey) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("operator_id = ? AND facility_code = ? AND service_kind = ?",
			key.OperatorID, key.FacilityCode, key.ServiceKind)
	}
}

// FindByKey returns the stored row for the key without evaluating expiry.
func (r *TicketRepositoryImpl) FindByKey(ctx context.Context, key models.TicketKey) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Scopes(keyScope(key)).First(&ticket).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrNotFound("ticket")
		}
		return nil, errors.ErrCacheStore(err)
	}
	return &ticket, nil
}

// Replace deletes every row for the ticket's key and inserts the new row in
// one transaction.
func (r *TicketRepositoryImpl) Replace(ctx context.Context, ticket *models.Ticket) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(keyScope(ticket.Key())).Delete(&models.Ticket{}).Error; err != nil {
			return err
		}
		return tx.Create(ticket).Error
	})
	if err != nil {
		r.logger.Error(ctx, "failed to replace ticket row", err,
			logger.Fields{"ticket_key": ticket.Key().String()})
		return errors.ErrCacheStore(err)
	}
	return nil
}

// DeleteByKey removes all rows for the key.
func (r *TicketRepositoryImpl) DeleteByKey(ctx context.Context, key models.TicketKey) (int64, error) {
	result := r.db.WithContext(ctx).Scopes(keyScope(key)).Delete(&models.Ticket{})
	if result.Error != nil {
		return 0, errors.ErrCacheStore(result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteExpired removes every row whose expiration is at or before now.
func (r *TicketRepositoryImpl) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Ticket{})
	if result.Error != nil {
		return 0, errors.ErrCacheStore(result.Error)
	}
	if result.RowsAffected > 0 {
		r.logger.Info(ctx, "swept expired tickets",
			logger.Fields{"deleted": result.RowsAffected})
	}
	return result.RowsAffected, nil
}

// CountByKey returns the number of rows stored for the key.
func (r *TicketRepositoryImpl) CountByKey(ctx context.Context, key models.TicketKey) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Ticket{}).Scopes(keyScope(key)).Count(&count).Error
	if err != nil {
		return 0, errors.ErrCacheStore(err)
	}
	return count, nil
}
