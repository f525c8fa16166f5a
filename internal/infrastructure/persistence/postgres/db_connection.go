// Package postgres provides the GORM-backed repository implementations and the
// database bootstrap.
package postgres

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/logigrain/portauth/internal/config"
	"github.com/logigrain/portauth/internal/domain/models"
)

// NewDBConnection opens the postgres connection with pool settings applied.
func NewDBConnection(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.GetDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("opening database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing underlying sql.DB: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}

	return db, nil
}

// AutoMigrate creates or updates the schema for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Operator{},
		&models.Facility{},
		&models.FacilityGrant{},
		&models.Ticket{},
	)
}
