package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
)

// Store defines the persistence entry points of the service.
type Store interface {
	// DB returns the handle used for plain reads.
	DB() *gorm.DB
	// InTenant runs fn in a transaction that is serialized against every other
	// InTenant call for the same tenant.
	InTenant(ctx context.Context, tenantID int64, fn func(tx *gorm.DB) error) error
	// Ping checks database connectivity.
	Ping(ctx context.Context) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db    *gorm.DB
	locks *TenantLocks
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db, locks: NewTenantLocks()}
}

func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// InTenant acquires the in-process tenant lock, opens a transaction and locks
// the tenant row so that other processes sharing the database serialize too.
func (s *gormStore) InTenant(ctx context.Context, tenantID int64, fn func(tx *gorm.DB) error) error {
	if err := s.locks.Lock(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to acquire lock for tenant %d: %w", tenantID, err)
	}
	defer s.locks.Unlock(tenantID)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockTenantRow(tx, tenantID); err != nil {
			return err
		}
		return fn(tx)
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func lockTenantRow(tx *gorm.DB, tenantID int64) error {
	q := tx.Model(&model.Tenant{}).Select("id").Where("id = ?", tenantID)
	// SQLite has no row locks; it serializes writers on its own.
	if tx.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var tenant model.Tenant
	if err := q.Take(&tenant).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.WithIDs(apperr.CodeTenantNotFound, fmt.Sprintf("tenant %d not found", tenantID), tenantID)
		}
		return fmt.Errorf("failed to lock tenant %d: %w", tenantID, err)
	}
	return nil
}
