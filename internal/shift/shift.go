// Package shift keeps the working windows of a mill.
package shift

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// Service lists and edits shifts.
type Service struct {
	store store.Store
	gate  access.Gate
}

// NewService creates a shift service.
func NewService(st store.Store, gate access.Gate) *Service {
	return &Service{store: st, gate: gate}
}

// List returns the mill's shifts ordered by start time.
func (s *Service) List(ctx context.Context, scope tenancy.Scope) ([]model.Shift, error) {
	shifts := []model.Shift{}
	err := s.store.DB().WithContext(ctx).
		Where("tenant_id = ?", scope.TenantID).
		Order("start_time, id").
		Find(&shifts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	return shifts, nil
}

// Save creates the shift when its id is zero and updates it otherwise.
func (s *Service) Save(ctx context.Context, scope tenancy.Scope, in model.Shift) (*model.Shift, error) {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapSetShiftEdit); err != nil {
		return nil, err
	}

	in.Number = strings.TrimSpace(in.Number)
	in.Name = strings.TrimSpace(in.Name)
	if in.Number == "" || in.Name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "shift number and name are required")
	}
	if !in.StartTime.Before(in.EndTime) {
		return nil, apperr.New(apperr.CodeInvalidWindow, "shift must start before it ends")
	}

	out := in
	out.TenantID = scope.TenantID
	err := s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		if out.ID == 0 {
			if err := tx.Create(&out).Error; err != nil {
				return fmt.Errorf("failed to create shift: %w", err)
			}
			return nil
		}

		existing, err := find(tx, scope.TenantID, out.ID)
		if err != nil {
			return err
		}
		out.CreatedAt = existing.CreatedAt
		err = tx.Model(existing).
			Select("number", "name", "start_time", "end_time").
			Updates(&out).Error
		if err != nil {
			return fmt.Errorf("failed to update shift %d: %w", out.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a shift.
func (s *Service) Delete(ctx context.Context, scope tenancy.Scope, shiftID int64) error {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapSetShiftEdit); err != nil {
		return err
	}

	return s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		if _, err := find(tx, scope.TenantID, shiftID); err != nil {
			return err
		}
		if err := tx.Delete(&model.Shift{}, shiftID).Error; err != nil {
			return fmt.Errorf("failed to delete shift %d: %w", shiftID, err)
		}
		return nil
	})
}

func find(tx *gorm.DB, tenantID, shiftID int64) (*model.Shift, error) {
	var sh model.Shift
	err := tx.Where("id = ? AND tenant_id = ?", shiftID, tenantID).First(&sh).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithIDs(apperr.CodeShiftNotFound, fmt.Sprintf("shift %d not found", shiftID), shiftID)
		}
		return nil, fmt.Errorf("failed to load shift %d: %w", shiftID, err)
	}
	return &sh, nil
}
