// Package profile keeps a mill's contact details.
package profile

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// Field limits, matching the column sizes of model.TenantProfile.
const (
	maxName       = 255
	maxUnitNumber = 255
	maxPhone      = 20
	maxEmail      = 254
)

// Update is the editable part of a profile. Every field is replaced; empty
// strings clear a field.
type Update struct {
	Name       string `json:"name"`
	UnitNumber string `json:"unitNumber"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

// Service reads and edits mill profiles.
type Service struct {
	store    store.Store
	gate     access.Gate
	validate *validator.Validate
}

// NewService creates a profile service.
func NewService(st store.Store, gate access.Gate) *Service {
	return &Service{store: st, gate: gate, validate: validator.New()}
}

// Get returns the mill's profile, creating it named after the mill on first
// read.
func (s *Service) Get(ctx context.Context, scope tenancy.Scope) (*model.TenantProfile, error) {
	var p *model.TenantProfile
	err := s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		var err error
		p, err = getOrCreate(tx, scope.TenantID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Update replaces the mill's contact details.
func (s *Service) Update(ctx context.Context, scope tenancy.Scope, in Update) (*model.TenantProfile, error) {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapMillConfigEdit); err != nil {
		return nil, err
	}
	in, err := s.clean(in)
	if err != nil {
		return nil, err
	}

	var p *model.TenantProfile
	err = s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		var err error
		if p, err = getOrCreate(tx, scope.TenantID); err != nil {
			return err
		}
		p.Name = in.Name
		p.UnitNumber = in.UnitNumber
		p.Phone = in.Phone
		p.Email = in.Email
		err = tx.Model(p).
			Select("name", "unit_number", "phone", "email").
			Updates(p).Error
		if err != nil {
			return fmt.Errorf("failed to update profile of tenant %d: %w", scope.TenantID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// clean trims every field and checks lengths and the email address.
func (s *Service) clean(in Update) (Update, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.UnitNumber = strings.TrimSpace(in.UnitNumber)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.TrimSpace(in.Email)

	bad := map[string]string{}
	for field, v := range map[string]struct {
		value string
		max   int
	}{
		"name":       {in.Name, maxName},
		"unitNumber": {in.UnitNumber, maxUnitNumber},
		"phone":      {in.Phone, maxPhone},
		"email":      {in.Email, maxEmail},
	} {
		if utf8.RuneCountInString(v.value) > v.max {
			bad[field] = fmt.Sprintf("must be at most %d characters", v.max)
		}
	}
	if _, tooLong := bad["email"]; !tooLong {
		if err := s.validate.Var(in.Email, "omitempty,email"); err != nil {
			bad["email"] = "must be a valid email address"
		}
	}
	if len(bad) > 0 {
		return in, apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid profile", bad)
	}
	return in, nil
}

func getOrCreate(tx *gorm.DB, tenantID int64) (*model.TenantProfile, error) {
	var tenant model.Tenant
	if err := tx.Select("id", "name").First(&tenant, tenantID).Error; err != nil {
		return nil, fmt.Errorf("failed to load tenant %d: %w", tenantID, err)
	}

	var p model.TenantProfile
	err := tx.Where("tenant_id = ?", tenantID).
		Attrs(model.TenantProfile{TenantID: tenantID, Name: tenant.Name}).
		FirstOrCreate(&p).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load profile of tenant %d: %w", tenantID, err)
	}
	return &p, nil
}
