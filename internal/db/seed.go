package db

import (
	"context"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"millline-backend/config"
	"millline-backend/internal/model"
)

// Seed upserts the mills and principals listed in the bootstrap config. It is
// safe to run on every start.
func Seed(ctx context.Context, db *gorm.DB, boot config.BootstrapConfig) error {
	if len(boot.Tenants) == 0 && len(boot.Principals) == 0 {
		return nil
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenantIDs, err := upsertTenants(tx, boot.Tenants)
		if err != nil {
			return err
		}
		return upsertPrincipals(tx, boot.Principals, tenantIDs)
	})
}

func upsertTenants(tx *gorm.DB, seeds []config.TenantSeed) (map[string]int64, error) {
	tenantIDs := make(map[string]int64, len(seeds))
	for _, seed := range seeds {
		if seed.Code == "" {
			return nil, fmt.Errorf("bootstrap tenant without code")
		}

		tenant := model.Tenant{Code: seed.Code, Name: seed.Name}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).Create(&tenant).Error; err != nil {
			return nil, fmt.Errorf("upsert tenant %q: %w", seed.Code, err)
		}
		// The returned id is not reliable on conflict for every dialect, so
		// reload into a fresh value.
		var stored model.Tenant
		if err := tx.Where("code = ?", seed.Code).First(&stored).Error; err != nil {
			return nil, fmt.Errorf("reload tenant %q: %w", seed.Code, err)
		}
		tenantIDs[seed.Code] = stored.ID

		enabled := make(map[model.MachineType]bool, len(seed.MachineTypes))
		for _, raw := range seed.MachineTypes {
			mt, ok := model.ParseMachineType(raw)
			if !ok {
				return nil, fmt.Errorf("tenant %q: unknown machine type %q", seed.Code, raw)
			}
			enabled[mt] = true
		}

		rows := make([]model.TenantMachineType, 0, len(model.MachineTypes()))
		for _, mt := range model.MachineTypes() {
			rows = append(rows, model.TenantMachineType{TenantID: stored.ID, Type: mt, Enabled: enabled[mt]})
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).Create(&rows).Error; err != nil {
			return nil, fmt.Errorf("upsert machine types for %q: %w", seed.Code, err)
		}
	}
	return tenantIDs, nil
}

func upsertPrincipals(tx *gorm.DB, seeds []config.PrincipalSeed, tenantIDs map[string]int64) error {
	for _, seed := range seeds {
		if seed.ID == "" {
			return fmt.Errorf("bootstrap principal without id")
		}

		var tenantID *int64
		if seed.Tenant != "" {
			id, ok := tenantIDs[seed.Tenant]
			if !ok {
				var tenant model.Tenant
				if err := tx.Where("code = ?", seed.Tenant).First(&tenant).Error; err != nil {
					return fmt.Errorf("principal %q: tenant %q: %w", seed.ID, seed.Tenant, err)
				}
				id = tenant.ID
			}
			tenantID = &id
		}

		permissions := datatypes.JSONMap{}
		for _, capability := range seed.Capabilities {
			permissions[capability] = true
		}

		principal := model.Principal{ID: seed.ID, TenantID: tenantID, Role: seed.Role, Permissions: permissions}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"tenant_id", "role", "permissions", "updated_at"}),
		}).Create(&principal).Error; err != nil {
			return fmt.Errorf("upsert principal %q: %w", seed.ID, err)
		}
	}
	return nil
}
