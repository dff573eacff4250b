// Package catalog manages a mill's machine pool and the machine types it
// works with.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/assign"
	"millline-backend/internal/layout"
	"millline-backend/internal/model"
	"millline-backend/internal/parse"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// MaxBatch is the largest number of machines one batch may add.
const MaxBatch = 500

// MaxStart is the largest starting sequence number a batch may use.
const MaxStart = math.MaxInt32 - MaxBatch

// BatchSpec describes N identical machines of one type, named from a starting
// sequence number.
type BatchSpec struct {
	Type         string `json:"type" binding:"required"`
	Count        int    `json:"count" binding:"required"`
	Start        int    `json:"start"`
	Model        string `json:"model" binding:"required"`
	Code         string `json:"code"`
	Manufacturer string `json:"manufacturer"`
	Design       string `json:"design"`
	MakeYear     int    `json:"makeYear"`
	NumInputs    int    `json:"numInputs"`
	NumOutputs   int    `json:"numOutputs"`
}

// Service is the machine catalog.
type Service struct {
	store store.Store
	gate  access.Gate
}

// NewService creates a catalog service.
func NewService(st store.Store, gate access.Gate) *Service {
	return &Service{store: st, gate: gate}
}

// MachineTypes returns the fixed universe of machine types.
func (s *Service) MachineTypes() []model.MachineType {
	return model.MachineTypes()
}

// TenantMachineTypes returns every machine type with the mill's enabled flag.
func (s *Service) TenantMachineTypes(ctx context.Context, scope tenancy.Scope) ([]model.TenantMachineType, error) {
	var rows []model.TenantMachineType
	if err := s.store.DB().WithContext(ctx).Where("tenant_id = ?", scope.TenantID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load machine types: %w", err)
	}

	byType := make(map[model.MachineType]model.TenantMachineType, len(rows))
	for _, r := range rows {
		byType[r.Type] = r
	}
	out := make([]model.TenantMachineType, 0, len(model.MachineTypes()))
	for _, mt := range model.MachineTypes() {
		row, ok := byType[mt]
		if !ok {
			row = model.TenantMachineType{TenantID: scope.TenantID, Type: mt}
		}
		out = append(out, row)
	}
	return out, nil
}

// SetTenantMachineType enables or disables a machine type for the mill.
func (s *Service) SetTenantMachineType(ctx context.Context, scope tenancy.Scope, raw string, enabled bool) error {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapSetupMachineEdit); err != nil {
		return err
	}
	mt, err := parseType(raw)
	if err != nil {
		return err
	}

	return s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		row := model.TenantMachineType{TenantID: scope.TenantID, Type: mt, Enabled: enabled}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "type"}},
			DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("failed to save machine type %s: %w", mt, err)
		}
		return nil
	})
}

// RequireEnabled fails with MachineTypeNotEnabled unless every type is
// enabled for the mill.
func RequireEnabled(tx *gorm.DB, tenantID int64, types ...model.MachineType) error {
	var enabled []model.MachineType
	err := tx.Model(&model.TenantMachineType{}).
		Where("tenant_id = ? AND enabled = ?", tenantID, true).
		Pluck("type", &enabled).Error
	if err != nil {
		return fmt.Errorf("failed to load machine types: %w", err)
	}

	on := make(map[model.MachineType]struct{}, len(enabled))
	for _, mt := range enabled {
		on[mt] = struct{}{}
	}
	var off []string
	for _, mt := range types {
		if _, ok := on[mt]; !ok {
			off = append(off, string(mt))
		}
	}
	if len(off) > 0 {
		return apperr.WithMetadata(apperr.CodeMachineTypeNotEnabled, "machine types not enabled for mill",
			map[string]string{"types": strings.Join(off, ",")})
	}
	return nil
}

// AddMachines creates spec.Count machines named "<type> <seq>" starting at
// spec.Start. No machine is created if any name is taken.
func (s *Service) AddMachines(ctx context.Context, scope tenancy.Scope, spec BatchSpec) ([]model.Machine, error) {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapSetupMachineEdit); err != nil {
		return nil, err
	}
	mt, err := parseType(spec.Type)
	if err != nil {
		return nil, err
	}
	if spec.Start == 0 {
		spec.Start = 1
	}
	if err := validateBatch(spec); err != nil {
		return nil, err
	}

	names := make([]string, 0, spec.Count)
	for i := 0; i < spec.Count; i++ {
		names = append(names, parse.FormatName(string(mt), spec.Start+i))
	}

	var created []model.Machine
	err = s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		if err := RequireEnabled(tx, scope.TenantID, mt); err != nil {
			return err
		}

		var taken []string
		err := tx.Model(&model.Machine{}).
			Where("tenant_id = ? AND name IN ?", scope.TenantID, names).
			Pluck("name", &taken).Error
		if err != nil {
			return fmt.Errorf("failed to check machine names: %w", err)
		}
		if len(taken) > 0 {
			return apperr.WithMetadata(apperr.CodeMachineNameTaken, "machine names already in use",
				map[string]string{"names": strings.Join(taken, ",")})
		}

		created = make([]model.Machine, 0, len(names))
		for _, name := range names {
			m := model.Machine{
				TenantID:     scope.TenantID,
				Type:         mt,
				Model:        spec.Model,
				Code:         spec.Code,
				Manufacturer: spec.Manufacturer,
				Design:       spec.Design,
				MakeYear:     spec.MakeYear,
				NumInputs:    spec.NumInputs,
				NumOutputs:   spec.NumOutputs,
				Name:         name,
			}
			if err := tx.Create(&m).Error; err != nil {
				return fmt.Errorf("failed to create machine %q: %w", name, err)
			}
			created = append(created, m)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func validateBatch(spec BatchSpec) error {
	bad := map[string]string{}
	if spec.Count < 1 || spec.Count > MaxBatch {
		bad["count"] = fmt.Sprintf("must be between 1 and %d", MaxBatch)
	}
	if spec.Start < 1 || spec.Start > MaxStart {
		bad["start"] = fmt.Sprintf("must be between 1 and %d", MaxStart)
	}
	if strings.TrimSpace(spec.Model) == "" {
		bad["model"] = "is required"
	}
	if spec.NumInputs < 0 || spec.NumOutputs < 0 || spec.MakeYear < 0 {
		bad["counts"] = "must not be negative"
	}
	if len(bad) > 0 {
		return apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid machine batch", bad)
	}
	return nil
}

// ListMachines returns the mill's machines in natural name order.
func (s *Service) ListMachines(ctx context.Context, scope tenancy.Scope) ([]model.Machine, error) {
	machines := []model.Machine{}
	if err := s.store.DB().WithContext(ctx).Where("tenant_id = ?", scope.TenantID).Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to list machines: %w", err)
	}
	assign.SortMachines(machines)
	return machines, nil
}

// RenameMachine changes a machine's display name. Names are unique per mill.
func (s *Service) RenameMachine(ctx context.Context, scope tenancy.Scope, machineID int64, name string) (*model.Machine, error) {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapSetupMachineEdit); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "machine name is required")
	}

	var m *model.Machine
	err := s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		var err error
		if m, err = findMachine(tx, scope.TenantID, machineID); err != nil {
			return err
		}

		var clash int64
		err = tx.Model(&model.Machine{}).
			Where("tenant_id = ? AND name = ? AND id <> ?", scope.TenantID, name, machineID).
			Count(&clash).Error
		if err != nil {
			return fmt.Errorf("failed to check machine name: %w", err)
		}
		if clash > 0 {
			return apperr.WithMetadata(apperr.CodeMachineNameTaken, "machine name already in use",
				map[string]string{"names": name})
		}

		m.Name = name
		if err := tx.Model(m).Update("name", name).Error; err != nil {
			return fmt.Errorf("failed to rename machine %d: %w", machineID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

// DeleteMachine releases the machine from its line, removes it from the
// facility layout and deletes it.
func (s *Service) DeleteMachine(ctx context.Context, scope tenancy.Scope, machineID int64) error {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapSetupMachineEdit); err != nil {
		return err
	}

	return s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		m, err := findMachine(tx, scope.TenantID, machineID)
		if err != nil {
			return err
		}

		if m.LineID != nil {
			line, err := store.FindLine(tx, scope.TenantID, *m.LineID)
			if err != nil {
				return err
			}
			if !line.Editable() {
				return apperr.WithIDs(apperr.CodeLineBusy, "machine is on a running line", line.ID)
			}
			if err := assign.ReleaseMachines(tx, line, []int64{m.ID}); err != nil {
				return err
			}
		}

		if err := layout.DetachMachines(tx, model.FacilityScope(scope.TenantID), []int64{m.ID}); err != nil {
			return err
		}
		if err := tx.Delete(&model.Machine{}, m.ID).Error; err != nil {
			return fmt.Errorf("failed to delete machine %d: %w", m.ID, err)
		}
		return nil
	})
}

func findMachine(tx *gorm.DB, tenantID, machineID int64) (*model.Machine, error) {
	var m model.Machine
	err := tx.Where("id = ? AND tenant_id = ?", machineID, tenantID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithIDs(apperr.CodeMachineNotFound, fmt.Sprintf("machine %d not found", machineID), machineID)
		}
		return nil, fmt.Errorf("failed to load machine %d: %w", machineID, err)
	}
	return &m, nil
}

func parseType(raw string) (model.MachineType, error) {
	mt, ok := model.ParseMachineType(raw)
	if !ok {
		return "", apperr.WithMetadata(apperr.CodeUnknownMachineType,
			fmt.Sprintf("unknown machine type %q", raw), map[string]string{"type": raw})
	}
	return mt, nil
}
