// Package line manages production lines: their identity, pattern and
// lifecycle.
package line

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/assign"
	"millline-backend/internal/catalog"
	"millline-backend/internal/layout"
	"millline-backend/internal/model"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// Registry creates, edits and deletes lines.
type Registry struct {
	store store.Store
	gate  access.Gate
}

// NewRegistry creates a line registry.
func NewRegistry(st store.Store, gate access.Gate) *Registry {
	return &Registry{store: st, gate: gate}
}

// PatternResult reports the outcome of a pattern change.
type PatternResult struct {
	Line *model.Line `json:"line"`
	// Ineligible lists machines still on the line whose type left the pattern.
	// They stay assigned until released.
	Ineligible []model.Machine `json:"ineligible"`
}

// Create adds a Draft line with an empty pattern.
func (r *Registry) Create(ctx context.Context, scope tenancy.Scope, name, description string) (*model.Line, error) {
	if err := access.Require(ctx, r.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "line name is required")
	}

	line := &model.Line{
		TenantID:    scope.TenantID,
		Name:        name,
		Description: description,
		State:       model.LineStateDraft,
		Pattern:     []model.LinePatternEntry{},
	}
	err := r.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		if err := tx.Create(line).Error; err != nil {
			return fmt.Errorf("failed to create line: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Rename changes the name and description of a line.
func (r *Registry) Rename(ctx context.Context, scope tenancy.Scope, lineID int64, name, description string) (*model.Line, error) {
	if err := access.Require(ctx, r.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.CodeInvalidArgument, "line name is required")
	}

	var line *model.Line
	err := r.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		var err error
		if line, err = store.FindLine(tx, scope.TenantID, lineID); err != nil {
			return err
		}
		line.Name = name
		line.Description = description
		if err := tx.Model(line).Select("name", "description").Updates(line).Error; err != nil {
			return fmt.Errorf("failed to rename line %d: %w", lineID, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// List returns the mill's lines with their patterns.
func (r *Registry) List(ctx context.Context, scope tenancy.Scope) ([]model.Line, error) {
	lines := []model.Line{}
	err := r.store.DB().WithContext(ctx).
		Preload("Pattern", func(db *gorm.DB) *gorm.DB { return db.Order("position") }).
		Where("tenant_id = ?", scope.TenantID).
		Order("id").
		Find(&lines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list lines: %w", err)
	}
	return lines, nil
}

// Get returns one line with its pattern.
func (r *Registry) Get(ctx context.Context, scope tenancy.Scope, lineID int64) (*model.Line, error) {
	return store.FindLine(r.store.DB().WithContext(ctx), scope.TenantID, lineID)
}

// SetPattern replaces the ordered pattern of a line. Machines already on the
// line are not released; those no longer permitted are returned as
// ineligible.
func (r *Registry) SetPattern(ctx context.Context, scope tenancy.Scope, lineID int64, rawTypes []string) (*PatternResult, error) {
	if err := access.Require(ctx, r.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return nil, err
	}
	types, err := parsePattern(rawTypes)
	if err != nil {
		return nil, err
	}

	var result *PatternResult
	err = r.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		line, err := store.FindLine(tx, scope.TenantID, lineID)
		if err != nil {
			return err
		}
		if !line.Editable() {
			return apperr.WithIDs(apperr.CodeLineBusy, "line is running", lineID)
		}
		if err := catalog.RequireEnabled(tx, scope.TenantID, types...); err != nil {
			return err
		}

		if err := tx.Where("line_id = ?", lineID).Delete(&model.LinePatternEntry{}).Error; err != nil {
			return fmt.Errorf("failed to clear pattern: %w", err)
		}
		line.Pattern = make([]model.LinePatternEntry, 0, len(types))
		for i, mt := range types {
			entry := model.LinePatternEntry{LineID: lineID, Position: i, Type: mt}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to save pattern: %w", err)
			}
			line.Pattern = append(line.Pattern, entry)
		}

		before := line.State
		line.Reconfigure()
		line.Advance(model.LineStatePatternSelected)
		if line.State != before {
			if err := store.SaveLineState(tx, line); err != nil {
				return err
			}
		}

		ineligible, err := ineligibleMachines(tx, line)
		if err != nil {
			return err
		}
		result = &PatternResult{Line: line, Ineligible: ineligible}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Inconsistencies returns the machines on the line whose type is outside the
// current pattern.
func (r *Registry) Inconsistencies(ctx context.Context, scope tenancy.Scope, lineID int64) ([]model.Machine, error) {
	db := r.store.DB().WithContext(ctx)
	line, err := store.FindLine(db, scope.TenantID, lineID)
	if err != nil {
		return nil, err
	}
	return ineligibleMachines(db, line)
}

// Delete releases the line's machines, then removes its layout, pattern and
// the line itself.
func (r *Registry) Delete(ctx context.Context, scope tenancy.Scope, lineID int64) error {
	if err := access.Require(ctx, r.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return err
	}

	return r.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		if _, err := store.FindLine(tx, scope.TenantID, lineID); err != nil {
			return err
		}
		if _, err := assign.ReleaseAll(tx, lineID); err != nil {
			return err
		}
		if err := layout.Delete(tx, model.LineScope(lineID)); err != nil {
			return err
		}
		if err := tx.Where("line_id = ?", lineID).Delete(&model.LinePatternEntry{}).Error; err != nil {
			return fmt.Errorf("failed to delete pattern: %w", err)
		}
		if err := tx.Delete(&model.Line{}, lineID).Error; err != nil {
			return fmt.Errorf("failed to delete line %d: %w", lineID, err)
		}
		return nil
	})
}

func parsePattern(raw []string) ([]model.MachineType, error) {
	if len(raw) == 0 {
		return nil, apperr.New(apperr.CodeInvalidArgument, "pattern must name at least one machine type")
	}

	types := make([]model.MachineType, 0, len(raw))
	seen := make(map[model.MachineType]struct{}, len(raw))
	for _, s := range raw {
		mt, ok := model.ParseMachineType(s)
		if !ok {
			return nil, apperr.WithMetadata(apperr.CodeUnknownMachineType,
				fmt.Sprintf("unknown machine type %q", s), map[string]string{"type": s})
		}
		if _, dup := seen[mt]; dup {
			return nil, apperr.WithMetadata(apperr.CodeInvalidArgument,
				fmt.Sprintf("machine type %s listed twice", mt), map[string]string{"type": string(mt)})
		}
		seen[mt] = struct{}{}
		types = append(types, mt)
	}
	return types, nil
}

func ineligibleMachines(db *gorm.DB, line *model.Line) ([]model.Machine, error) {
	machines := []model.Machine{}
	q := db.Where("line_id = ?", line.ID)
	if types := line.PatternTypes(); len(types) > 0 {
		q = q.Where("type NOT IN ?", types)
	}
	if err := q.Find(&machines).Error; err != nil {
		return nil, fmt.Errorf("failed to load line machines: %w", err)
	}
	assign.SortMachines(machines)
	return machines, nil
}
