// Package layout persists the facility and per-line layout graphs.
package layout

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// Store reads and replaces layout graphs.
type Store struct {
	store store.Store
	gate  access.Gate
}

// NewStore creates a layout store.
func NewStore(st store.Store, gate access.Gate) *Store {
	return &Store{store: st, gate: gate}
}

// SaveLine replaces the layout of a line. Every placed machine must be
// assigned to the line. A line waiting for its layout becomes Configured.
func (s *Store) SaveLine(ctx context.Context, scope tenancy.Scope, lineID int64, graph model.LayoutGraph) error {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return err
	}
	if err := Validate(graph); err != nil {
		return err
	}

	return s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		line, err := store.FindLine(tx, scope.TenantID, lineID)
		if err != nil {
			return err
		}
		if !line.Editable() {
			return apperr.WithIDs(apperr.CodeLineBusy, "line is running", lineID)
		}

		refs := machineRefs(graph)
		if len(refs) > 0 {
			var found []int64
			err := tx.Model(&model.Machine{}).
				Where("id IN ? AND tenant_id = ? AND line_id = ?", refs, scope.TenantID, lineID).
				Pluck("id", &found).Error
			if err != nil {
				return fmt.Errorf("failed to check layout machines: %w", err)
			}
			if missing := missingIDs(refs, found); len(missing) > 0 {
				return invalidGraph("machines not assigned to line", nil, missing)
			}
		}

		if err := put(tx, scope.TenantID, model.LineScope(lineID), graph); err != nil {
			return err
		}

		before := line.State
		line.Reconfigure()
		if line.State == model.LineStateMachinesAssigned {
			line.State = model.LineStateConfigured
		}
		if line.State != before {
			return store.SaveLineState(tx, line)
		}
		return nil
	})
}

// SaveFacility replaces the facility-wide layout. Every placed machine must
// belong to the mill.
func (s *Store) SaveFacility(ctx context.Context, scope tenancy.Scope, graph model.LayoutGraph) error {
	if err := access.Require(ctx, s.gate, scope.Principal, access.CapMillLayoutEdit); err != nil {
		return err
	}
	if err := Validate(graph); err != nil {
		return err
	}

	return s.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		refs := machineRefs(graph)
		if len(refs) > 0 {
			var found []int64
			err := tx.Model(&model.Machine{}).
				Where("id IN ? AND tenant_id = ?", refs, scope.TenantID).
				Pluck("id", &found).Error
			if err != nil {
				return fmt.Errorf("failed to check layout machines: %w", err)
			}
			if missing := missingIDs(refs, found); len(missing) > 0 {
				return invalidGraph("machines not owned by mill", nil, missing)
			}
		}
		return put(tx, scope.TenantID, model.FacilityScope(scope.TenantID), graph)
	})
}

// LoadLine returns the layout of a line, or an empty graph.
func (s *Store) LoadLine(ctx context.Context, scope tenancy.Scope, lineID int64) (model.LayoutGraph, error) {
	db := s.store.DB().WithContext(ctx)
	if _, err := store.FindLine(db, scope.TenantID, lineID); err != nil {
		return model.LayoutGraph{}, err
	}
	return get(db, model.LineScope(lineID))
}

// LoadFacility returns the facility layout, or an empty graph.
func (s *Store) LoadFacility(ctx context.Context, scope tenancy.Scope) (model.LayoutGraph, error) {
	return get(s.store.DB().WithContext(ctx), model.FacilityScope(scope.TenantID))
}

// DetachMachines turns the nodes placing the given machines into
// placeholders. It runs inside the caller's transaction.
func DetachMachines(tx *gorm.DB, scopeKey string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	var row model.Layout
	err := tx.Where("scope_key = ?", scopeKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load layout %s: %w", scopeKey, err)
	}

	drop := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	graph := row.Graph.Data()
	changed := false
	for i, n := range graph.Nodes {
		if n.MachineRef == nil {
			continue
		}
		if _, ok := drop[*n.MachineRef]; ok {
			graph.Nodes[i].MachineRef = nil
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return put(tx, row.TenantID, scopeKey, graph)
}

// Delete removes the layout stored under a scope key.
func Delete(tx *gorm.DB, scopeKey string) error {
	if err := tx.Where("scope_key = ?", scopeKey).Delete(&model.Layout{}).Error; err != nil {
		return fmt.Errorf("failed to delete layout %s: %w", scopeKey, err)
	}
	return nil
}

func put(tx *gorm.DB, tenantID int64, scopeKey string, graph model.LayoutGraph) error {
	row := model.Layout{
		TenantID: tenantID,
		ScopeKey: scopeKey,
		Graph:    datatypes.NewJSONType(Normalize(graph)),
	}
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "scope_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"graph", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("failed to save layout %s: %w", scopeKey, err)
	}
	return nil
}

func get(db *gorm.DB, scopeKey string) (model.LayoutGraph, error) {
	var row model.Layout
	err := db.Where("scope_key = ?", scopeKey).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.EmptyGraph(), nil
	}
	if err != nil {
		return model.LayoutGraph{}, fmt.Errorf("failed to load layout %s: %w", scopeKey, err)
	}
	return Normalize(row.Graph.Data()), nil
}

func missingIDs(want, found []int64) []int64 {
	have := make(map[int64]struct{}, len(found))
	for _, id := range found {
		have[id] = struct{}{}
	}
	var missing []int64
	for _, id := range want {
		if _, ok := have[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
