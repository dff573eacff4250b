// Package assign owns the machine to line assignment. No other package writes
// machines.line_id.
package assign

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/layout"
	"millline-backend/internal/model"
	"millline-backend/internal/parse"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// Engine assigns and releases machines.
type Engine struct {
	store store.Store
	gate  access.Gate
}

// NewEngine creates an assignment engine.
func NewEngine(st store.Store, gate access.Gate) *Engine {
	return &Engine{store: st, gate: gate}
}

// ListAssignable returns the mill's machines whose type is in the line's
// pattern and that are free or already on the line, in natural name order.
func (e *Engine) ListAssignable(ctx context.Context, scope tenancy.Scope, lineID int64) ([]model.Machine, error) {
	db := e.store.DB().WithContext(ctx)

	line, err := store.FindLine(db, scope.TenantID, lineID)
	if err != nil {
		return nil, err
	}

	machines := []model.Machine{}
	types := line.PatternTypes()
	if len(types) == 0 {
		return machines, nil
	}

	err = db.Where("tenant_id = ? AND type IN ? AND (line_id IS NULL OR line_id = ?)", scope.TenantID, types, lineID).
		Find(&machines).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list assignable machines: %w", err)
	}
	SortMachines(machines)
	return machines, nil
}

// Assign binds every listed machine to the line, or none of them.
func (e *Engine) Assign(ctx context.Context, scope tenancy.Scope, lineID int64, machineIDs []int64) error {
	if err := access.Require(ctx, e.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return err
	}
	ids := dedupe(machineIDs)
	if len(ids) == 0 {
		return apperr.New(apperr.CodeInvalidArgument, "no machines given")
	}

	return e.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		line, err := store.FindLine(tx, scope.TenantID, lineID)
		if err != nil {
			return err
		}
		if !line.Editable() {
			return apperr.WithIDs(apperr.CodeLineBusy, "line is running", lineID)
		}

		var machines []model.Machine
		if err := tx.Where("id IN ?", ids).Find(&machines).Error; err != nil {
			return fmt.Errorf("failed to load machines: %w", err)
		}
		if err := checkAssignable(scope.TenantID, line, ids, machines); err != nil {
			return err
		}

		err = tx.Model(&model.Machine{}).
			Where("id IN ? AND tenant_id = ?", ids, scope.TenantID).
			Update("line_id", lineID).Error
		if err != nil {
			return fmt.Errorf("failed to assign machines: %w", err)
		}

		before := line.State
		line.Reconfigure()
		line.Advance(model.LineStateMachinesAssigned)
		if line.State != before {
			return store.SaveLineState(tx, line)
		}
		return nil
	})
}

// checkAssignable reports the first class of offending ids, in the order
// missing, foreign, taken, outside pattern.
func checkAssignable(tenantID int64, line *model.Line, ids []int64, machines []model.Machine) error {
	byID := make(map[int64]model.Machine, len(machines))
	for _, m := range machines {
		byID[m.ID] = m
	}

	var missing, foreign, taken, outside []int64
	for _, id := range ids {
		m, ok := byID[id]
		switch {
		case !ok:
			missing = append(missing, id)
		case m.TenantID != tenantID:
			foreign = append(foreign, id)
		case m.Assigned() && !m.AssignedTo(line.ID):
			taken = append(taken, id)
		case !line.Permits(m.Type):
			outside = append(outside, id)
		}
	}

	switch {
	case len(missing) > 0:
		return apperr.WithIDs(apperr.CodeMachineNotFound, "machines not found", missing...)
	case len(foreign) > 0:
		return apperr.WithIDs(apperr.CodeNotOwned, "machines belong to another mill", foreign...)
	case len(taken) > 0:
		return apperr.WithIDs(apperr.CodeAlreadyAssignedElsewhere, "machines already assigned to another line", taken...)
	case len(outside) > 0:
		return apperr.WithIDs(apperr.CodeMachineTypeNotInPattern, "machine types not in line pattern", outside...)
	}
	return nil
}

// Release unbinds the listed machines from the line. Machines not on the line
// and a missing line are ignored.
func (e *Engine) Release(ctx context.Context, scope tenancy.Scope, lineID int64, machineIDs []int64) error {
	if err := access.Require(ctx, e.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return err
	}
	ids := dedupe(machineIDs)
	if len(ids) == 0 {
		return nil
	}

	return e.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		line, err := store.FindLine(tx, scope.TenantID, lineID)
		if errors.Is(err, apperr.ErrLineNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if !line.Editable() {
			return apperr.WithIDs(apperr.CodeLineBusy, "line is running", lineID)
		}

		var onLine []int64
		err = tx.Model(&model.Machine{}).
			Where("id IN ? AND tenant_id = ? AND line_id = ?", ids, scope.TenantID, lineID).
			Pluck("id", &onLine).Error
		if err != nil {
			return fmt.Errorf("failed to load machines: %w", err)
		}
		return ReleaseMachines(tx, line, onLine)
	})
}

// ReleaseMachines clears the assignment of machines known to be on the line,
// turns their layout nodes into placeholders and moves an emptied line back to
// PatternSelected. It runs inside the caller's tenant transaction.
func ReleaseMachines(tx *gorm.DB, line *model.Line, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	err := tx.Model(&model.Machine{}).
		Where("id IN ? AND line_id = ?", ids, line.ID).
		Update("line_id", nil).Error
	if err != nil {
		return fmt.Errorf("failed to release machines: %w", err)
	}
	if err := layout.DetachMachines(tx, model.LineScope(line.ID), ids); err != nil {
		return err
	}

	var remaining int64
	if err := tx.Model(&model.Machine{}).Where("line_id = ?", line.ID).Count(&remaining).Error; err != nil {
		return fmt.Errorf("failed to count line machines: %w", err)
	}

	before := line.State
	line.Reconfigure()
	if remaining == 0 {
		line.Regress(model.LineStatePatternSelected)
	}
	if line.State != before {
		return store.SaveLineState(tx, line)
	}
	return nil
}

// ReleaseAll clears every assignment to the line and returns the released
// machine ids. Used when the line itself goes away.
func ReleaseAll(tx *gorm.DB, lineID int64) ([]int64, error) {
	var ids []int64
	if err := tx.Model(&model.Machine{}).Where("line_id = ?", lineID).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load line machines: %w", err)
	}
	if len(ids) == 0 {
		return ids, nil
	}
	if err := tx.Model(&model.Machine{}).Where("line_id = ?", lineID).Update("line_id", nil).Error; err != nil {
		return nil, fmt.Errorf("failed to release line machines: %w", err)
	}
	return ids, nil
}

// SetHandlingParameters applies the same parameters to every listed machine.
// All machines must be on the line.
func (e *Engine) SetHandlingParameters(ctx context.Context, scope tenancy.Scope, lineID int64, machineIDs []int64, params model.HandlingParameters) error {
	if err := access.Require(ctx, e.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return err
	}
	if err := validateHandling(params); err != nil {
		return err
	}
	ids := dedupe(machineIDs)
	if len(ids) == 0 {
		return apperr.New(apperr.CodeInvalidArgument, "no machines given")
	}

	return e.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		if _, err := store.FindLine(tx, scope.TenantID, lineID); err != nil {
			return err
		}

		var onLine []int64
		err := tx.Model(&model.Machine{}).
			Where("id IN ? AND tenant_id = ? AND line_id = ?", ids, scope.TenantID, lineID).
			Pluck("id", &onLine).Error
		if err != nil {
			return fmt.Errorf("failed to load machines: %w", err)
		}
		if missing := subtract(ids, onLine); len(missing) > 0 {
			return apperr.WithIDs(apperr.CodeNotAssigned, "machines not assigned to line", missing...)
		}

		err = tx.Model(&model.Machine{}).Where("id IN ?", ids).Updates(map[string]interface{}{
			"loading_time_mins":   params.LoadingTimeMins,
			"unloading_time_mins": params.UnloadingTimeMins,
			"loading_meters":      params.LoadingMeters,
			"unloading_meters":    params.UnloadingMeters,
			"loading_kg":          params.LoadingKg,
			"unloading_kg":        params.UnloadingKg,
		}).Error
		if err != nil {
			return fmt.Errorf("failed to update handling parameters: %w", err)
		}
		return nil
	})
}

func validateHandling(p model.HandlingParameters) error {
	bad := map[string]string{}
	for name, v := range map[string]*int{
		"loadingTimeMins":   p.LoadingTimeMins,
		"unloadingTimeMins": p.UnloadingTimeMins,
	} {
		if v != nil && *v < 0 {
			bad[name] = "must not be negative"
		}
	}
	for name, v := range map[string]*float64{
		"loadingMeters":   p.LoadingMeters,
		"unloadingMeters": p.UnloadingMeters,
		"loadingKg":       p.LoadingKg,
		"unloadingKg":     p.UnloadingKg,
	} {
		if v != nil && *v < 0 {
			bad[name] = "must not be negative"
		}
	}
	if len(bad) > 0 {
		return apperr.WithMetadata(apperr.CodeInvalidArgument, "invalid handling parameters", bad)
	}
	return nil
}

// SortMachines orders machines by natural name order, then id.
func SortMachines(machines []model.Machine) {
	sort.SliceStable(machines, func(i, j int) bool {
		a, b := machines[i], machines[j]
		if parse.Less(a.Name, b.Name) {
			return true
		}
		if parse.Less(b.Name, a.Name) {
			return false
		}
		return a.ID < b.ID
	})
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func subtract(ids, remove []int64) []int64 {
	drop := make(map[int64]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	var out []int64
	for _, id := range ids {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
