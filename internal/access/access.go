// Package access is the capability gate consulted before every mutation.
package access

import (
	"context"

	"gorm.io/gorm"

	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
)

// Capability names a permission in a principal's permission map.
type Capability string

const (
	CapSetupMachineEdit Capability = "setup_machine_edit"
	CapMillLayoutEdit   Capability = "mill_layout_edit"
	CapLineConfigEdit   Capability = "line_config_edit"
	CapSetShiftEdit     Capability = "set_shift_edit"
	CapMillConfigEdit   Capability = "mill_config_edit"
)

// Gate answers yes/no capability questions.
type Gate interface {
	Can(ctx context.Context, principal string, capability Capability) bool
}

// GateFunc adapts a function to the Gate interface.
type GateFunc func(ctx context.Context, principal string, capability Capability) bool

// Can calls f.
func (f GateFunc) Can(ctx context.Context, principal string, capability Capability) bool {
	return f(ctx, principal, capability)
}

// AllowAll grants everything.
func AllowAll() Gate {
	return GateFunc(func(context.Context, string, Capability) bool { return true })
}

// DenyAll grants nothing.
func DenyAll() Gate {
	return GateFunc(func(context.Context, string, Capability) bool { return false })
}

// Require returns the uniform Forbidden error unless the gate grants the
// capability. The error does not say which capability was missing.
func Require(ctx context.Context, gate Gate, principal string, capability Capability) error {
	if gate == nil || !gate.Can(ctx, principal, capability) {
		return apperr.New(apperr.CodeForbidden, "forbidden")
	}
	return nil
}

// StoreGate reads capabilities from the principals table.
type StoreGate struct {
	db *gorm.DB
}

// NewStoreGate creates a gate backed by stored permission maps.
func NewStoreGate(db *gorm.DB) *StoreGate {
	return &StoreGate{db: db}
}

// Can reports whether the stored principal holds the capability. Lookup
// failures deny.
func (g *StoreGate) Can(ctx context.Context, principal string, capability Capability) bool {
	var p model.Principal
	if err := g.db.WithContext(ctx).Where("id = ?", principal).Take(&p).Error; err != nil {
		return false
	}
	return p.Has(string(capability))
}
