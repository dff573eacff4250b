// Package tenancy resolves the principal of a request to the mill it acts for.
package tenancy

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
)

// Scope is the explicit tenant context passed to every core operation.
type Scope struct {
	TenantID  int64
	Principal string
}

// Resolver maps principals to scopes.
type Resolver struct {
	db *gorm.DB
}

// NewResolver creates a resolver backed by the principals table.
func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve returns the scope of the principal. Unknown principals and
// principals without a mill are forbidden.
func (r *Resolver) Resolve(ctx context.Context, principalID string) (Scope, error) {
	if principalID == "" {
		return Scope{}, apperr.New(apperr.CodeForbidden, "forbidden")
	}

	var p model.Principal
	if err := r.db.WithContext(ctx).Where("id = ?", principalID).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Scope{}, apperr.New(apperr.CodeForbidden, "forbidden")
		}
		return Scope{}, fmt.Errorf("failed to load principal: %w", err)
	}
	if p.TenantID == nil {
		return Scope{}, apperr.New(apperr.CodeForbidden, "forbidden")
	}

	return Scope{TenantID: *p.TenantID, Principal: p.ID}, nil
}
