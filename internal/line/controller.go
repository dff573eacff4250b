package line

import (
	"context"
	"time"

	"gorm.io/gorm"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
)

// Controller starts and stops lines.
type Controller struct {
	store store.Store
	gate  access.Gate
}

// NewController creates a lifecycle controller.
func NewController(st store.Store, gate access.Gate) *Controller {
	return &Controller{store: st, gate: gate}
}

// Start puts a Configured or Stopped line into production for the given
// window. Both dates are required and start must not be after end.
func (c *Controller) Start(ctx context.Context, scope tenancy.Scope, lineID int64, start, end *time.Time) (*model.Line, error) {
	if err := access.Require(ctx, c.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return nil, err
	}

	var line *model.Line
	err := c.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		var err error
		if line, err = store.FindLine(tx, scope.TenantID, lineID); err != nil {
			return err
		}
		if !line.CanStart() {
			return invalidState(line, "start")
		}
		if start == nil || end == nil {
			return apperr.New(apperr.CodeInvalidWindow, "start and end dates are required")
		}
		if start.After(*end) {
			return apperr.WithMetadata(apperr.CodeInvalidWindow, "start date is after end date", map[string]string{
				"start": start.Format(time.DateOnly),
				"end":   end.Format(time.DateOnly),
			})
		}

		s, e := *start, *end
		line.State = model.LineStateRunning
		line.IsRunning = true
		line.StartDate = &s
		line.EndDate = &e
		return store.SaveLineState(tx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

// Stop takes a Running line out of production. Its machines stay assigned.
func (c *Controller) Stop(ctx context.Context, scope tenancy.Scope, lineID int64) (*model.Line, error) {
	if err := access.Require(ctx, c.gate, scope.Principal, access.CapLineConfigEdit); err != nil {
		return nil, err
	}

	var line *model.Line
	err := c.store.InTenant(ctx, scope.TenantID, func(tx *gorm.DB) error {
		var err error
		if line, err = store.FindLine(tx, scope.TenantID, lineID); err != nil {
			return err
		}
		if !line.CanStop() {
			return invalidState(line, "stop")
		}

		line.State = model.LineStateStopped
		line.IsRunning = false
		line.StartDate = nil
		line.EndDate = nil
		return store.SaveLineState(tx, line)
	})
	if err != nil {
		return nil, err
	}
	return line, nil
}

func invalidState(line *model.Line, op string) error {
	err := apperr.WithIDs(apperr.CodeInvalidState, "cannot "+op+" line in state "+string(line.State), line.ID)
	err.Metadata = map[string]string{"state": string(line.State)}
	return err
}
