package shift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"millline-backend/internal/access"
	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
	"millline-backend/internal/store"
	"millline-backend/internal/tenancy"
	"millline-backend/internal/testdb"
)

func at(hour int) time.Time {
	return time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC)
}

func TestService(t *testing.T) {
	ctx := context.Background()
	gormDB := testdb.Open(t)
	m1 := testdb.Tenant(t, gormDB, "M1")
	m2 := testdb.Tenant(t, gormDB, "M2")
	st := store.NewGormStore(gormDB)

	svc := NewService(st, access.AllowAll())
	scope := tenancy.Scope{TenantID: m1.ID, Principal: "admin@m1"}

	night, err := svc.Save(ctx, scope, model.Shift{Number: "3", Name: "Night", StartTime: at(22), EndTime: at(23)})
	require.NoError(t, err)
	morning, err := svc.Save(ctx, scope, model.Shift{Number: "1", Name: " Morning ", StartTime: at(6), EndTime: at(14)})
	require.NoError(t, err)
	assert.Equal(t, "Morning", morning.Name)

	shifts, err := svc.List(ctx, scope)
	require.NoError(t, err)
	require.Len(t, shifts, 2)
	assert.Equal(t, morning.ID, shifts[0].ID)
	assert.Equal(t, night.ID, shifts[1].ID)

	night.Name = "Late"
	night.StartTime = at(21)
	_, err = svc.Save(ctx, scope, *night)
	require.NoError(t, err)

	shifts, err = svc.List(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, "Late", shifts[1].Name)
	assert.True(t, shifts[1].StartTime.Equal(at(21)))

	testCases := []struct {
		name    string
		shift   model.Shift
		wantErr error
	}{
		{name: "Missing name", shift: model.Shift{Number: "2", StartTime: at(14), EndTime: at(22)}, wantErr: apperr.ErrInvalidArgument},
		{name: "Empty window", shift: model.Shift{Number: "2", Name: "A", StartTime: at(14), EndTime: at(14)}, wantErr: apperr.ErrInvalidWindow},
		{name: "Reversed window", shift: model.Shift{Number: "2", Name: "A", StartTime: at(22), EndTime: at(14)}, wantErr: apperr.ErrInvalidWindow},
		{name: "Unknown id", shift: model.Shift{ID: 424242, Number: "2", Name: "A", StartTime: at(14), EndTime: at(22)}, wantErr: apperr.ErrShiftNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Save(ctx, scope, tc.shift)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	otherScope := tenancy.Scope{TenantID: m2.ID, Principal: "admin@m2"}
	empty, err := svc.List(ctx, otherScope)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.ErrorIs(t, svc.Delete(ctx, otherScope, morning.ID), apperr.ErrShiftNotFound)

	denied := NewService(st, access.DenyAll())
	assert.ErrorIs(t, denied.Delete(ctx, scope, morning.ID), apperr.ErrForbidden)

	require.NoError(t, svc.Delete(ctx, scope, morning.ID))
	shifts, err = svc.List(ctx, scope)
	require.NoError(t, err)
	require.Len(t, shifts, 1)
	assert.Equal(t, night.ID, shifts[0].ID)
}
