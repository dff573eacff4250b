// Package testdb provides in-memory SQLite databases and fixtures for tests.
package testdb

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"millline-backend/internal/db"
	"millline-backend/internal/model"
)

// Open returns a migrated, private in-memory database.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	// A single connection keeps the in-memory database alive and serializes
	// SQLite writers.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(gormDB))
	return gormDB
}

// Tenant creates a mill with the given machine types enabled.
func Tenant(t testing.TB, gormDB *gorm.DB, code string, types ...model.MachineType) model.Tenant {
	t.Helper()

	tenant := model.Tenant{Code: code, Name: code}
	require.NoError(t, gormDB.Create(&tenant).Error)

	for _, mt := range types {
		row := model.TenantMachineType{TenantID: tenant.ID, Type: mt, Enabled: true}
		require.NoError(t, gormDB.Create(&row).Error)
	}
	return tenant
}

// Machines creates n unassigned machines named "<type> 001".."<type> n".
func Machines(t testing.TB, gormDB *gorm.DB, tenantID int64, mt model.MachineType, n int) []model.Machine {
	t.Helper()

	machines := make([]model.Machine, 0, n)
	for i := 1; i <= n; i++ {
		m := model.Machine{
			TenantID:   tenantID,
			Type:       mt,
			Model:      "LC636",
			NumInputs:  1,
			NumOutputs: 1,
			Name:       fmt.Sprintf("%s %03d", mt, i),
		}
		require.NoError(t, gormDB.Create(&m).Error)
		machines = append(machines, m)
	}
	return machines
}

// IDs collects machine ids.
func IDs(machines ...model.Machine) []int64 {
	ids := make([]int64, 0, len(machines))
	for _, m := range machines {
		ids = append(ids, m.ID)
	}
	return ids
}

// Reload fetches the current state of a machine.
func Reload(t testing.TB, gormDB *gorm.DB, id int64) model.Machine {
	t.Helper()

	var m model.Machine
	require.NoError(t, gormDB.First(&m, id).Error)
	return m
}
