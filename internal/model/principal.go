package model

import (
	"time"

	"gorm.io/datatypes"
)

// Principal is an authenticated user as seen by this service: the mill it
// belongs to and its capability map. Authentication itself happens upstream.
type Principal struct {
	ID          string            `gorm:"primaryKey;size:128"`
	TenantID    *int64            `gorm:"index"`
	Role        string            `gorm:"size:20"`
	Permissions datatypes.JSONMap `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Has reports whether the capability is granted.
func (p Principal) Has(capability string) bool {
	granted, _ := p.Permissions[capability].(bool)
	return granted
}
