package model

import "time"

// Tenant represents a mill. Everything else in the schema hangs off it.
type Tenant struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:100;not null" json:"code"`
	Name      string    `gorm:"size:255" json:"name"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	// Associations
	MachineTypes []TenantMachineType `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
	Profile      *TenantProfile      `gorm:"foreignKey:TenantID;constraint:OnDelete:CASCADE" json:"-"`
}

// TenantMachineType is the membership relation between a mill and the machine
// types it works with. Disabled rows are kept so toggling is reversible.
type TenantMachineType struct {
	TenantID  int64       `gorm:"primaryKey" json:"-"`
	Type      MachineType `gorm:"primaryKey;size:16" json:"type"`
	Enabled   bool        `gorm:"not null" json:"enabled"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
