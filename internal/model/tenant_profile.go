package model

import "time"

// TenantProfile holds a mill's contact details. There is at most one per
// tenant; it is created with defaults the first time it is read.
type TenantProfile struct {
	TenantID   int64     `gorm:"primaryKey;autoIncrement:false" json:"-"`
	Name       string    `gorm:"size:255" json:"name"`
	UnitNumber string    `gorm:"size:255" json:"unitNumber"`
	Phone      string    `gorm:"size:20" json:"phone"`
	Email      string    `gorm:"size:254" json:"email"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}
