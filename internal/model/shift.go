package model

import "time"

// Shift is a named working window of a mill.
type Shift struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	TenantID  int64     `gorm:"index;not null" json:"tenantId"`
	Number    string    `gorm:"size:10;not null" json:"number"`
	Name      string    `gorm:"size:100;not null" json:"name"`
	StartTime time.Time `gorm:"not null" json:"startTime"`
	EndTime   time.Time `gorm:"not null" json:"endTime"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
