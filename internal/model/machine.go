package model

import "time"

// HandlingParameters holds per-machine loading and unloading metadata.
type HandlingParameters struct {
	LoadingTimeMins   *int     `json:"loadingTimeMins"`
	UnloadingTimeMins *int     `json:"unloadingTimeMins"`
	LoadingMeters     *float64 `json:"loadingMeters"`
	UnloadingMeters   *float64 `json:"unloadingMeters"`
	LoadingKg         *float64 `json:"loadingKg"`
	UnloadingKg       *float64 `json:"unloadingKg"`
}

// Machine represents a physical machine owned by a mill.
type Machine struct {
	ID           int64       `gorm:"primaryKey" json:"id"`
	TenantID     int64       `gorm:"index;not null" json:"tenantId"`
	Type         MachineType `gorm:"size:16;index;not null" json:"type"`
	Model        string      `gorm:"size:100;not null" json:"model"`
	Code         string      `gorm:"size:100" json:"code"`
	Manufacturer string      `gorm:"size:100" json:"manufacturer"`
	Design       string      `gorm:"size:100" json:"design"`
	MakeYear     int         `json:"makeYear"`
	NumInputs    int         `json:"numInputs"`
	NumOutputs   int         `json:"numOutputs"`
	Name         string      `gorm:"size:128;not null" json:"name"`

	// LineID is the assignment. Only the assignment engine writes it.
	LineID *int64 `gorm:"index" json:"lineId"`

	Handling  HandlingParameters `gorm:"embedded" json:"handling"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// AssignedTo reports whether the machine is bound to the given line.
func (m Machine) AssignedTo(lineID int64) bool {
	return m.LineID != nil && *m.LineID == lineID
}

// Assigned reports whether the machine is bound to any line.
func (m Machine) Assigned() bool {
	return m.LineID != nil
}
