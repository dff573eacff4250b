package model

import (
	"sort"
	"time"
)

// Line is a production line composed from a mill's machines.
type Line struct {
	ID          int64      `gorm:"primaryKey" json:"id"`
	TenantID    int64      `gorm:"index;not null" json:"tenantId"`
	Name        string     `gorm:"size:100;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	State       LineState  `gorm:"size:24;not null" json:"state"`
	IsRunning   bool       `gorm:"not null" json:"isRunning"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	// Associations
	Pattern []LinePatternEntry `gorm:"foreignKey:LineID;constraint:OnDelete:CASCADE" json:"-"`
}

// LinePatternEntry is one slot of a line's ordered set of permitted types.
type LinePatternEntry struct {
	LineID   int64       `gorm:"primaryKey"`
	Position int         `gorm:"primaryKey"`
	Type     MachineType `gorm:"size:16;not null"`
}

// PatternTypes returns the pattern in position order.
func (l *Line) PatternTypes() []MachineType {
	entries := make([]LinePatternEntry, len(l.Pattern))
	copy(entries, l.Pattern)
	sort.Slice(entries, func(i, j int) bool { return entries[i].Position < entries[j].Position })

	out := make([]MachineType, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Type)
	}
	return out
}

// Permits reports whether machines of type t may be drawn into the line.
func (l *Line) Permits(t MachineType) bool {
	for _, e := range l.Pattern {
		if e.Type == t {
			return true
		}
	}
	return false
}
