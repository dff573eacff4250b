package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// LayoutNode places a machine, or a placeholder when MachineRef is nil.
type LayoutNode struct {
	ID         string  `json:"id"`
	MachineRef *int64  `json:"machineRef"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
}

// LayoutEdge is a directed flow connection between two nodes.
type LayoutEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// LayoutGraph is the persisted topology of a facility or a line.
type LayoutGraph struct {
	Nodes []LayoutNode `json:"nodes"`
	Edges []LayoutEdge `json:"edges"`
}

// EmptyGraph returns a graph with non-nil, empty node and edge lists.
func EmptyGraph() LayoutGraph {
	return LayoutGraph{Nodes: []LayoutNode{}, Edges: []LayoutEdge{}}
}

// Layout stores one graph per scope key.
type Layout struct {
	ID        int64                           `gorm:"primaryKey"`
	TenantID  int64                           `gorm:"index;not null"`
	ScopeKey  string                          `gorm:"uniqueIndex;size:64;not null"`
	Graph     datatypes.JSONType[LayoutGraph] `gorm:"not null"`
	UpdatedAt time.Time                       `gorm:"not null"`
}

// FacilityScope is the scope key of a mill's facility-wide layout.
func FacilityScope(tenantID int64) string {
	return fmt.Sprintf("facility:%d", tenantID)
}

// LineScope is the scope key of a line's layout.
func LineScope(lineID int64) string {
	return fmt.Sprintf("line:%d", lineID)
}
