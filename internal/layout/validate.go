package layout

import (
	"fmt"
	"sort"
	"strings"

	"millline-backend/internal/apperr"
	"millline-backend/internal/model"
)

// Validate checks the shape of a graph: node ids are non-empty and unique,
// edges connect two distinct existing nodes, no edge repeats and no machine is
// placed twice. References to machines are checked by the store.
func Validate(g model.LayoutGraph) error {
	nodes := make(map[string]struct{}, len(g.Nodes))
	placed := make(map[int64]string, len(g.Nodes))

	var badNodes []string
	var twice []int64

	for _, n := range g.Nodes {
		if strings.TrimSpace(n.ID) == "" {
			return invalidGraph("node with empty id", nil, nil)
		}
		if _, dup := nodes[n.ID]; dup {
			badNodes = append(badNodes, n.ID)
			continue
		}
		nodes[n.ID] = struct{}{}

		if n.MachineRef != nil {
			if _, dup := placed[*n.MachineRef]; dup {
				twice = append(twice, *n.MachineRef)
			}
			placed[*n.MachineRef] = n.ID
		}
	}
	if len(badNodes) > 0 {
		return invalidGraph("duplicate node ids", badNodes, nil)
	}
	if len(twice) > 0 {
		return invalidGraph("machine placed more than once", nil, twice)
	}

	type key struct{ from, to string }
	edges := make(map[key]struct{}, len(g.Edges))
	for _, e := range g.Edges {
		for _, end := range []string{e.From, e.To} {
			if _, ok := nodes[end]; !ok {
				badNodes = append(badNodes, end)
			}
		}
		if len(badNodes) > 0 {
			return invalidGraph("edge references unknown node", badNodes, nil)
		}
		if e.From == e.To {
			return invalidGraph("self loop", []string{e.From}, nil)
		}
		k := key{e.From, e.To}
		if _, dup := edges[k]; dup {
			return invalidGraph("duplicate edge", []string{e.From, e.To}, nil)
		}
		edges[k] = struct{}{}
	}
	return nil
}

// Normalize replaces nil node and edge lists with empty ones.
func Normalize(g model.LayoutGraph) model.LayoutGraph {
	if g.Nodes == nil {
		g.Nodes = []model.LayoutNode{}
	}
	if g.Edges == nil {
		g.Edges = []model.LayoutEdge{}
	}
	return g
}

// machineRefs returns the distinct machine ids referenced by the graph.
func machineRefs(g model.LayoutGraph) []int64 {
	var ids []int64
	for _, n := range g.Nodes {
		if n.MachineRef != nil {
			ids = append(ids, *n.MachineRef)
		}
	}
	return ids
}

func invalidGraph(reason string, nodes []string, machines []int64) error {
	err := apperr.WithIDs(apperr.CodeInvalidGraph, fmt.Sprintf("invalid graph: %s", reason), machines...)
	if len(nodes) > 0 {
		sort.Strings(nodes)
		err.Metadata = map[string]string{"nodes": strings.Join(nodes, ",")}
	}
	return err
}
