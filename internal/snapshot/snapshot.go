// Package snapshot is the persistence contract of a graph: nodes with their
// kind, canvas position and manual input values, plus the edge set. Codecs
// for JSON and YAML live here; HCL is handled by package hcl.
package snapshot

import (
	"sort"
)

// Position is a point on the editor canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a persisted node.
type Node struct {
	ID       string   `json:"id" yaml:"id"`
	Kind     string   `json:"kind" yaml:"kind"`
	Position Position `json:"position" yaml:"position"`
	// Values holds the manual values of unconnected inputs, keyed by input
	// name, in their native form (float64, string, bool, map[string]any).
	Values map[string]any `json:"values,omitempty" yaml:"values,omitempty"`
}

// Edge connects the output SourcePort of SourceNodeID to the input
// TargetPort of TargetNodeID.
type Edge struct {
	SourceNodeID string `json:"sourceNodeId" yaml:"sourceNodeId"`
	SourcePort   string `json:"sourcePort" yaml:"sourcePort"`
	TargetNodeID string `json:"targetNodeId" yaml:"targetNodeId"`
	TargetPort   string `json:"targetPort" yaml:"targetPort"`
}

// Snapshot is a whole graph.
type Snapshot struct {
	Nodes []Node `json:"nodes" yaml:"nodes"`
	Edges []Edge `json:"edges" yaml:"edges"`
}

// Less orders edges by target, then source, so serialized output is stable.
func (e Edge) Less(o Edge) bool {
	if e.TargetNodeID != o.TargetNodeID {
		return e.TargetNodeID < o.TargetNodeID
	}
	if e.TargetPort != o.TargetPort {
		return e.TargetPort < o.TargetPort
	}
	if e.SourceNodeID != o.SourceNodeID {
		return e.SourceNodeID < o.SourceNodeID
	}
	return e.SourcePort < o.SourcePort
}

// Sort orders nodes by id and edges with Edge.Less in place.
func (s *Snapshot) Sort() {
	sort.Slice(s.Nodes, func(i, j int) bool { return s.Nodes[i].ID < s.Nodes[j].ID })
	sort.Slice(s.Edges, func(i, j int) bool { return s.Edges[i].Less(s.Edges[j]) })
}
