package graph

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/dag"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/vk/circuitgo/internal/snapshot"
)

// Load rebuilds a graph from snap. Nodes are instantiated by kind, edges are
// replayed in topological order of their endpoints and manual values are
// restored on inputs left unconnected.
//
// Load never drops anything silently. Whatever cannot be restored (an
// unknown kind, edges touching such a node, a rejected connection or value)
// is collected into a *LoadError returned together with the store holding
// everything else.
func Load(ctx context.Context, reg *registry.Registry, snap *snapshot.Snapshot, opts ...flow.Option) (*Store, error) {
	logger := ctxlog.FromContext(ctx)
	s := New(ctx, reg, opts...)
	if snap == nil {
		return s, nil
	}

	var errs []error
	s.rt.Do(func() {
		nodes := append([]snapshot.Node(nil), snap.Nodes...)
		sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

		for _, sn := range nodes {
			if sn.ID == "" {
				errs = append(errs, fmt.Errorf("node of kind %q: id is required", sn.Kind))
				continue
			}
			if _, err := s.create(ctx, sn.Kind, sn.ID, sn.Position); err != nil {
				errs = append(errs, fmt.Errorf("node %s: %w", sn.ID, err))
			}
		}

		edges, problems := s.replayOrder(snap.Edges)
		errs = append(errs, problems...)
		for _, e := range edges {
			if err := s.connect(ctx, e); err != nil {
				errs = append(errs, fmt.Errorf("edge %s: %w", describe(e), err))
			}
		}

		for _, sn := range nodes {
			if _, ok := s.nodes[sn.ID]; !ok {
				continue
			}
			for _, name := range schema.SortedKeys(sn.Values) {
				in, err := s.input(sn.ID, name)
				if err != nil {
					errs = append(errs, fmt.Errorf("value %s.%s: %w", sn.ID, name, err))
					continue
				}
				if in.Connected() {
					continue
				}
				if err := in.Next(sn.Values[name]); err != nil {
					errs = append(errs, fmt.Errorf("value %s.%s: %w", sn.ID, name, err))
				}
			}
		}
	})

	logger.Debug("Graph loaded.", "nodes", len(s.nodes), "edges", len(snap.Edges), "problems", len(errs))
	if len(errs) > 0 {
		return s, &LoadError{Errs: errs}
	}
	return s, nil
}

// replayOrder drops edges whose endpoints were not loaded and sorts the rest
// so that every edge into a node comes before the edges out of it.
func (s *Store) replayOrder(edges []Edge) ([]Edge, []error) {
	topo := dag.New()
	var kept []Edge
	var missing []error
	for _, e := range edges {
		var absent []string
		for _, id := range []string{e.SourceNodeID, e.TargetNodeID} {
			if _, ok := s.nodes[id]; !ok {
				absent = append(absent, id)
			}
		}
		if len(absent) > 0 {
			missing = append(missing, fmt.Errorf("edge %s: %w", describe(e), &NodeNotFoundError{ID: absent[0]}))
			continue
		}
		topo.AddNode(e.SourceNodeID)
		topo.AddNode(e.TargetNodeID)
		// A self loop is reported by connect.
		_ = topo.AddEdge(e.SourceNodeID, e.TargetNodeID)
		kept = append(kept, e)
	}

	order, err := topo.TopologicalOrder()
	if err != nil {
		// Cyclic input: replay in file order and let connect reject the
		// edge that closes the cycle.
		order = nil
	}
	rank := make(map[string]int, len(order))
	for i, id := range order {
		rank[id] = i
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return rank[kept[i].TargetNodeID] < rank[kept[j].TargetNodeID]
	})

	return kept, missing
}

func describe(e Edge) string {
	return fmt.Sprintf("%s.%s -> %s.%s", e.SourceNodeID, e.SourcePort, e.TargetNodeID, e.TargetPort)
}
