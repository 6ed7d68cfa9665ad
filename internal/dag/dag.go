package dag

import (
	"fmt"
	"sort"
)

// New creates and returns an initialized, empty Graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*node),
	}
}

// AddNode adds a new node with the given ID to the graph. If a node with
// the same ID already exists, the function does nothing.
func (g *Graph) AddNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if _, ok := g.nodes[id]; ok {
		return
	}

	g.nodes[id] = &node{
		id:         id,
		deps:       make(map[string]int),
		dependents: make(map[string]int),
	}
}

// RemoveNode deletes the node and every edge touching it. Unknown IDs are
// ignored.
func (g *Graph) RemoveNode(id string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	n, ok := g.nodes[id]
	if !ok {
		return
	}
	for depID := range n.deps {
		delete(g.nodes[depID].dependents, id)
	}
	for depID := range n.dependents {
		delete(g.nodes[depID].deps, id)
	}
	delete(g.nodes, id)
}

// HasNode reports whether the node exists.
func (g *Graph) HasNode(id string) bool {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	_, ok := g.nodes[id]
	return ok
}

// AddEdge creates a directed edge from the `fromID` node to the `toID` node.
// This signifies that `toID` has a dependency on `fromID`. Adding the same
// edge again increments its multiplicity. An error is returned if either node
// does not exist or if the edge would create a self-reference.
func (g *Graph) AddEdge(fromID, toID string) error {
	if fromID == toID {
		return fmt.Errorf("self-referential edge not allowed: %s -> %s", fromID, fromID)
	}

	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok {
		return fmt.Errorf("source node not found: %s", fromID)
	}

	toNode, ok := g.nodes[toID]
	if !ok {
		return fmt.Errorf("destination node not found: %s", toID)
	}

	toNode.deps[fromID]++
	fromNode.dependents[toID]++

	return nil
}

// RemoveEdge removes one edge from `fromID` to `toID`. It reports whether an
// edge was removed.
func (g *Graph) RemoveEdge(fromID, toID string) bool {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	fromNode, ok := g.nodes[fromID]
	if !ok || fromNode.dependents[toID] == 0 {
		return false
	}
	toNode := g.nodes[toID]

	fromNode.dependents[toID]--
	toNode.deps[fromID]--
	if fromNode.dependents[toID] == 0 {
		delete(fromNode.dependents, toID)
		delete(toNode.deps, fromID)
	}
	return true
}

// Dependencies returns the sorted IDs of the nodes the given node depends on.
func (g *Graph) Dependencies(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.deps), nil
}

// Dependents returns the sorted IDs of the nodes that depend on the given node.
func (g *Graph) Dependents(id string) ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	n, ok := g.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node not found: %s", id)
	}
	return sortedIDs(n.dependents), nil
}

// DetectCycles checks the graph for any cycles. It returns a non-nil error
// if a cycle is found, indicating the first node involved in the detected cycle.
func (g *Graph) DetectCycles() error {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	// Use classic depth-first search with three sets of nodes:
	// permanent: nodes that have been fully visited and are not part of a cycle.
	// temporary: nodes currently in the recursion stack for the current traversal.
	// unvisited: all other nodes.
	permanent := make(map[string]bool)
	temporary := make(map[string]bool)

	var visit func(n *node) error
	visit = func(n *node) error {
		if permanent[n.id] {
			return nil
		}
		if temporary[n.id] {
			return fmt.Errorf("cycle detected involving node '%s'", n.id)
		}

		temporary[n.id] = true
		for _, id := range sortedIDs(n.dependents) {
			if err := visit(g.nodes[id]); err != nil {
				return err
			}
		}
		delete(temporary, n.id)
		permanent[n.id] = true

		return nil
	}

	// Sorted so the reported node is stable between runs.
	for _, id := range sortedIDs(g.idSet()) {
		if err := visit(g.nodes[id]); err != nil {
			return err
		}
	}

	return nil
}

// TopologicalOrder returns every node ID such that each node comes after all
// of its dependencies. Ties are broken by ID (Kahn's algorithm over a sorted
// frontier), so the order is deterministic.
func (g *Graph) TopologicalOrder() ([]string, error) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()

	indegree := make(map[string]int, len(g.nodes))
	var frontier []string
	for id, n := range g.nodes {
		indegree[id] = len(n.deps)
		if len(n.deps) == 0 {
			frontier = append(frontier, id)
		}
	}
	sort.Strings(frontier)

	order := make([]string, 0, len(g.nodes))
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		order = append(order, id)

		var ready []string
		for depID := range g.nodes[id].dependents {
			indegree[depID]--
			if indegree[depID] == 0 {
				ready = append(ready, depID)
			}
		}
		frontier = append(frontier, ready...)
		sort.Strings(frontier)
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("graph has a cycle: %d of %d nodes ordered", len(order), len(g.nodes))
	}
	return order, nil
}

func (g *Graph) idSet() map[string]int {
	ids := make(map[string]int, len(g.nodes))
	for id := range g.nodes {
		ids[id] = 0
	}
	return ids
}

func sortedIDs(m map[string]int) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
