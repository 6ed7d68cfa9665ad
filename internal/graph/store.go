package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/vk/circuitgo/internal/ctxlog"
	"github.com/vk/circuitgo/internal/dag"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/nodeid"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/vk/circuitgo/internal/snapshot"
	"github.com/zclconf/go-cty/cty"
)

// Position is a point on the canvas.
type Position = snapshot.Position

// Edge names a connection by node ids and port names.
type Edge = snapshot.Edge

// PortRef addresses one port of one node.
type PortRef struct {
	Node      string
	Direction flow.Direction
	Port      string
}

type entry struct {
	node *flow.Node
	pos  Position
}

// Store holds the nodes of one graph and the connections between them.
type Store struct {
	rt    *flow.Runtime
	reg   *registry.Registry
	topo  *dag.Graph
	nodes map[string]*entry
}

// New creates an empty store whose nodes are created from reg. ctx bounds
// the async derivations of every node in the store.
func New(ctx context.Context, reg *registry.Registry, opts ...flow.Option) *Store {
	return &Store{
		rt:    flow.NewRuntime(ctx, opts...),
		reg:   reg,
		topo:  dag.New(),
		nodes: make(map[string]*entry),
	}
}

// Runtime returns the runtime shared by all nodes of the store. Callers that
// read ports directly do so inside Runtime().Do.
func (s *Store) Runtime() *flow.Runtime {
	return s.rt
}

// Wait blocks until no async derivation is in flight.
func (s *Store) Wait(ctx context.Context) error {
	return s.rt.Wait(ctx)
}

// Close cancels all async derivations.
func (s *Store) Close() {
	s.rt.Close()
}

// AddNode inserts a node built on the store's runtime at pos.
func (s *Store) AddNode(ctx context.Context, n *flow.Node, pos Position) error {
	var err error
	s.rt.Do(func() { err = s.addNode(ctx, n, pos) })
	return err
}

func (s *Store) addNode(ctx context.Context, n *flow.Node, pos Position) error {
	if n == nil || n.Runtime() != s.rt {
		return errors.New("node must be created on the store's runtime")
	}
	if _, exists := s.nodes[n.ID()]; exists {
		return fmt.Errorf("node %q already exists", n.ID())
	}
	s.nodes[n.ID()] = &entry{node: n, pos: pos}
	s.topo.AddNode(n.ID())
	ctxlog.FromContext(ctx).Debug("Node added.", "node", n.ID(), "kind", n.Kind())
	return nil
}

// Create instantiates a fresh node of the given kind at pos.
func (s *Store) Create(ctx context.Context, kind string, pos Position) (*flow.Node, error) {
	var n *flow.Node
	var err error
	s.rt.Do(func() { n, err = s.create(ctx, kind, "", pos) })
	return n, err
}

func (s *Store) create(ctx context.Context, kind, id string, pos Position) (*flow.Node, error) {
	if id != "" {
		if err := nodeid.Validate(id); err != nil {
			return nil, fmt.Errorf("invalid node id: %w", err)
		}
		if _, exists := s.nodes[id]; exists {
			return nil, fmt.Errorf("node %q already exists", id)
		}
	}
	n, err := s.reg.Instantiate(s.rt, kind, id)
	if err != nil {
		return nil, err
	}
	if err := s.addNode(ctx, n, pos); err != nil {
		n.Close()
		return nil, err
	}
	return n, nil
}

// RemoveNode severs every connection of the node, then removes it.
func (s *Store) RemoveNode(ctx context.Context, id string) error {
	var err error
	s.rt.Do(func() {
		e, ok := s.nodes[id]
		if !ok {
			err = &NodeNotFoundError{ID: id}
			return
		}
		e.node.Close()
		s.topo.RemoveNode(id)
		delete(s.nodes, id)
		ctxlog.FromContext(ctx).Debug("Node removed.", "node", id, "kind", e.node.Kind())
	})
	return err
}

// Move changes a node's canvas position.
func (s *Store) Move(ctx context.Context, id string, pos Position) error {
	var err error
	s.rt.Do(func() {
		e, ok := s.nodes[id]
		if !ok {
			err = &NodeNotFoundError{ID: id}
			return
		}
		e.pos = pos
	})
	return err
}

// Connect wires an output to an input. Besides the port level checks of
// flow.Connect it rejects any edge that would close a cycle in the graph.
func (s *Store) Connect(ctx context.Context, e Edge) error {
	var err error
	s.rt.Do(func() { err = s.connect(ctx, e) })
	return err
}

func (s *Store) connect(ctx context.Context, e Edge) error {
	out, err := s.output(e.SourceNodeID, e.SourcePort)
	if err != nil {
		return err
	}
	in, err := s.input(e.TargetNodeID, e.TargetPort)
	if err != nil {
		return err
	}

	// Same order as flow.Connect: type, then fan-in, then cycles.
	if !out.Schema().IsCompatibleWith(in.Schema()) {
		return &flow.IncompatibleTypeError{
			Output:     out.ID(),
			Input:      in.ID(),
			OutputType: out.Schema().Description(),
			InputType:  in.Schema().Description(),
		}
	}
	if src := in.Source(); src != nil {
		return &flow.AlreadyConnectedError{Input: in.ID(), Source: src.ID()}
	}

	cycle := &flow.CycleError{Output: out.ID(), Input: in.ID()}
	if err := s.topo.AddEdge(e.SourceNodeID, e.TargetNodeID); err != nil {
		return cycle
	}
	if err := s.topo.DetectCycles(); err != nil {
		s.topo.RemoveEdge(e.SourceNodeID, e.TargetNodeID)
		return cycle
	}
	if err := flow.Connect(out, in); err != nil {
		s.topo.RemoveEdge(e.SourceNodeID, e.TargetNodeID)
		return err
	}
	ctxlog.FromContext(ctx).Debug("Ports connected.", "output", out.ID(), "input", in.ID())
	return nil
}

// Disconnect removes the connection feeding the named input. Disconnecting
// an input without a source does nothing.
func (s *Store) Disconnect(ctx context.Context, nodeID, input string) error {
	var err error
	s.rt.Do(func() {
		var in *flow.Input
		in, err = s.input(nodeID, input)
		if err != nil {
			return
		}
		src := in.Source()
		if src == nil {
			return
		}
		flow.Disconnect(in)
		s.topo.RemoveEdge(src.Node().ID(), nodeID)
		ctxlog.FromContext(ctx).Debug("Ports disconnected.", "output", src.ID(), "input", in.ID())
	})
	return err
}

// Next sets a manual value on an input, see flow.Input.Next.
func (s *Store) Next(ctx context.Context, nodeID, input string, raw any) error {
	var err error
	s.rt.Do(func() {
		var in *flow.Input
		in, err = s.input(nodeID, input)
		if err != nil {
			return
		}
		err = in.Next(raw)
	})
	if err != nil {
		ctxlog.FromContext(ctx).Debug("Value rejected.", "node", nodeID, "port", input, "error", err)
	}
	return err
}

// Subscribe observes a port. The observer runs inside the store's critical
// section and receives every future event of the port.
func (s *Store) Subscribe(ctx context.Context, ref PortRef, fn flow.Observer) (*flow.Subscription, error) {
	var sub *flow.Subscription
	var err error
	s.rt.Do(func() {
		switch ref.Direction {
		case flow.In:
			var in *flow.Input
			if in, err = s.input(ref.Node, ref.Port); err == nil {
				sub = in.Subscribe(fn)
			}
		default:
			var out *flow.Output
			if out, err = s.output(ref.Node, ref.Port); err == nil {
				sub = out.Subscribe(fn)
			}
		}
	})
	return sub, err
}

// Unsubscribe cancels a subscription returned by Subscribe. An observer
// cancelling itself calls sub.Unsubscribe directly.
func (s *Store) Unsubscribe(sub *flow.Subscription) {
	s.rt.Do(sub.Unsubscribe)
}

// Value returns the current value of a port.
func (s *Store) Value(ref PortRef) (cty.Value, error) {
	var v cty.Value
	var err error
	s.rt.Do(func() {
		switch ref.Direction {
		case flow.In:
			var in *flow.Input
			if in, err = s.input(ref.Node, ref.Port); err == nil {
				v, _ = in.Value()
			}
		default:
			var out *flow.Output
			if out, err = s.output(ref.Node, ref.Port); err == nil {
				v, _ = out.Value()
				if v == cty.NilVal {
					err = out.Err()
				}
			}
		}
	})
	return v, err
}

// Node returns the node with the given id.
func (s *Store) Node(id string) (*flow.Node, bool) {
	var e *entry
	s.rt.Do(func() { e = s.nodes[id] })
	if e == nil {
		return nil, false
	}
	return e.node, true
}

// Position returns a node's canvas position.
func (s *Store) Position(id string) (Position, bool) {
	var pos Position
	var ok bool
	s.rt.Do(func() {
		var e *entry
		if e, ok = s.nodes[id]; ok {
			pos = e.pos
		}
	})
	return pos, ok
}

// Nodes returns all nodes sorted by id.
func (s *Store) Nodes() []*flow.Node {
	var nodes []*flow.Node
	s.rt.Do(func() {
		for _, id := range schema.SortedKeys(s.nodes) {
			nodes = append(nodes, s.nodes[id].node)
		}
	})
	return nodes
}

// Edges returns every connection, sorted by target then source.
func (s *Store) Edges() []Edge {
	var edges []Edge
	s.rt.Do(func() { edges = s.edges() })
	return edges
}

func (s *Store) edges() []Edge {
	var edges []Edge
	for _, e := range s.nodes {
		for _, in := range e.node.Inputs() {
			src := in.Source()
			if src == nil {
				continue
			}
			edges = append(edges, Edge{
				SourceNodeID: src.Node().ID(),
				SourcePort:   src.Name(),
				TargetNodeID: e.node.ID(),
				TargetPort:   in.Name(),
			})
		}
	}
	sort.Slice(edges, func(i, j int) bool { return edges[i].Less(edges[j]) })
	return edges
}

// Serialize captures the graph: kinds, positions, manual values of
// unconnected inputs and the edge set.
func (s *Store) Serialize() *snapshot.Snapshot {
	snap := &snapshot.Snapshot{Nodes: []snapshot.Node{}, Edges: []snapshot.Edge{}}
	s.rt.Do(func() {
		for _, id := range schema.SortedKeys(s.nodes) {
			e := s.nodes[id]
			sn := snapshot.Node{ID: id, Kind: e.node.Kind(), Position: e.pos}
			for _, in := range e.node.Inputs() {
				if in.Connected() || in.Manual() == cty.NilVal {
					continue
				}
				if sn.Values == nil {
					sn.Values = make(map[string]any)
				}
				sn.Values[in.Name()] = schema.ToNative(in.Manual())
			}
			snap.Nodes = append(snap.Nodes, sn)
		}
		snap.Edges = append(snap.Edges, s.edges()...)
	})
	return snap
}

func (s *Store) input(nodeID, name string) (*flow.Input, error) {
	e, ok := s.nodes[nodeID]
	if !ok {
		return nil, &NodeNotFoundError{ID: nodeID}
	}
	in, ok := e.node.Input(name)
	if !ok {
		return nil, &PortNotFoundError{Node: nodeID, Direction: flow.In, Port: name}
	}
	return in, nil
}

func (s *Store) output(nodeID, name string) (*flow.Output, error) {
	e, ok := s.nodes[nodeID]
	if !ok {
		return nil, &NodeNotFoundError{ID: nodeID}
	}
	out, ok := e.node.Output(name)
	if !ok {
		return nil, &PortNotFoundError{Node: nodeID, Direction: flow.Out, Port: name}
	}
	return out, nil
}
