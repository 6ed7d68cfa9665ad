package flow

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// InputSpec declares one input port.
type InputSpec struct {
	Name   string
	Schema *schema.Schema
	// Default, when non-nil, is parsed with Schema and becomes the input's
	// value whenever it has neither a source nor a manual value.
	Default any
}

// OutputSpec declares one output port and how it is derived.
type OutputSpec struct {
	Name   string
	Schema *schema.Schema
	Derive Derive
}

// Spec is the fixed shape of a node.
type Spec struct {
	Kind        string
	DisplayName string
	Inputs      []InputSpec
	Outputs     []OutputSpec
}

// Node is a processing unit with fixed inputs and outputs.
type Node struct {
	id          string
	kind        string
	displayName string
	rt          *Runtime

	inputs  []*Input
	outputs []*Output
	byIn    map[string]*Input
	byOut   map[string]*Output

	// rank is the length of the longest path from a node without sources.
	rank   int
	closed bool
}

// NewNode builds a node from spec and binds it to rt. An empty id is
// replaced by a random UUID. Defaults are applied and every output whose
// inputs all hold values is computed before NewNode returns. Like every other
// mutation it must run inside rt.Do when the runtime is shared between
// goroutines.
func NewNode(rt *Runtime, id string, spec Spec) (*Node, error) {
	if rt == nil {
		return nil, fmt.Errorf("node %q: runtime is nil", id)
	}
	if id == "" {
		id = uuid.NewString()
	}
	n := &Node{
		id:          id,
		kind:        spec.Kind,
		displayName: spec.DisplayName,
		rt:          rt,
		byIn:        make(map[string]*Input, len(spec.Inputs)),
		byOut:       make(map[string]*Output, len(spec.Outputs)),
	}
	if n.displayName == "" {
		n.displayName = spec.Kind
	}

	for _, is := range spec.Inputs {
		if is.Name == "" || is.Schema == nil {
			return nil, fmt.Errorf("node %q: input needs a name and a schema", id)
		}
		if _, dup := n.byIn[is.Name]; dup {
			return nil, fmt.Errorf("node %q: duplicate input %q", id, is.Name)
		}
		in := &Input{port: &port{name: is.Name, dir: In, node: n, schema: is.Schema}}
		if is.Default != nil {
			def, err := is.Schema.Parse(is.Default)
			if err != nil {
				return nil, fmt.Errorf("node %q: default of input %q: %w", id, is.Name, err)
			}
			in.def = def
		}
		n.inputs = append(n.inputs, in)
		n.byIn[is.Name] = in
	}

	var derivs []*derivation
	for _, o := range spec.Outputs {
		if o.Name == "" || o.Schema == nil || o.Derive.fn == nil {
			return nil, fmt.Errorf("node %q: output needs a name, a schema and a derivation", id)
		}
		if _, dup := n.byOut[o.Name]; dup {
			return nil, fmt.Errorf("node %q: duplicate output %q", id, o.Name)
		}
		out := &Output{
			port:    &port{name: o.Name, dir: Out, node: n, schema: o.Schema},
			targets: make(map[string]*Input),
		}
		d := &derivation{spec: o.Derive, out: out, index: -1}
		for _, name := range o.Derive.inputs {
			in, ok := n.byIn[name]
			if !ok {
				return nil, fmt.Errorf("node %q: output %q reads unknown input %q", id, o.Name, name)
			}
			d.args = append(d.args, in)
		}
		out.deriv = d
		n.outputs = append(n.outputs, out)
		n.byOut[o.Name] = out
		derivs = append(derivs, d)
	}

	for _, d := range derivs {
		for _, in := range uniqueInputs(d.args) {
			in.dependents = append(in.dependents, d)
		}
	}
	for _, in := range n.inputs {
		if in.def != cty.NilVal {
			in.value = in.def
		}
	}
	for _, d := range derivs {
		rt.schedule(d)
	}
	rt.drain()
	return n, nil
}

func uniqueInputs(ins []*Input) []*Input {
	seen := make(map[*Input]bool, len(ins))
	out := ins[:0:0]
	for _, in := range ins {
		if !seen[in] {
			seen[in] = true
			out = append(out, in)
		}
	}
	return out
}

// ID returns the node id.
func (n *Node) ID() string { return n.id }

// Kind returns the catalog kind the node was created from.
func (n *Node) Kind() string { return n.kind }

// DisplayName returns the human readable name.
func (n *Node) DisplayName() string { return n.displayName }

// Rank returns the node's position in propagation order.
func (n *Node) Rank() int { return n.rank }

// Runtime returns the runtime the node is bound to.
func (n *Node) Runtime() *Runtime { return n.rt }

// Closed reports whether the node was removed.
func (n *Node) Closed() bool { return n.closed }

// Inputs returns the inputs in declaration order.
func (n *Node) Inputs() []*Input {
	return append([]*Input(nil), n.inputs...)
}

// Outputs returns the outputs in declaration order.
func (n *Node) Outputs() []*Output {
	return append([]*Output(nil), n.outputs...)
}

// Input returns the named input.
func (n *Node) Input(name string) (*Input, bool) {
	in, ok := n.byIn[name]
	return in, ok
}

// Output returns the named output.
func (n *Node) Output(name string) (*Output, bool) {
	out, ok := n.byOut[name]
	return out, ok
}

// Close severs every connection of the node, cancels its async calls and
// completes all of its ports. Observers are dropped without a final event.
func (n *Node) Close() {
	if n.closed {
		return
	}
	for _, in := range n.inputs {
		if in.source != nil {
			src := in.source
			in.sourceSub.Unsubscribe()
			delete(src.targets, in.ID())
			in.source, in.sourceSub = nil, nil
		}
	}
	for _, out := range n.outputs {
		for _, in := range out.Targets() {
			Disconnect(in)
		}
	}
	n.closed = true
	for _, out := range n.outputs {
		out.deriv.stop()
		out.close()
	}
	for _, in := range n.inputs {
		in.close()
	}
	n.rt.drain()
}

// upstream returns the distinct nodes feeding n.
func (n *Node) upstream() []*Node {
	var nodes []*Node
	seen := map[*Node]bool{}
	for _, in := range n.inputs {
		if in.source != nil && !seen[in.source.node] {
			seen[in.source.node] = true
			nodes = append(nodes, in.source.node)
		}
	}
	return nodes
}

// downstream returns the distinct nodes fed by n.
func (n *Node) downstream() []*Node {
	var nodes []*Node
	seen := map[*Node]bool{}
	for _, out := range n.outputs {
		for _, in := range out.Targets() {
			if !seen[in.node] {
				seen[in.node] = true
				nodes = append(nodes, in.node)
			}
		}
	}
	return nodes
}

// reaches reports whether target is n or lies downstream of n.
func (n *Node) reaches(target *Node) bool {
	seen := map[*Node]bool{}
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		if seen[cur] {
			continue
		}
		seen[cur] = true
		stack = append(stack, cur.downstream()...)
	}
	return false
}

// updateRank recomputes n's rank from its sources and pushes changes
// downstream. The graph is acyclic, so this terminates.
func (n *Node) updateRank() {
	rank := 0
	for _, up := range n.upstream() {
		if up.rank+1 > rank {
			rank = up.rank + 1
		}
	}
	if rank == n.rank {
		return
	}
	n.rank = rank
	for _, down := range n.downstream() {
		down.updateRank()
	}
}
