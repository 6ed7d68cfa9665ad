package hcl

import (
	"fmt"
	"io"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/vk/circuitgo/internal/nodeid"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/vk/circuitgo/internal/snapshot"
	"github.com/zclconf/go-cty/cty"
)

func init() {
	snapshot.Register(".hcl", Codec{})
}

// fileRoot is a struct used to decode all possible top-level blocks of a
// graph file.
type fileRoot struct {
	Nodes  []*nodeBlock `hcl:"node,block"`
	Edges  []*edgeBlock `hcl:"edge,block"`
	Remain hcl.Body     `hcl:",remain"`
}

type nodeBlock struct {
	Kind     string    `hcl:"kind,label"`
	ID       string    `hcl:"id,label"`
	Position []float64 `hcl:"position,optional"`
	Values   cty.Value `hcl:"values,optional"`
}

type edgeBlock struct {
	From string `hcl:"from"`
	To   string `hcl:"to"`
}

// Codec implements snapshot.Codec for HCL.
type Codec struct{}

// Decode parses an HCL graph file.
func (Codec) Decode(r io.Reader) (*snapshot.Snapshot, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read hcl snapshot: %w", err)
	}
	file, diags := hclparse.NewParser().ParseHCL(src, "graph.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse hcl snapshot: %w", diags)
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode hcl snapshot: %w", diags)
	}

	snap := &snapshot.Snapshot{Nodes: []snapshot.Node{}, Edges: []snapshot.Edge{}}
	for _, nb := range root.Nodes {
		n, err := translateNode(nb)
		if err != nil {
			return nil, err
		}
		snap.Nodes = append(snap.Nodes, n)
	}
	for _, eb := range root.Edges {
		e, err := translateEdge(eb)
		if err != nil {
			return nil, err
		}
		snap.Edges = append(snap.Edges, e)
	}
	return snap, nil
}

func translateNode(nb *nodeBlock) (snapshot.Node, error) {
	n := snapshot.Node{ID: nb.ID, Kind: nb.Kind}
	switch len(nb.Position) {
	case 0:
	case 2:
		n.Position = snapshot.Position{X: nb.Position[0], Y: nb.Position[1]}
	default:
		return n, fmt.Errorf("node %q: position must be [x, y], got %d numbers", nb.ID, len(nb.Position))
	}

	if nb.Values == cty.NilVal || nb.Values.IsNull() {
		return n, nil
	}
	if !nb.Values.Type().IsObjectType() && !nb.Values.Type().IsMapType() {
		return n, fmt.Errorf("node %q: values must be an object", nb.ID)
	}
	if !nb.Values.IsWhollyKnown() {
		return n, fmt.Errorf("node %q: values must be constants", nb.ID)
	}
	if values, ok := schema.ToNative(nb.Values).(map[string]any); ok && len(values) > 0 {
		n.Values = values
	}
	return n, nil
}

func translateEdge(eb *edgeBlock) (snapshot.Edge, error) {
	from, err := nodeid.ParseEndpoint(eb.From)
	if err != nil {
		return snapshot.Edge{}, fmt.Errorf("edge from: %w", err)
	}
	to, err := nodeid.ParseEndpoint(eb.To)
	if err != nil {
		return snapshot.Edge{}, fmt.Errorf("edge to: %w", err)
	}
	return snapshot.Edge{SourceNodeID: from.Node, SourcePort: from.Port, TargetNodeID: to.Node, TargetPort: to.Port}, nil
}

// Encode writes s as HCL, nodes first, each block separated by a blank line.
func (Codec) Encode(w io.Writer, s *snapshot.Snapshot) error {
	f := hclwrite.NewEmptyFile()
	body := f.Body()

	for i, n := range s.Nodes {
		if i > 0 {
			body.AppendNewline()
		}
		nb := body.AppendNewBlock("node", []string{n.Kind, n.ID}).Body()
		nb.SetAttributeValue("position", cty.TupleVal([]cty.Value{
			cty.NumberFloatVal(n.Position.X),
			cty.NumberFloatVal(n.Position.Y),
		}))
		if len(n.Values) > 0 {
			values, err := schema.FromNative(n.Values)
			if err != nil {
				return fmt.Errorf("node %q: %w", n.ID, err)
			}
			nb.SetAttributeValue("values", values)
		}
	}
	for i, e := range s.Edges {
		if i > 0 || len(s.Nodes) > 0 {
			body.AppendNewline()
		}
		eb := body.AppendNewBlock("edge", nil).Body()
		from := nodeid.Endpoint{Node: e.SourceNodeID, Port: e.SourcePort}
		to := nodeid.Endpoint{Node: e.TargetNodeID, Port: e.TargetPort}
		eb.SetAttributeValue("from", cty.StringVal(from.String()))
		eb.SetAttributeValue("to", cty.StringVal(to.String()))
	}

	if _, err := w.Write(f.Bytes()); err != nil {
		return fmt.Errorf("failed to write hcl snapshot: %w", err)
	}
	return nil
}
