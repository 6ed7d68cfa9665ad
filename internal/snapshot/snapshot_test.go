package snapshot

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample() *Snapshot {
	return &Snapshot{
		Nodes: []Node{
			{ID: "b", Kind: "minimum", Position: Position{X: 120, Y: -4.5}, Values: map[string]any{"b": 5.0}},
			{ID: "a", Kind: "value", Position: Position{X: 0, Y: 0}, Values: map[string]any{"x": 3.0}},
			{ID: "c", Kind: "color", Values: map[string]any{"a": map[string]any{"r": 1.0}}},
		},
		Edges: []Edge{{SourceNodeID: "a", SourcePort: "output", TargetNodeID: "b", TargetPort: "a"}},
	}
}

func TestJSONWireFormat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON{}.Encode(&buf, &Snapshot{
		Nodes: []Node{{ID: "a", Kind: "value", Position: Position{X: 1, Y: 2}}},
		Edges: []Edge{{SourceNodeID: "a", SourcePort: "output", TargetNodeID: "b", TargetPort: "a"}},
	}))
	assert.JSONEq(t, `{
		"nodes": [{"id": "a", "kind": "value", "position": {"x": 1, "y": 2}}],
		"edges": [{"sourceNodeId": "a", "sourcePort": "output", "targetNodeId": "b", "targetPort": "a"}]
	}`, buf.String())
}

func TestCodecsRoundTrip(t *testing.T) {
	for _, c := range []Codec{JSON{}, YAML{}} {
		var buf bytes.Buffer
		require.NoError(t, c.Encode(&buf, sample()))
		got, err := c.Decode(&buf)
		require.NoError(t, err)
		if diff := cmp.Diff(sample(), got); diff != "" {
			t.Errorf("%T round trip mismatch (-want +got):\n%s", c, diff)
		}
	}
}

func TestYAMLDecodeNormalizesValues(t *testing.T) {
	src := `
nodes:
  - id: a
    kind: value
    position: {x: 1, y: 2}
    values:
      x: 3
      c: {r: 1, g: 0}
edges: []
`
	s, err := YAML{}.Decode(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, s.Nodes, 1)
	assert.Equal(t, map[string]any{"x": 3.0, "c": map[string]any{"r": 1.0, "g": 0.0}}, s.Nodes[0].Values)
}

func TestFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"g.json", "g.yaml", "g.YML"} {
		path := filepath.Join(dir, name)
		require.NoError(t, WriteFile(path, sample()))
		got, err := ReadFile(path)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(sample(), got), name)
	}

	_, err := ForPath("graph.txt")
	assert.ErrorContains(t, err, `no snapshot codec for ".txt" files`)
	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorContains(t, err, "failed to open snapshot")
}

func TestSort(t *testing.T) {
	s := sample()
	s.Edges = append(s.Edges, Edge{SourceNodeID: "a", SourcePort: "output", TargetNodeID: "a", TargetPort: "x"})
	s.Sort()
	assert.Equal(t, []string{"a", "b", "c"}, []string{s.Nodes[0].ID, s.Nodes[1].ID, s.Nodes[2].ID})
	assert.Equal(t, "a", s.Edges[0].TargetNodeID)
}
