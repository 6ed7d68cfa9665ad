package text

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/registry"
)

func instantiate(t *testing.T, kind string) *flow.Node {
	t.Helper()
	r := registry.New()
	(&Module{}).Register(r)
	require.NoError(t, r.ValidateRegistry(context.Background()))
	n, err := r.Instantiate(flow.NewRuntime(context.Background()), kind, "")
	require.NoError(t, err)
	return n
}

func outputString(t *testing.T, n *flow.Node) string {
	t.Helper()
	out, ok := n.Output("output")
	require.True(t, ok)
	v, ok := out.Value()
	require.True(t, ok, "output is unset: %v", out.Err())
	return v.AsString()
}

func TestText(t *testing.T) {
	n := instantiate(t, "text")
	in, _ := n.Input("text")
	require.NoError(t, in.Next("hello"))
	assert.Equal(t, "hello", outputString(t, n))
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		name      string
		input     any
		precision any
		want      string
	}{
		{"default precision", 3.14159, nil, "3.14"},
		{"no decimals", 2.5, 0, "2"},
		{"padding", 1, 3, "1.000"},
		{"negative", -0.125, 1, "-0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := instantiate(t, "format_number")
			if tt.precision != nil {
				p, _ := n.Input("precision")
				require.NoError(t, p.Next(tt.precision))
			}
			in, _ := n.Input("input")
			require.NoError(t, in.Next(tt.input))
			assert.Equal(t, tt.want, outputString(t, n))
		})
	}
}

func TestFormatNumberRejectsFractionalPrecision(t *testing.T) {
	n := instantiate(t, "format_number")
	p, _ := n.Input("precision")
	require.NoError(t, p.Next(1.5))
	in, _ := n.Input("input")
	require.NoError(t, in.Next(1))

	out, _ := n.Output("output")
	var derr *flow.DerivationError
	require.ErrorAs(t, out.Err(), &derr)
	assert.ErrorContains(t, derr, "whole number")
}
