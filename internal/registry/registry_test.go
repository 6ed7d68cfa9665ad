package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

func passthrough(name string) func() flow.Spec {
	return func() flow.Spec {
		return flow.Spec{
			Inputs: []flow.InputSpec{{Name: "x", Schema: schema.Number}},
			Outputs: []flow.OutputSpec{{
				Name:   name,
				Schema: schema.Number,
				Derive: flow.Map("x", func(v cty.Value) (cty.Value, error) { return v, nil }),
			}},
		}
	}
}

func testRegistry() *Registry {
	r := New()
	r.RegisterKind(&Kind{Name: "floor", DisplayName: "Floor", Category: "Math", New: passthrough("output")})
	r.RegisterKind(&Kind{Name: "abs", DisplayName: "Absolute", Category: "Math", New: passthrough("output")})
	r.RegisterKind(&Kind{Name: "color", DisplayName: "Color", Category: "Color", New: passthrough("color")})
	return r
}

func names(groups []Group) map[string][]string {
	out := make(map[string][]string)
	for _, g := range groups {
		for _, k := range g.Kinds {
			out[g.Category] = append(out[g.Category], k.Name)
		}
	}
	return out
}

func TestRegisterKind(t *testing.T) {
	r := testRegistry()

	k, ok := r.Kind("floor")
	require.True(t, ok)
	assert.Equal(t, "Floor", k.DisplayName)

	assert.PanicsWithValue(t, "node kind 'floor' already registered", func() {
		r.RegisterKind(&Kind{Name: "floor", Category: "Math", New: passthrough("output")})
	})
	assert.Panics(t, func() { r.RegisterKind(&Kind{}) })
}

func TestGroupsAndSearch(t *testing.T) {
	r := testRegistry()

	groups := r.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, "Color", groups[0].Category)
	assert.Equal(t, map[string][]string{"Color": {"color"}, "Math": {"abs", "floor"}}, names(groups))

	assert.Equal(t, map[string][]string{"Math": {"floor"}}, names(r.Search("FLO")))
	assert.Equal(t, map[string][]string{"Color": {"color"}, "Math": {"floor"}}, names(r.Search("lo")))
	assert.Empty(t, r.Search("zzz"))
	assert.Len(t, r.Search(""), 2)
}

func TestInstantiate(t *testing.T) {
	r := testRegistry()
	rt := flow.NewRuntime(context.Background())

	n, err := r.Instantiate(rt, "floor", "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID())
	assert.Equal(t, "floor", n.Kind())
	assert.Equal(t, "Floor", n.DisplayName())

	other, err := r.Instantiate(rt, "floor", "")
	require.NoError(t, err)
	assert.NotEqual(t, n.ID(), other.ID())

	_, err = r.Instantiate(rt, "nope", "n2")
	var kindErr *UnknownKindError
	require.ErrorAs(t, err, &kindErr)
	assert.Equal(t, "nope", kindErr.Kind)
}

func TestValidateRegistry(t *testing.T) {
	ctx := context.Background()
	require.NoError(t, testRegistry().ValidateRegistry(ctx))

	r := testRegistry()
	r.RegisterKind(&Kind{Name: "broken", DisplayName: "Broken", Category: "Math", New: func() flow.Spec {
		spec := passthrough("output")()
		spec.Inputs[0].Default = "not a number"
		return spec
	}})
	r.RegisterKind(&Kind{Name: "orphan", DisplayName: "Orphan", New: passthrough("output")})
	r.RegisterKind(&Kind{Name: "empty", DisplayName: "Empty", Category: "Math"})

	err := r.ValidateRegistry(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "kind 'broken'")
	assert.ErrorContains(t, err, "kind 'orphan': no category")
	assert.ErrorContains(t, err, "kind 'empty': no factory")
}
