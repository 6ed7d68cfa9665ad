// Package color provides nodes that build and split RGBA colors.
package color

import (
	"fmt"

	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Category is the menu section of every kind in this package.
const Category = "Color"

var channels = []string{"r", "g", "b", "a"}

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the color kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{Name: "color", DisplayName: "Color", Category: Category, New: newColor})
	r.RegisterKind(&registry.Kind{Name: "split_color", DisplayName: "Split Color", Category: Category, New: newSplit})
}

func newColor() flow.Spec {
	inputs := make([]flow.InputSpec, len(channels))
	for i, c := range channels {
		inputs[i] = flow.InputSpec{Name: c, Schema: schema.Number}
	}
	inputs[3].Default = 1

	return flow.Spec{
		Inputs: inputs,
		Outputs: []flow.OutputSpec{{
			Name:   "color",
			Schema: schema.Color,
			Derive: flow.Combine(channels, func(args []cty.Value) (cty.Value, error) {
				attrs := make(map[string]cty.Value, len(channels))
				for i, c := range channels {
					attrs[c] = args[i]
				}
				// Out of range channels are rejected by the Color schema.
				return cty.ObjectVal(attrs), nil
			}),
		}},
	}
}

func newSplit() flow.Spec {
	outputs := make([]flow.OutputSpec, len(channels))
	for i, c := range channels {
		outputs[i] = flow.OutputSpec{
			Name:   c,
			Schema: schema.Number,
			Derive: flow.Map("color", channel(c)),
		}
	}
	return flow.Spec{
		Inputs:  []flow.InputSpec{{Name: "color", Schema: schema.Color}},
		Outputs: outputs,
	}
}

func channel(name string) func(cty.Value) (cty.Value, error) {
	return func(v cty.Value) (cty.Value, error) {
		if !v.Type().IsObjectType() || !v.Type().HasAttribute(name) {
			return cty.NilVal, fmt.Errorf("color has no channel %q", name)
		}
		return v.GetAttr(name), nil
	}
}
