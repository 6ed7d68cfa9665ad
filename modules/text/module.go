// Package text provides string nodes.
package text

import (
	"fmt"
	"math"

	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Category is the menu section of every kind in this package.
const Category = "Text"

// maxPrecision keeps formatted numbers readable.
const maxPrecision = 10

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the text kinds.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{Name: "text", DisplayName: "Text", Category: Category, New: newText})
	r.RegisterKind(&registry.Kind{Name: "format_number", DisplayName: "Format Number", Category: Category, New: newFormatNumber})
}

func newText() flow.Spec {
	return flow.Spec{
		Inputs: []flow.InputSpec{{Name: "text", Schema: schema.String}},
		Outputs: []flow.OutputSpec{{
			Name:   "output",
			Schema: schema.String,
			Derive: flow.Map("text", func(v cty.Value) (cty.Value, error) { return v, nil }),
		}},
	}
}

func newFormatNumber() flow.Spec {
	return flow.Spec{
		Inputs: []flow.InputSpec{
			{Name: "input", Schema: schema.Number},
			{Name: "precision", Schema: schema.Number, Default: 2},
		},
		Outputs: []flow.OutputSpec{{
			Name:   "output",
			Schema: schema.String,
			Derive: flow.Combine([]string{"input", "precision"}, func(args []cty.Value) (cty.Value, error) {
				x, _ := schema.AsFloat(args[0])
				p, _ := schema.AsFloat(args[1])
				if p < 0 || p > maxPrecision || p != math.Trunc(p) {
					return cty.NilVal, fmt.Errorf("precision must be a whole number between 0 and %d", maxPrecision)
				}
				return cty.StringVal(fmt.Sprintf("%.*f", int(p), x)), nil
			}),
		}},
	}
}
