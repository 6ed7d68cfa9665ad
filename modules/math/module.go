// Package math provides the numeric node kinds: a constant value, unary
// operators over a single input and combine-latest operators over two or
// three inputs.
package math

import (
	"errors"
	"math"

	"github.com/vk/circuitgo/internal/flow"
	"github.com/vk/circuitgo/internal/registry"
	"github.com/vk/circuitgo/internal/schema"
	"github.com/zclconf/go-cty/cty"
)

// Category is the menu section of every kind in this package.
const Category = "Math"

// Module implements the registry.Module interface for this package.
type Module struct{}

var (
	errDivisionByZero = errors.New("division by zero")
	errNegativeSqrt   = errors.New("square root of a negative number")
	errNotFinite      = errors.New("result is not a finite number")
)

// Register registers every math kind.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterKind(&registry.Kind{Name: "value", DisplayName: "Number", Category: Category, New: newValue})

	unary := []struct {
		name, display string
		fn            func(float64) (float64, error)
	}{
		{"floor", "Floor", pure1(math.Floor)},
		{"ceil", "Ceil", pure1(math.Ceil)},
		{"abs", "Absolute", pure1(math.Abs)},
		{"negate", "Negate", pure1(func(x float64) float64 { return -x })},
		{"sqrt", "Square Root", func(x float64) (float64, error) {
			if x < 0 {
				return 0, errNegativeSqrt
			}
			return math.Sqrt(x), nil
		}},
	}
	for _, u := range unary {
		r.RegisterKind(&registry.Kind{Name: u.name, DisplayName: u.display, Category: Category, New: unarySpec(u.fn)})
	}

	binary := []struct {
		name, display string
		fn            func(a, b float64) (float64, error)
	}{
		{"minimum", "Minimum", pure2(math.Min)},
		{"maximum", "Maximum", pure2(math.Max)},
		{"add", "Add", pure2(func(a, b float64) float64 { return a + b })},
		{"subtract", "Subtract", pure2(func(a, b float64) float64 { return a - b })},
		{"multiply", "Multiply", pure2(func(a, b float64) float64 { return a * b })},
		{"divide", "Divide", func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, errDivisionByZero
			}
			return a / b, nil
		}},
		{"power", "Power", pure2(math.Pow)},
	}
	for _, b := range binary {
		r.RegisterKind(&registry.Kind{Name: b.name, DisplayName: b.display, Category: Category, New: binarySpec(b.fn)})
	}

	r.RegisterKind(&registry.Kind{Name: "clamp", DisplayName: "Clamp", Category: Category, New: newClamp})
	r.RegisterKind(&registry.Kind{Name: "mix", DisplayName: "Mix", Category: Category, New: newMix})
}

func pure1(fn func(float64) float64) func(float64) (float64, error) {
	return func(x float64) (float64, error) { return fn(x), nil }
}

func pure2(fn func(a, b float64) float64) func(a, b float64) (float64, error) {
	return func(a, b float64) (float64, error) { return fn(a, b), nil }
}

// numbers derives a Number output from Number inputs.
func numbers(inputs []string, fn func(args []float64) (float64, error)) flow.Derive {
	return flow.Combine(inputs, func(args []cty.Value) (cty.Value, error) {
		fs := make([]float64, len(args))
		for i, v := range args {
			fs[i], _ = schema.AsFloat(v)
		}
		r, err := fn(fs)
		if err != nil {
			return cty.NilVal, err
		}
		if math.IsNaN(r) || math.IsInf(r, 0) {
			return cty.NilVal, errNotFinite
		}
		return cty.NumberFloatVal(r), nil
	})
}

func numberInputs(names ...string) []flow.InputSpec {
	specs := make([]flow.InputSpec, len(names))
	for i, name := range names {
		specs[i] = flow.InputSpec{Name: name, Schema: schema.Number}
	}
	return specs
}

func output(d flow.Derive) []flow.OutputSpec {
	return []flow.OutputSpec{{Name: "output", Schema: schema.Number, Derive: d}}
}

func newValue() flow.Spec {
	return flow.Spec{
		Inputs: numberInputs("x"),
		Outputs: output(flow.Map("x", func(v cty.Value) (cty.Value, error) {
			return v, nil
		})),
	}
}

func unarySpec(fn func(float64) (float64, error)) func() flow.Spec {
	return func() flow.Spec {
		return flow.Spec{
			Inputs: numberInputs("input"),
			Outputs: output(numbers([]string{"input"}, func(args []float64) (float64, error) {
				return fn(args[0])
			})),
		}
	}
}

func binarySpec(fn func(a, b float64) (float64, error)) func() flow.Spec {
	return func() flow.Spec {
		return flow.Spec{
			Inputs: numberInputs("a", "b"),
			Outputs: output(numbers([]string{"a", "b"}, func(args []float64) (float64, error) {
				return fn(args[0], args[1])
			})),
		}
	}
}

func newClamp() flow.Spec {
	return flow.Spec{
		Inputs: []flow.InputSpec{
			{Name: "input", Schema: schema.Number},
			{Name: "min", Schema: schema.Number, Default: 0},
			{Name: "max", Schema: schema.Number, Default: 1},
		},
		Outputs: output(numbers([]string{"input", "min", "max"}, func(args []float64) (float64, error) {
			lo, hi := args[1], args[2]
			if lo > hi {
				return 0, errors.New("min is greater than max")
			}
			return math.Min(math.Max(args[0], lo), hi), nil
		})),
	}
}

func newMix() flow.Spec {
	return flow.Spec{
		Inputs: []flow.InputSpec{
			{Name: "a", Schema: schema.Number},
			{Name: "b", Schema: schema.Number},
			{Name: "t", Schema: schema.Number, Default: 0.5},
		},
		Outputs: output(numbers([]string{"a", "b", "t"}, func(args []float64) (float64, error) {
			a, b, t := args[0], args[1], args[2]
			return a + (b-a)*t, nil
		})),
	}
}
