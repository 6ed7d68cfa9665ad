package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// FromNative converts plain Go data, as produced by encoding/json or yaml.v3,
// into a cty.Value. Maps become objects and slices become tuples.
func FromNative(raw any) (cty.Value, error) {
	switch v := raw.(type) {
	case nil:
		return cty.NilVal, errors.New("value is required")
	case cty.Value:
		return v, nil
	case string:
		return cty.StringVal(v), nil
	case bool:
		return cty.BoolVal(v), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return cty.NilVal, errors.New(notFinite)
		}
		return cty.NumberFloatVal(v), nil
	case json.Number:
		return cty.ParseNumberVal(v.String())
	case map[string]any:
		attrs := make(map[string]cty.Value, len(v))
		for key, elem := range v {
			ev, err := FromNative(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("attribute %q: %w", key, err)
			}
			attrs[key] = ev
		}
		return cty.ObjectVal(attrs), nil
	case []any:
		if len(v) == 0 {
			return cty.EmptyTupleVal, nil
		}
		elems := make([]cty.Value, len(v))
		for i, elem := range v {
			ev, err := FromNative(elem)
			if err != nil {
				return cty.NilVal, fmt.Errorf("element %d: %w", i, err)
			}
			elems[i] = ev
		}
		return cty.TupleVal(elems), nil
	}

	ty, err := gocty.ImpliedType(raw)
	if err != nil {
		return cty.NilVal, fmt.Errorf("unsupported value of type %T", raw)
	}
	return gocty.ToCtyValue(raw, ty)
}

// ToNative converts a known cty.Value into plain Go data suitable for JSON
// and YAML encoding. cty.NilVal and null values become nil.
func ToNative(v cty.Value) any {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() {
		return nil
	}
	ty := v.Type()
	switch {
	case ty == cty.String:
		return v.AsString()
	case ty == cty.Bool:
		return v.True()
	case ty == cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return f
	case ty.IsObjectType() || ty.IsMapType():
		out := make(map[string]any, v.LengthInt())
		for key, elem := range v.AsValueMap() {
			out[key] = ToNative(elem)
		}
		return out
	case ty.IsTupleType() || ty.IsListType() || ty.IsSetType():
		out := make([]any, 0, v.LengthInt())
		for _, elem := range v.AsValueSlice() {
			out = append(out, ToNative(elem))
		}
		return out
	}
	return v.GoString()
}

// AsFloat returns the float64 of a known Number value.
func AsFloat(v cty.Value) (float64, bool) {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() || v.Type() != cty.Number {
		return 0, false
	}
	f, _ := v.AsBigFloat().Float64()
	return f, true
}

// SortedKeys returns the keys of m in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
