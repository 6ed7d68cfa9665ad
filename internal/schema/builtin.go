package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/zclconf/go-cty/cty"
)

const notFinite = "not a finite number"

// ColorType is the object type of Color values; every channel is in [0, 1].
var ColorType = cty.Object(map[string]cty.Type{
	"r": cty.Number,
	"g": cty.Number,
	"b": cty.Number,
	"a": cty.Number,
})

// ImageType is the object type of Image values.
var ImageType = cty.Object(map[string]cty.Type{
	"url": cty.String,
})

var (
	// Number holds finite floating point values.
	Number = &Schema{description: "Number", ty: cty.Number, coerce: coerceNumber, validate: validateNumber}
	// String holds arbitrary text.
	String = &Schema{description: "String", ty: cty.String, coerce: coerceNative, validate: passthrough}
	// Bool holds true or false.
	Bool = &Schema{description: "Bool", ty: cty.Bool, coerce: coerceNative, validate: passthrough}
	// Color holds an RGBA color.
	Color = &Schema{description: "Color", ty: ColorType, coerce: coerceColor, validate: validateColor}
	// Image holds a reference to an image by URL (http(s), data: or file path).
	Image = &Schema{description: "Image", ty: ImageType, coerce: coerceImage, validate: validateImage}
)

var builtins = map[string]*Schema{}

func init() {
	for _, s := range []*Schema{Number, String, Bool, Color, Image} {
		builtins[s.description] = s
	}
}

// Lookup returns the built-in schema with the given description.
func Lookup(description string) (*Schema, bool) {
	s, ok := builtins[description]
	return s, ok
}

// Names returns the descriptions of all built-in schemas, sorted.
func Names() []string {
	names := make([]string, 0, len(builtins))
	for name := range builtins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func passthrough(v cty.Value) (cty.Value, string) {
	return v, ""
}

func coerceNative(raw any) (cty.Value, string) {
	v, err := FromNative(raw)
	if err != nil {
		return cty.NilVal, err.Error()
	}
	return v, ""
}

func coerceNumber(raw any) (cty.Value, string) {
	switch n := raw.(type) {
	case nil:
		return cty.NilVal, notFinite
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return cty.NilVal, notFinite
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return cty.NilVal, notFinite
		}
		return floatVal(f)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return cty.NilVal, notFinite
		}
		return floatVal(f)
	case float64:
		return floatVal(n)
	case float32:
		return floatVal(float64(n))
	case *big.Float:
		if n == nil || n.IsInf() {
			return cty.NilVal, notFinite
		}
		return cty.NumberVal(n), ""
	case bool:
		return cty.NilVal, notFinite
	}
	return coerceNative(raw)
}

func floatVal(f float64) (cty.Value, string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return cty.NilVal, notFinite
	}
	return cty.NumberFloatVal(f), ""
}

func validateNumber(v cty.Value) (cty.Value, string) {
	if v.AsBigFloat().IsInf() {
		return cty.NilVal, notFinite
	}
	return v, ""
}

func coerceColor(raw any) (cty.Value, string) {
	s, ok := raw.(string)
	if !ok {
		v, err := FromNative(raw)
		if err != nil {
			return cty.NilVal, err.Error()
		}
		return withDefaultAlpha(v), ""
	}
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 && len(hex) != 8 {
		return cty.NilVal, fmt.Sprintf("%q is not a #rrggbb or #rrggbbaa color", s)
	}
	bits, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return cty.NilVal, fmt.Sprintf("%q is not a #rrggbb or #rrggbbaa color", s)
	}
	if len(hex) == 6 {
		bits = bits<<8 | 0xff
	}
	channel := func(shift uint) cty.Value {
		return cty.NumberFloatVal(float64((bits>>shift)&0xff) / 255)
	}
	return cty.ObjectVal(map[string]cty.Value{
		"r": channel(24),
		"g": channel(16),
		"b": channel(8),
		"a": channel(0),
	}), ""
}

// withDefaultAlpha fills in a missing alpha channel so that {r,g,b} objects
// convert to ColorType.
func withDefaultAlpha(v cty.Value) cty.Value {
	if v == cty.NilVal || v.IsNull() || !v.IsKnown() || !v.Type().IsObjectType() {
		return v
	}
	if v.Type().HasAttribute("a") {
		return v
	}
	attrs := v.AsValueMap()
	attrs["a"] = cty.NumberIntVal(1)
	return cty.ObjectVal(attrs)
}

func validateColor(v cty.Value) (cty.Value, string) {
	for _, name := range []string{"r", "g", "b", "a"} {
		c := v.GetAttr(name)
		if c.IsNull() {
			return cty.NilVal, fmt.Sprintf("channel %q is required", name)
		}
		f, _ := c.AsBigFloat().Float64()
		if math.IsInf(f, 0) || f < 0 || f > 1 {
			return cty.NilVal, fmt.Sprintf("channel %q must be between 0 and 1", name)
		}
	}
	return v, ""
}

func coerceImage(raw any) (cty.Value, string) {
	if s, ok := raw.(string); ok {
		return cty.ObjectVal(map[string]cty.Value{"url": cty.StringVal(strings.TrimSpace(s))}), ""
	}
	return coerceNative(raw)
}

func validateImage(v cty.Value) (cty.Value, string) {
	url := v.GetAttr("url")
	if url.IsNull() || url.AsString() == "" {
		return cty.NilVal, "url is required"
	}
	return v, ""
}
