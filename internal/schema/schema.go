// Package schema describes the value types a port accepts. A Schema wraps a
// cty.Type together with the parser that turns raw user or wire input into a
// value of that type, and answers whether values of one schema may flow into
// a port of another.
package schema

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// Schema is an immutable type descriptor shared by every port declared with it.
type Schema struct {
	description string
	ty          cty.Type
	// validate receives a value already converted to ty and returns the
	// (possibly normalized) value or a human-readable reason for rejecting it.
	validate func(cty.Value) (cty.Value, string)
	// coerce turns raw Go input into a cty.Value before conversion. It may
	// return a reason instead when the raw form is meaningless for the schema.
	coerce func(raw any) (cty.Value, string)
}

// Description is the human-readable label shown next to a port.
func (s *Schema) Description() string {
	return s.description
}

// Type returns the underlying cty type.
func (s *Schema) Type() cty.Type {
	return s.ty
}

func (s *Schema) String() string {
	return s.description
}

// Parse validates raw and returns it as a value of this schema. raw may be a
// cty.Value, a Go primitive, a map[string]any or a string form understood by
// the schema. Parse never panics; every failure is a *ValidationError.
func (s *Schema) Parse(raw any) (val cty.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			val = cty.NilVal
			err = &ValidationError{Schema: s.description, Reason: fmt.Sprint(r)}
		}
	}()

	var in cty.Value
	var reason string
	if v, ok := raw.(cty.Value); ok {
		in = v
	} else {
		in, reason = s.coerce(raw)
		if reason != "" {
			return cty.NilVal, &ValidationError{Schema: s.description, Reason: reason}
		}
	}

	if in == cty.NilVal || in.IsNull() {
		return cty.NilVal, &ValidationError{Schema: s.description, Reason: "value is required"}
	}
	if !in.IsWhollyKnown() {
		return cty.NilVal, &ValidationError{Schema: s.description, Reason: "value is not known"}
	}

	if !in.Type().Equals(s.ty) {
		converted, convErr := convert.Convert(in, s.ty)
		if convErr != nil {
			return cty.NilVal, &ValidationError{Schema: s.description, Reason: convErr.Error()}
		}
		in = converted
	}

	out, reason := s.validate(in)
	if reason != "" {
		return cty.NilVal, &ValidationError{Schema: s.description, Reason: reason}
	}
	return out, nil
}

// IsCompatibleWith reports whether values of s may feed a port declared with
// target. The check is directional and only admits lossless conversions.
func (s *Schema) IsCompatibleWith(target *Schema) bool {
	if s == nil || target == nil {
		return false
	}
	if s.ty.Equals(target.ty) {
		return s.description == target.description
	}
	return convert.GetConversion(s.ty, target.ty) != nil
}
