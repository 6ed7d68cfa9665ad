package schema

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestNumberParse(t *testing.T) {
	t.Run("accepts numbers and numeric strings", func(t *testing.T) {
		for _, raw := range []any{3, int64(3), 3.0, float32(3), "3", " 3.0 ", cty.NumberIntVal(3)} {
			v, err := Number.Parse(raw)
			require.NoError(t, err, "raw %#v", raw)
			f, ok := AsFloat(v)
			require.True(t, ok)
			assert.Equal(t, 3.0, f)
		}
	})

	t.Run("rejects non finite input", func(t *testing.T) {
		for _, raw := range []any{"", "   ", "abc", math.NaN(), math.Inf(1), math.Inf(-1), nil, true} {
			_, err := Number.Parse(raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr, "raw %#v", raw)
			assert.Equal(t, "Number", verr.Schema)
			assert.Equal(t, "not a finite number", verr.Reason)
		}
	})

	t.Run("rejects values of another type", func(t *testing.T) {
		_, err := Number.Parse(cty.BoolVal(true))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestStringAndBoolParse(t *testing.T) {
	v, err := String.Parse(4.5)
	require.NoError(t, err)
	assert.Equal(t, "4.5", v.AsString())

	v, err = Bool.Parse("true")
	require.NoError(t, err)
	assert.True(t, v.True())

	_, err = Bool.Parse("maybe")
	assert.Error(t, err)
}

func TestColorParse(t *testing.T) {
	t.Run("hex without alpha", func(t *testing.T) {
		v, err := Color.Parse("#ff0000")
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"r": 1.0, "g": 0.0, "b": 0.0, "a": 1.0}, ToNative(v))
	})

	t.Run("object with default alpha", func(t *testing.T) {
		v, err := Color.Parse(map[string]any{"r": 0.5, "g": 0.25, "b": 0.0})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"r": 0.5, "g": 0.25, "b": 0.0, "a": 1.0}, ToNative(v))
	})

	t.Run("out of range channel", func(t *testing.T) {
		_, err := Color.Parse(map[string]any{"r": 2.0, "g": 0.0, "b": 0.0, "a": 1.0})
		assert.ErrorContains(t, err, `channel "r" must be between 0 and 1`)
	})

	t.Run("bad hex", func(t *testing.T) {
		_, err := Color.Parse("#12")
		assert.ErrorContains(t, err, "is not a #rrggbb")
	})
}

func TestImageParse(t *testing.T) {
	v, err := Image.Parse("https://example.com/cat.png")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/cat.png", v.GetAttr("url").AsString())

	_, err = Image.Parse("")
	assert.ErrorContains(t, err, "url is required")
}

func TestIsCompatibleWith(t *testing.T) {
	cases := []struct {
		name   string
		from   *Schema
		to     *Schema
		expect bool
	}{
		{"same schema", Number, Number, true},
		{"number into string", Number, String, true},
		{"string into number", String, Number, false},
		{"number into color", Number, Color, false},
		{"color into image", Color, Image, false},
		{"image into image", Image, Image, true},
		{"nil target", Number, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, tc.from.IsCompatibleWith(tc.to))
		})
	}
}

func TestLookup(t *testing.T) {
	s, ok := Lookup("Color")
	require.True(t, ok)
	assert.Same(t, Color, s)

	_, ok = Lookup("Prim")
	assert.False(t, ok)
	assert.Equal(t, []string{"Bool", "Color", "Image", "Number", "String"}, Names())
}

func TestNativeRoundTrip(t *testing.T) {
	raw := map[string]any{"x": 1.5, "tags": []any{"a", true}}
	v, err := FromNative(raw)
	require.NoError(t, err)
	assert.Equal(t, raw, ToNative(v))
	assert.Nil(t, ToNative(cty.NilVal))
}
